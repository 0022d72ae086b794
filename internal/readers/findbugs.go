package readers

import (
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
)

// FindbugsReader reads bug-detector BugCollection reports.
type FindbugsReader struct {
	items
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newFindbugsReader(deps Deps) (Reader, error) {
	c, err := deps.Catalogs.Family(catalog.FamilyFindbugs)
	if err != nil {
		return nil, err
	}
	return &FindbugsReader{
		items:    newItems(FormatFindbugs, deps.Registry),
		resolver: newResolver(deps),
		catalog:  c,
		logger:   deps.Logger.Named(string(FormatFindbugs)),
	}, nil
}

// Parse reads <BugCollection>. Source directories declared under <Project><SrcDir> take
// precedence over the configured ones when resolving source paths.
func (r *FindbugsReader) Parse(path string) error {
	r.reset(path)

	doc, err := loadDocument(FormatFindbugs, path, "BugCollection", false)
	if err != nil {
		return err
	}
	root := doc.Root()

	var srcDirs []string
	for _, el := range root.FindElements("./Project/SrcDir") {
		if dir := strings.TrimSpace(el.Text()); dir != "" {
			srcDirs = append(srcDirs, dir)
		}
	}

	for _, bug := range root.SelectElements("BugInstance") {
		bugType, err := requiredAttr(bug, "type")
		if err != nil {
			return r.parseError(err)
		}

		line := primarySourceLine(bug)
		if line == nil {
			return r.parseError(fmt.Errorf("BugInstance %s has no SourceLine", bugType))
		}
		sourcePath, err := findbugsSourcePath(line)
		if err != nil {
			return r.parseError(fmt.Errorf("BugInstance %s: %w", bugType, err))
		}
		start, err := intAttr(line, "start")
		if err != nil {
			return r.parseError(err)
		}
		end, err := intAttr(line, "end")
		if err != nil {
			return r.parseError(err)
		}

		message := childText(bug, "LongMessage")
		if message == "" {
			message = childText(bug, "ShortMessage")
		}

		res := r.resolver.resolve(sourcePath, srcDirs...)
		r.record(res, describe(r.catalog, &findings.Finding{
			Resource: res,
			Tool:     string(FormatFindbugs),
			Type:     bugType,
			Severity: findbugsSeverity(bug.SelectAttrValue("priority", "")),
			Message:  message,
			Line:     start,
			EndLine:  end,
		}))
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order), "srcDirs", srcDirs)
	r.done()
	return nil
}

// primarySourceLine returns the bug's own SourceLine marked primary, its first direct
// SourceLine, or the first nested one, in that order.
func primarySourceLine(bug *etree.Element) *etree.Element {
	direct := bug.SelectElements("SourceLine")
	for _, el := range direct {
		if el.SelectAttrValue("primary", "") == "true" {
			return el
		}
	}
	if len(direct) > 0 {
		return direct[0]
	}
	return bug.FindElement(".//SourceLine")
}

// findbugsSourcePath prefers sourcepath and falls back to the class name.
func findbugsSourcePath(line *etree.Element) (string, error) {
	if p := strings.TrimSpace(line.SelectAttrValue("sourcepath", "")); p != "" {
		return p, nil
	}

	className := strings.TrimSpace(line.SelectAttrValue("classname", ""))
	if className == "" {
		return "", fmt.Errorf("SourceLine has neither sourcepath nor classname")
	}
	if i := strings.Index(className, "$"); i >= 0 {
		className = className[:i]
	}
	dir := path.Dir(strings.ReplaceAll(className, ".", "/"))
	file := line.SelectAttrValue("sourcefile", "")
	if file == "" {
		file = path.Base(strings.ReplaceAll(className, ".", "/")) + ".java"
	}
	if dir == "." {
		return file, nil
	}
	return dir + "/" + file, nil
}

func findbugsSeverity(priority string) string {
	switch strings.TrimSpace(priority) {
	case "1":
		return findings.SeverityHigh
	case "2":
		return findings.SeverityMedium
	case "3":
		return findings.SeverityLow
	case "4", "5":
		return findings.SeverityInfo
	default:
		return findings.SeverityUnknown
	}
}
