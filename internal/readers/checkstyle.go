package readers

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
)

// CheckstyleReader reads style-checker XML reports.
type CheckstyleReader struct {
	items
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newCheckstyleReader(deps Deps) (Reader, error) {
	c, err := deps.Catalogs.Family(catalog.FamilyCheckstyle)
	if err != nil {
		return nil, err
	}
	return &CheckstyleReader{
		items:    newItems(FormatCheckstyle, deps.Registry),
		resolver: newResolver(deps),
		catalog:  c,
		logger:   deps.Logger.Named(string(FormatCheckstyle)),
	}, nil
}

// Parse reads <checkstyle><file name><error .../></file></checkstyle>.
// Files listed without errors are still recorded.
func (r *CheckstyleReader) Parse(path string) error {
	r.reset(path)

	doc, err := loadDocument(FormatCheckstyle, path, "checkstyle", false)
	if err != nil {
		return err
	}

	for _, fileEl := range doc.Root().SelectElements("file") {
		name, err := requiredAttr(fileEl, "name")
		if err != nil {
			return r.parseError(err)
		}
		res := r.resolver.resolve(name)
		r.touch(res)

		for _, errEl := range fileEl.SelectElements("error") {
			line, err := intAttr(errEl, "line")
			if err != nil {
				return r.parseError(err)
			}
			column, err := intAttr(errEl, "column")
			if err != nil {
				return r.parseError(err)
			}

			r.record(res, describe(r.catalog, &findings.Finding{
				Resource: res,
				Tool:     string(FormatCheckstyle),
				Type:     checkstyleSymbol(errEl.SelectAttrValue("source", "")),
				Severity: checkstyleSeverity(errEl.SelectAttrValue("severity", "")),
				Message:  errEl.SelectAttrValue("message", ""),
				Line:     line,
				Column:   column,
			}))
		}
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order))
	r.done()
	return nil
}

// checkstyleSymbol turns "com.puppycrawl.tools.checkstyle.checks.sizes.LineLengthCheck"
// into "LineLength".
func checkstyleSymbol(source string) string {
	source = strings.TrimSpace(source)
	if i := strings.LastIndex(source, "."); i >= 0 {
		source = source[i+1:]
	}
	source = strings.TrimSuffix(source, "Check")
	if source == "" {
		return "unknown"
	}
	return source
}

func checkstyleSeverity(s string) string {
	switch strings.ToLower(s) {
	case "error":
		return findings.SeverityHigh
	case "warning":
		return findings.SeverityMedium
	case "info":
		return findings.SeverityLow
	case "ignore":
		return findings.SeverityInfo
	default:
		return findings.SeverityUnknown
	}
}
