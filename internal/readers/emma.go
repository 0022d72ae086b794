package readers

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
)

// emmaDefaultPackage is the name Emma gives to the unnamed package.
const emmaDefaultPackage = "default package"

// EmmaReader reads Emma coverage XML. Emma writes method signatures such as
// "<init> (): void" unescaped inside attribute values, so the stream is sanitized first.
type EmmaReader struct {
	items
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newEmmaReader(deps Deps) (Reader, error) {
	c, err := deps.Catalogs.Family(catalog.FamilyEmma)
	if err != nil {
		return nil, err
	}
	return &EmmaReader{
		items:    newItems(FormatEmma, deps.Registry),
		resolver: newResolver(deps),
		catalog:  c,
		logger:   deps.Logger.Named(string(FormatEmma)),
	}, nil
}

// Parse reads <report><data><all><package name><srcfile name><coverage type value/>.
// Each coverage element of a source file becomes one measurement finding.
func (r *EmmaReader) Parse(path string) error {
	r.reset(path)

	doc, err := loadDocument(FormatEmma, path, "report", true)
	if err != nil {
		return err
	}

	for _, pkg := range doc.Root().FindElements("./data/all/package") {
		pkgName, err := requiredAttr(pkg, "name")
		if err != nil {
			return r.parseError(err)
		}
		dir := ""
		if pkgName != emmaDefaultPackage {
			dir = strings.ReplaceAll(pkgName, ".", "/") + "/"
		}

		for _, src := range pkg.SelectElements("srcfile") {
			name, err := requiredAttr(src, "name")
			if err != nil {
				return r.parseError(err)
			}
			res := r.resolver.resolve(dir + name)
			r.touch(res)

			for _, cov := range src.SelectElements("coverage") {
				covType, err := requiredAttr(cov, "type")
				if err != nil {
					return r.parseError(err)
				}
				r.record(res, describe(r.catalog, &findings.Finding{
					Resource: res,
					Tool:     string(FormatEmma),
					Type:     emmaSymbol(covType),
					Severity: findings.SeverityInfo,
					Message:  strings.Join(strings.Fields(cov.SelectAttrValue("value", "")), " "),
				}))
			}
		}
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order))
	r.done()
	return nil
}

// emmaSymbol maps "line, %" to "coverage-line".
func emmaSymbol(covType string) string {
	kind := covType
	if i := strings.Index(kind, ","); i >= 0 {
		kind = kind[:i]
	}
	return "coverage-" + strings.ToLower(strings.TrimSpace(kind))
}
