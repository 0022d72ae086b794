package readers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
)

const (
	coberturaLineRate      = "line-rate"
	coberturaUncoveredLine = "uncovered-line"
)

// CoberturaReader reads Cobertura coverage XML.
type CoberturaReader struct {
	items
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newCoberturaReader(deps Deps) (Reader, error) {
	c, err := deps.Catalogs.Family(catalog.FamilyCobertura)
	if err != nil {
		return nil, err
	}
	return &CoberturaReader{
		items:    newItems(FormatCobertura, deps.Registry),
		resolver: newResolver(deps),
		catalog:  c,
		logger:   deps.Logger.Named(string(FormatCobertura)),
	}, nil
}

// Parse reads <coverage><sources/><packages><package><classes><class filename line-rate>.
// Each class yields a line-rate measurement and one finding per line with zero hits.
func (r *CoberturaReader) Parse(path string) error {
	r.reset(path)

	doc, err := loadDocument(FormatCobertura, path, "coverage", false)
	if err != nil {
		return err
	}
	root := doc.Root()

	var sources []string
	for _, el := range root.FindElements("./sources/source") {
		if dir := strings.TrimSpace(el.Text()); dir != "" {
			sources = append(sources, dir)
		}
	}

	for _, class := range root.FindElements("./packages/package/classes/class") {
		filename, err := requiredAttr(class, "filename")
		if err != nil {
			return r.parseError(err)
		}
		res := r.resolver.resolve(filename, sources...)

		if rate := strings.TrimSpace(class.SelectAttrValue("line-rate", "")); rate != "" {
			value, err := strconv.ParseFloat(rate, 64)
			if err != nil {
				return r.parseError(fmt.Errorf("class %q: line-rate %q is not a number", filename, rate))
			}
			r.record(res, describe(r.catalog, &findings.Finding{
				Resource: res,
				Tool:     string(FormatCobertura),
				Type:     coberturaLineRate,
				Severity: findings.SeverityInfo,
				Message:  fmt.Sprintf("%s: %.1f%% of lines covered", class.SelectAttrValue("name", filename), value*100),
			}))
		} else {
			r.touch(res)
		}

		for _, line := range class.FindElements("./lines/line") {
			number, err := intAttr(line, "number")
			if err != nil {
				return r.parseError(err)
			}
			hits, err := intAttr(line, "hits")
			if err != nil {
				return r.parseError(err)
			}
			if hits > 0 {
				continue
			}
			r.record(res, describe(r.catalog, &findings.Finding{
				Resource: res,
				Tool:     string(FormatCobertura),
				Type:     coberturaUncoveredLine,
				Severity: findings.SeverityLow,
				Message:  fmt.Sprintf("Line %d is not covered", number),
				Line:     number,
			}))
		}
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order), "sources", sources)
	r.done()
	return nil
}
