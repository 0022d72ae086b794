package readers

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/resource"
)

const cpdDuplicatedBlock = "duplicated-block"

// CPDReader reads duplication-detector reports.
type CPDReader struct {
	items
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newCPDReader(deps Deps) (Reader, error) {
	c, err := deps.Catalogs.Family(catalog.FamilyCPD)
	if err != nil {
		return nil, err
	}
	return &CPDReader{
		items:    newItems(FormatCPD, deps.Registry),
		resolver: newResolver(deps),
		catalog:  c,
		logger:   deps.Logger.Named(string(FormatCPD)),
	}, nil
}

type cpdOccurrence struct {
	res  *resource.ResourceInfo
	path string
	line int
}

// Parse reads <pmd-cpd><duplication lines tokens><file path line/>...</duplication>.
// Every occurrence becomes one finding naming the other occurrences.
func (r *CPDReader) Parse(path string) error {
	r.reset(path)

	doc, err := loadDocument(FormatCPD, path, "pmd-cpd", false)
	if err != nil {
		return err
	}

	for _, dup := range doc.Root().SelectElements("duplication") {
		lines, err := intAttr(dup, "lines")
		if err != nil {
			return r.parseError(err)
		}
		tokens, err := intAttr(dup, "tokens")
		if err != nil {
			return r.parseError(err)
		}

		var occurrences []cpdOccurrence
		for _, fileEl := range dup.SelectElements("file") {
			p, err := requiredAttr(fileEl, "path")
			if err != nil {
				return r.parseError(err)
			}
			line, err := intAttr(fileEl, "line")
			if err != nil {
				return r.parseError(err)
			}
			occurrences = append(occurrences, cpdOccurrence{res: r.resolver.resolve(p), path: p, line: line})
		}
		if len(occurrences) < 2 {
			return r.parseError(fmt.Errorf("duplication at %s has %d file occurrences, want at least 2", dup.GetPath(), len(occurrences)))
		}

		for i, occ := range occurrences {
			var others []string
			for j, other := range occurrences {
				if j != i {
					others = append(others, fmt.Sprintf("%s:%d", other.path, other.line))
				}
			}
			endLine := 0
			if lines > 0 {
				endLine = occ.line + lines - 1
			}
			r.record(occ.res, describe(r.catalog, &findings.Finding{
				Resource: occ.res,
				Tool:     string(FormatCPD),
				Type:     cpdDuplicatedBlock,
				Severity: findings.SeverityMedium,
				Message:  fmt.Sprintf("%d duplicated lines (%d tokens), also found in %s", lines, tokens, strings.Join(others, ", ")),
				Line:     occ.line,
				EndLine:  endLine,
			}))
		}
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order))
	r.done()
	return nil
}
