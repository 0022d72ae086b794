package readers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
)

// FlavorSARIF selects the SARIF decoder of the generic reader.
const FlavorSARIF = "sarif"

// GenericReader reads tool-agnostic reports. The flavor picks the decoder and names the
// tool namespace of the findings.
type GenericReader struct {
	items
	flavor   string
	resolver resolver
	catalog  *catalog.Catalog
	logger   hclog.Logger
}

func newGenericReader(deps Deps, flavor string) (Reader, error) {
	flavor = strings.ToLower(strings.TrimSpace(flavor))
	if flavor == "" {
		return nil, fmt.Errorf("generic report source requires a flavor")
	}

	logger := deps.Logger.Named(string(FormatGeneric)).With("flavor", flavor)

	// flavors matching a catalog family reuse it; others have none
	var c *catalog.Catalog
	if flavor != FlavorSARIF {
		loaded, err := deps.Catalogs.Family(flavor)
		switch {
		case err == nil:
			c = loaded
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
			logger.Debug("no finding-type catalog for flavor", "error", err)
		default:
			return nil, err
		}
	}

	return &GenericReader{
		items:    newItems(FormatGeneric, deps.Registry),
		flavor:   flavor,
		resolver: newResolver(deps),
		catalog:  c,
		logger:   logger,
	}, nil
}

// Flavor returns the normalized flavor of the reader.
func (r *GenericReader) Flavor() string {
	return r.flavor
}

// Parse dispatches on the flavor.
func (r *GenericReader) Parse(path string) error {
	r.reset(path)

	var err error
	switch r.flavor {
	case FlavorSARIF:
		err = r.parseSARIF(path)
	default:
		err = r.parseIssues(path)
	}
	if err != nil {
		return err
	}

	r.logger.Debug("report parsed", "path", path, "resources", len(r.order))
	r.done()
	return nil
}

// parseIssues reads <issues><issue file line column type severity>message</issue></issues>.
func (r *GenericReader) parseIssues(path string) error {
	doc, err := loadDocument(FormatGeneric, path, "issues", false)
	if err != nil {
		return err
	}

	for _, issue := range doc.Root().SelectElements("issue") {
		file, err := requiredAttr(issue, "file")
		if err != nil {
			return r.parseError(err)
		}
		symbol, err := requiredAttr(issue, "type")
		if err != nil {
			return r.parseError(err)
		}
		line, err := intAttr(issue, "line")
		if err != nil {
			return r.parseError(err)
		}
		column, err := intAttr(issue, "column")
		if err != nil {
			return r.parseError(err)
		}

		res := r.resolver.resolve(file)
		r.record(res, describe(r.catalog, &findings.Finding{
			Resource: res,
			Tool:     r.flavor,
			Type:     symbol,
			Severity: genericSeverity(issue.SelectAttrValue("severity", "")),
			Message:  strings.TrimSpace(issue.Text()),
			Line:     line,
			Column:   column,
		}))
	}
	return nil
}

// parseSARIF reads a SARIF 2.1.0 log. Results without a physical location cannot be
// attached to a resource and are skipped.
func (r *GenericReader) parseSARIF(path string) error {
	file, err := openReport(FormatGeneric, path)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return r.parseError(err)
	}
	report, err := sarif.FromBytes(data)
	if err != nil {
		return r.parseError(fmt.Errorf("invalid SARIF: %w", err))
	}
	if len(report.Runs) == 0 {
		return r.parseError(fmt.Errorf("SARIF log has no runs"))
	}

	skipped := 0
	for _, run := range report.Runs {
		tool := r.flavor
		if run.Tool.Driver != nil && run.Tool.Driver.Name != "" {
			tool = strings.ToLower(run.Tool.Driver.Name)
		}

		for _, result := range run.Results {
			uri, region := sarifLocation(result)
			if uri == "" {
				skipped++
				continue
			}

			f := &findings.Finding{
				Tool:     tool,
				Type:     "unknown",
				Severity: sarifSeverity(result.Level),
			}
			if result.RuleID != nil && *result.RuleID != "" {
				f.Type = *result.RuleID
			}
			if result.Message.Text != nil {
				f.Message = *result.Message.Text
			}
			if region != nil {
				f.Line = derefInt(region.StartLine)
				f.EndLine = derefInt(region.EndLine)
				f.Column = derefInt(region.StartColumn)
			}

			res := r.resolver.resolve(uri)
			f.Resource = res
			r.record(res, f)
		}
	}

	if skipped > 0 {
		r.logger.Warn("skipped results without a physical location", "count", skipped)
	}
	return nil
}

func sarifLocation(result *sarif.Result) (string, *sarif.Region) {
	for _, loc := range result.Locations {
		if loc == nil || loc.PhysicalLocation == nil || loc.PhysicalLocation.ArtifactLocation == nil {
			continue
		}
		uri := loc.PhysicalLocation.ArtifactLocation.URI
		if uri == nil || *uri == "" {
			continue
		}
		return uriToPath(*uri), loc.PhysicalLocation.Region
	}
	return "", nil
}

// uriToPath strips a file:// scheme and percent-encoding from an artifact URI.
func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
		return strings.TrimPrefix(uri, "file://")
	}
	if unescaped, err := url.PathUnescape(uri); err == nil {
		return unescaped
	}
	return uri
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func sarifSeverity(level *string) string {
	if level == nil {
		return findings.SeverityMedium
	}
	switch *level {
	case "error":
		return findings.SeverityHigh
	case "warning":
		return findings.SeverityMedium
	case "note":
		return findings.SeverityLow
	case "none":
		return findings.SeverityInfo
	default:
		return findings.SeverityUnknown
	}
}

func genericSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocker", "critical", "error", "high", "major":
		return findings.SeverityHigh
	case "medium", "warning":
		return findings.SeverityMedium
	case "low", "minor":
		return findings.SeverityLow
	case "info", "note":
		return findings.SeverityInfo
	default:
		return findings.SeverityUnknown
	}
}
