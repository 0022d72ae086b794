package sarif

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/git"
)

// Name and home page of the merge tool, used for the inventory run.
const (
	ToolName           = "scanio-merge"
	ToolInformationURI = "https://github.com/scan-io-git/scan-io"
)

// Metadata carries the run-level context of an export.
type Metadata struct {
	BaseDir      string                  // Project root; artifact URIs are relative to it
	ToolVersion  string                  // Version of the merge tool
	AutomationID string                  // Correlates the runs of one merge; generated when empty
	Repository   *git.RepositoryMetadata // Version control provenance, optional
	Catalogs     *catalog.Store          // Rule descriptions, optional
	Logger       hclog.Logger
}

// Export writes agg as an indented SARIF 2.1.0 log to w.
func Export(agg *findings.Aggregate, meta Metadata, w io.Writer) error {
	report, err := Build(agg, meta)
	if err != nil {
		return err
	}
	return report.PrettyWrite(w)
}

// Build converts agg into a SARIF log.
//
// The first run, driven by the merge tool itself, lists every resource as an artifact so
// resources without findings remain visible. Each tool namespace then gets its own run
// with one rule per finding type and one result per finding.
func Build(agg *findings.Aggregate, meta Metadata) (*sarif.Report, error) {
	if agg == nil {
		return nil, fmt.Errorf("aggregate is nil")
	}
	if meta.Logger == nil {
		meta.Logger = hclog.NewNullLogger()
	}
	if meta.AutomationID == "" {
		meta.AutomationID = uuid.NewString()
	}
	if meta.BaseDir != "" {
		if abs, err := filepath.Abs(meta.BaseDir); err == nil {
			meta.BaseDir = abs
		}
	}

	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}

	entries := agg.Entries()

	inventory := newRun(sarif.NewVersionedDriver(ToolName, versionOr(meta.ToolVersion)).
		WithInformationURI(ToolInformationURI), meta)
	for _, entry := range entries {
		uri, relative := ArtifactURI(entry.Resource.Path, meta.BaseDir)
		artifact := sarif.NewArtifact().WithLocation(artifactLocation(uri, relative)).WithLength(-1)
		artifact.PropertyBag = *sarif.NewPropertyBag()
		artifact.Add("package", entry.Resource.Package)
		artifact.Add("findings", len(entry.Findings))
		inventory.Artifacts = append(inventory.Artifacts, artifact)
	}
	report.AddRun(inventory)

	byTool := map[string][]*findings.Finding{}
	for _, entry := range entries {
		for _, f := range entry.Findings {
			byTool[f.Tool] = append(byTool[f.Tool], f)
		}
	}
	tools := make([]string, 0, len(byTool))
	for tool := range byTool {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	for _, tool := range tools {
		report.AddRun(buildToolRun(tool, byTool[tool], meta))
	}

	meta.Logger.Debug("SARIF log built", "runs", len(report.Runs), "resources", len(entries), "automationId", meta.AutomationID)
	return report, nil
}

func buildToolRun(tool string, list []*findings.Finding, meta Metadata) *sarif.Run {
	run := newRun(sarif.NewDriver(tool), meta)

	var types *catalog.Catalog
	if meta.Catalogs != nil {
		if c, err := meta.Catalogs.Family(tool); err == nil {
			types = c
		} else {
			meta.Logger.Debug("no catalog for tool, rules carry their id only", "tool", tool)
		}
	}

	seen := map[string]bool{}
	for _, f := range list {
		rule := run.AddRule(f.Type)
		if rule.ShortDescription == nil {
			describeRule(rule, types, f.Type)
		}

		uri, relative := ArtifactURI(f.Resource.Path, meta.BaseDir)
		if !seen[uri] {
			seen[uri] = true
			run.Artifacts = append(run.Artifacts, sarif.NewArtifact().WithLocation(artifactLocation(uri, relative)).WithLength(-1))
		}

		message := f.Message
		if message == "" {
			message = f.Type
		}

		physical := sarif.NewPhysicalLocation().WithArtifactLocation(artifactLocation(uri, relative))
		if f.Line > 0 {
			region := sarif.NewRegion().WithStartLine(f.Line)
			if f.EndLine >= f.Line {
				region.WithEndLine(f.EndLine)
			}
			if f.Column > 0 {
				region.WithStartColumn(f.Column)
			}
			physical.WithRegion(region)
		}

		result := sarif.NewRuleResult(f.Type).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(severityToLevel(f.Severity)).
			WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)}).
			WithPartialFingerPrints(map[string]interface{}{FingerprintKey: findingFingerprint(uri, f)})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("severity", f.Severity)
		if f.Resource.Package != "" {
			result.Add("package", f.Resource.Package)
		}
		run.AddResult(result)
	}

	sortResultsByLevel(run)
	return run
}

// newRun creates a run with automation details, the source root base id and provenance.
func newRun(driver *sarif.ToolComponent, meta Metadata) *sarif.Run {
	run := sarif.NewRun(sarif.Tool{Driver: driver})
	run.WithAutomationDetails(sarif.NewRunAutomationDetails().
		WithID(fmt.Sprintf("%s/%s/%s", ToolName, driver.Name, meta.AutomationID)).
		WithCorrelationGUID(meta.AutomationID))

	if meta.BaseDir != "" {
		run.WithOriginalUriBaseIds(map[string]*sarif.ArtifactLocation{
			SrcRootBaseID: sarif.NewSimpleArtifactLocation(FileURI(meta.BaseDir, true)),
		})
	}
	if vcs := provenance(meta.Repository); vcs != nil {
		run.AddVersionControlProvenance(vcs)
	}
	return run
}

// provenance describes the repository, or returns nil when it has no origin URL.
func provenance(md *git.RepositoryMetadata) *sarif.VersionControlDetails {
	if md == nil || md.RemoteURL == nil {
		return nil
	}

	vcs := sarif.NewVersionControlDetails().WithRepositoryURI(*md.RemoteURL)
	if md.CommitHash != nil {
		vcs.WithRevisionID(*md.CommitHash)
	}
	if md.BranchName != nil {
		vcs.WithBranch(*md.BranchName)
	}
	if sub := NormalisedSubfolder(md); sub != "" {
		vcs.PropertyBag = *sarif.NewPropertyBag()
		vcs.Add("subfolder", sub)
	} else {
		vcs.WithMappedTo(sarif.NewArtifactLocation().WithUriBaseId(SrcRootBaseID))
	}
	return vcs
}

func describeRule(rule *sarif.ReportingDescriptor, types *catalog.Catalog, symbol string) {
	ft, ok := types.Lookup(symbol)
	if !ok {
		rule.WithDescription(symbol)
		return
	}
	rule.WithName(ft.Symbol).WithDescription(ft.Short)
	if ft.Description != "" {
		rule.WithFullDescription(sarif.NewMultiformatMessageString(ft.Description))
	}
	if ft.Pattern != "" {
		rule.WithTextHelp(ft.Pattern)
	}
}

func artifactLocation(uri string, relative bool) *sarif.ArtifactLocation {
	loc := sarif.NewArtifactLocation().WithUri(uri)
	if relative {
		loc.WithUriBaseId(SrcRootBaseID)
	}
	return loc
}

func versionOr(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}
