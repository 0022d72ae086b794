package findings

import (
	"encoding/json"
	"path/filepath"
)

// ResourceSummary describes one aggregate row in the JSON summary.
type ResourceSummary struct {
	Path     string         `json:"path"`
	Package  string         `json:"package"`
	Findings []*Finding     `json:"findings"`
	ByType   map[string]int `json:"by_type,omitempty"`
}

// Summary is the JSON representation of an aggregate.
type Summary struct {
	TotalResources int               `json:"total_resources"`
	TotalFindings  int               `json:"total_findings"`
	Resources      []ResourceSummary `json:"resources"`
}

// Summarize builds a Summary with paths relative to baseDir when possible.
func Summarize(agg *Aggregate, baseDir string) Summary {
	entries := agg.Entries()
	summary := Summary{
		TotalResources: len(entries),
		Resources:      make([]ResourceSummary, 0, len(entries)),
	}

	for _, e := range entries {
		rs := ResourceSummary{
			Path:     relativeTo(baseDir, e.Resource.Path),
			Package:  e.Resource.Package,
			Findings: e.Findings,
		}
		if len(e.Findings) > 0 {
			rs.ByType = make(map[string]int)
			for _, f := range e.Findings {
				rs.ByType[f.Tool+":"+f.Type]++
			}
		}
		summary.TotalFindings += len(e.Findings)
		summary.Resources = append(summary.Resources, rs)
	}
	return summary
}

// MarshalSummary renders the summary as indented JSON.
func MarshalSummary(agg *Aggregate, baseDir string) ([]byte, error) {
	return json.MarshalIndent(Summarize(agg, baseDir), "", "    ")
}

func relativeTo(baseDir, path string) string {
	if baseDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == "../" {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
