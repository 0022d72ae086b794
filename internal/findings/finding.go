package findings

import (
	"github.com/scan-io-git/scanio-merge/internal/resource"
)

// Severity levels shared by the readers. Tools with their own vocabulary map onto these.
const (
	SeverityInfo    = "info"
	SeverityLow     = "low"
	SeverityMedium  = "medium"
	SeverityHigh    = "high"
	SeverityUnknown = "unknown"
)

// Finding is one reported issue or measurement attached to a single resource.
type Finding struct {
	Resource *resource.ResourceInfo `json:"-"`

	Tool     string `json:"tool"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`

	Line    int `json:"line,omitempty"`
	EndLine int `json:"end_line,omitempty"`
	Column  int `json:"column,omitempty"`

	// Pattern is the tool-specific message template of the finding type, when known.
	Pattern string `json:"pattern,omitempty"`
}
