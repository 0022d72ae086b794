package sarif

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-merge/internal/findings"
)

// FingerprintKey names the partial fingerprint attached to every exported result.
const FingerprintKey = "scanioFindingHash/v1"

// levelOrder sorts results: error, warning, note, none.
var levelOrder = map[string]int{
	"error":   0,
	"warning": 1,
	"note":    2,
	"none":    3,
}

// severityToLevel maps a finding severity onto a SARIF result level.
func severityToLevel(severity string) string {
	switch severity {
	case findings.SeverityHigh:
		return "error"
	case findings.SeverityMedium:
		return "warning"
	case findings.SeverityLow:
		return "note"
	case findings.SeverityInfo:
		return "none"
	default:
		return "warning"
	}
}

// sortResultsByLevel orders the results of run by level, keeping the merge order otherwise.
func sortResultsByLevel(run *sarif.Run) {
	sort.SliceStable(run.Results, func(i, j int) bool {
		return levelOrder[levelOf(run.Results[i])] < levelOrder[levelOf(run.Results[j])]
	})
}

func levelOf(result *sarif.Result) string {
	if result.Level == nil {
		return "warning"
	}
	return *result.Level
}

// findingFingerprint identifies a finding independently of its position in the log.
func findingFingerprint(uri string, f *findings.Finding) string {
	return calculateMD5Hash(fmt.Sprintf("%s|%s|%s|%d|%d|%s", f.Tool, f.Type, uri, f.Line, f.Column, f.Message))
}

// function that calculates md5 hash for a given text
func calculateMD5Hash(text string) string {
	hash := md5.New()
	io.WriteString(hash, text)
	return hex.EncodeToString(hash.Sum(nil))
}
