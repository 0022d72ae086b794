package readers

import (
	"strings"

	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

// Format is the declared format tag of a report source.
type Format string

// The closed set of known format tags.
const (
	FormatCheckstyle Format = "checkstyle" // style checker
	FormatFindbugs   Format = "findbugs"   // bug detector
	FormatCPD        Format = "cpd"        // duplication detector
	FormatEmma       Format = "emma"       // coverage, needs sanitizing
	FormatCobertura  Format = "cobertura"  // coverage
	FormatGeneric    Format = "generic"    // flavored generic issues
	FormatSource     Format = "source"     // source tree walk
	FormatPMD        Format = "pmd"        // known, rejected
)

var knownFormats = map[Format]bool{
	FormatCheckstyle: true,
	FormatFindbugs:   true,
	FormatCPD:        true,
	FormatEmma:       true,
	FormatCobertura:  true,
	FormatGeneric:    true,
	FormatSource:     true,
	FormatPMD:        false,
}

// Source describes one report source: a path plus its declared format.
// Flavor is only read by the generic reader.
type Source struct {
	Path   string `yaml:"path" json:"path"`
	Format string `yaml:"format" json:"format"`
	Flavor string `yaml:"flavor,omitempty" json:"flavor,omitempty"`
}

// String identifies the source in logs and errors.
func (s Source) String() string {
	if s.Flavor != "" {
		return s.Format + ":" + s.Flavor + "=" + s.Path
	}
	return s.Format + "=" + s.Path
}

// ParseFormat maps a tag to a supported Format.
// Unknown tags and tags marked unsupported return an UnsupportedFormatError.
func ParseFormat(tag string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(tag)))
	if supported, ok := knownFormats[f]; !ok || !supported {
		return "", scerrors.NewUnsupportedFormatError(tag)
	}
	return f, nil
}

// SupportedFormats lists the tags accepted by ParseFormat.
func SupportedFormats() []string {
	return []string{
		string(FormatCheckstyle),
		string(FormatFindbugs),
		string(FormatCPD),
		string(FormatEmma),
		string(FormatCobertura),
		string(FormatGeneric),
		string(FormatSource),
	}
}
