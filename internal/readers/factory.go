package readers

import (
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/resource"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

// Factory builds the reader matching a source's declared format.
type Factory struct {
	deps Deps
}

// NewFactory fills missing collaborators with defaults and makes directories absolute.
func NewFactory(deps Deps) (*Factory, error) {
	if deps.Registry == nil {
		deps.Registry = resource.NewRegistry()
	}
	if deps.Catalogs == nil {
		deps.Catalogs = catalog.NewStore("")
	}
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	if deps.BaseDir == "" {
		deps.BaseDir = "."
	}

	base, err := filepath.Abs(deps.BaseDir)
	if err != nil {
		return nil, err
	}
	deps.BaseDir = base

	dirs := make([]string, 0, len(deps.SourceDirs))
	for _, d := range deps.SourceDirs {
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(base, d)
		}
		dirs = append(dirs, filepath.Clean(d))
	}
	deps.SourceDirs = dirs

	return &Factory{deps: deps}, nil
}

// Registry returns the registry shared by every reader of this factory.
func (f *Factory) Registry() *resource.Registry {
	return f.deps.Registry
}

// BaseDir returns the absolute project root.
func (f *Factory) BaseDir() string {
	return f.deps.BaseDir
}

// New returns a fresh reader for src. Unknown or rejected formats fail before anything is
// constructed; catalog failures are returned as CatalogError.
func (f *Factory) New(src Source) (Reader, error) {
	format, err := ParseFormat(src.Format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCheckstyle:
		return newCheckstyleReader(f.deps)
	case FormatFindbugs:
		return newFindbugsReader(f.deps)
	case FormatCPD:
		return newCPDReader(f.deps)
	case FormatEmma:
		return newEmmaReader(f.deps)
	case FormatCobertura:
		return newCoberturaReader(f.deps)
	case FormatGeneric:
		return newGenericReader(f.deps, src.Flavor)
	case FormatSource:
		return newSourceReader(f.deps), nil
	default:
		return nil, scerrors.NewUnsupportedFormatError(src.Format)
	}
}
