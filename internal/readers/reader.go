package readers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/resource"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

// Reader is satisfied by every format adapter.
//
// Parse fills the reader's private resource -> findings mapping and never touches an
// aggregate. Merge folds that mapping into agg and must follow a successful Parse.
type Reader interface {
	Format() Format
	Parse(path string) error
	Merge(agg *findings.Aggregate) error
}

// WalkOptions configures the source tree walker.
type WalkOptions struct {
	SourceRoots []string // Slash-separated directory sequences, e.g. "src/main/java"
	PackageDoc  string   // File name synthesized under source-root packages
	Exclude     []string // Extra gitignore-style patterns never walked
}

// Deps carries the collaborators shared by every reader of a run.
type Deps struct {
	Registry   *resource.Registry
	Catalogs   *catalog.Store
	Logger     hclog.Logger
	BaseDir    string   // Project root used for relative report paths
	SourceDirs []string // Directories tried first when resolving relative paths
	Walk       WalkOptions
}

// items is the private mapping shared by all readers, along with the merge discipline.
//
// When registry is set, the recorded resources come from a reader-private registry and
// are registered with the shared one on Merge, in merge order.
type items struct {
	format   Format
	registry *resource.Registry
	path     string
	parsed   bool
	order    []*resource.ResourceInfo
	entries  map[*resource.ResourceInfo][]*findings.Finding
}

func newItems(format Format, shared *resource.Registry) items {
	return items{format: format, registry: shared}
}

// Format returns the reader's format tag.
func (it *items) Format() Format {
	return it.format
}

func (it *items) reset(path string) {
	it.path = path
	it.parsed = false
	it.order = nil
	it.entries = make(map[*resource.ResourceInfo][]*findings.Finding)
}

// touch records res with no additional findings.
func (it *items) touch(res *resource.ResourceInfo) {
	if _, ok := it.entries[res]; !ok {
		it.order = append(it.order, res)
		it.entries[res] = []*findings.Finding{}
	}
}

func (it *items) record(res *resource.ResourceInfo, f ...*findings.Finding) {
	it.touch(res)
	it.entries[res] = append(it.entries[res], f...)
}

func (it *items) done() {
	it.parsed = true
}

// Merge appends the parsed findings to agg, creating entries for resources agg has not seen.
func (it *items) Merge(agg *findings.Aggregate) error {
	if !it.parsed {
		return scerrors.NewParseError(string(it.format), it.path, fmt.Errorf("merge called before a successful parse"))
	}
	if agg == nil {
		return scerrors.NewParseError(string(it.format), it.path, fmt.Errorf("nil aggregate"))
	}
	order, entries := it.canonical()
	agg.AddAll(order, entries)
	return nil
}

// canonical maps the recorded resources onto the shared registry. The first reader to
// register a path decides its package and source root.
func (it *items) canonical() ([]*resource.ResourceInfo, map[*resource.ResourceInfo][]*findings.Finding) {
	if it.registry == nil {
		return it.order, it.entries
	}

	order := make([]*resource.ResourceInfo, 0, len(it.order))
	entries := make(map[*resource.ResourceInfo][]*findings.Finding, len(it.order))
	for _, local := range it.order {
		res := it.registry.Register(local.Path, local.Package, local.SourceRoot)
		if _, ok := entries[res]; !ok {
			order = append(order, res)
			entries[res] = []*findings.Finding{}
		}
		for _, f := range it.entries[local] {
			moved := *f
			moved.Resource = res
			entries[res] = append(entries[res], &moved)
		}
	}
	return order, entries
}

// Resources returns the resources recorded by the last Parse, in insertion order.
// For report readers these are not yet registered with the shared registry.
func (it *items) Resources() []*resource.ResourceInfo {
	out := make([]*resource.ResourceInfo, len(it.order))
	copy(out, it.order)
	return out
}

func (it *items) parseError(err error) error {
	return scerrors.NewParseError(string(it.format), it.path, err)
}

// resolver maps report paths onto resources of a reader-private registry.
type resolver struct {
	registry   *resource.Registry
	baseDir    string
	sourceDirs []string
}

func newResolver(deps Deps) resolver {
	return resolver{
		registry:   resource.NewRegistry(),
		baseDir:    deps.BaseDir,
		sourceDirs: deps.SourceDirs,
	}
}

// resolve returns the resource for a path as written in a report.
// Relative paths are tried against extraDirs, then the configured source directories; the
// first existing file wins, otherwise the path is taken relative to the base directory.
func (r resolver) resolve(path string, extraDirs ...string) *resource.ResourceInfo {
	dirs := make([]string, 0, len(extraDirs)+len(r.sourceDirs))
	for _, d := range extraDirs {
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(r.baseDir, d)
		}
		dirs = append(dirs, d)
	}
	dirs = append(dirs, r.sourceDirs...)

	if filepath.IsAbs(path) {
		for _, dir := range dirs {
			if pkg, ok := resource.PackageFor(dir, path); ok {
				return r.registry.Register(path, pkg, dir)
			}
		}
		if pkg, ok := resource.PackageFor(r.baseDir, path); ok {
			return r.registry.Register(path, pkg, r.baseDir)
		}
		return r.registry.Register(path, "", filepath.Dir(path))
	}

	for _, dir := range dirs {
		full := filepath.Join(dir, path)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			pkg, _ := resource.PackageFor(dir, full)
			return r.registry.Register(full, pkg, dir)
		}
	}

	full := filepath.Join(r.baseDir, path)
	pkg, _ := resource.PackageFor(r.baseDir, full)
	return r.registry.Register(full, pkg, r.baseDir)
}

// describe fills the catalog-backed pattern of a finding when the symbol is known.
func describe(c *catalog.Catalog, f *findings.Finding) *findings.Finding {
	if ft, ok := c.Lookup(f.Type); ok {
		f.Pattern = ft.Pattern
		if f.Message == "" {
			f.Message = ft.Short
		}
	}
	return f
}
