package readers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-merge/internal/resource"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

// DefaultPackageDoc is the package documentation file synthesized under source roots.
const DefaultPackageDoc = "package-info.java"

// DefaultSourceRoots are used when no source roots are configured.
var DefaultSourceRoots = []string{"src/main/java"}

// vcsDirectories are never walked.
var vcsDirectories = map[string]bool{
	".svn":   true,
	".git":   true,
	".hg":    true,
	".bzr":   true,
	"CVS":    true,
	"_darcs": true,
}

// SourceReader walks a source directory and records every regular file with no findings,
// so the aggregate covers the whole tree and not only the files a tool mentioned.
type SourceReader struct {
	items
	registry   *resource.Registry
	logger     hclog.Logger
	roots      [][]string
	packageDoc string
	exclude    gitignore.Matcher

	root         string
	rootSegments []string
}

func newSourceReader(deps Deps) *SourceReader {
	opts := deps.Walk
	roots := opts.SourceRoots
	if len(roots) == 0 {
		roots = DefaultSourceRoots
	}
	packageDoc := opts.PackageDoc
	if packageDoc == "" {
		packageDoc = DefaultPackageDoc
	}

	var patterns []gitignore.Pattern
	for _, p := range opts.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, gitignore.ParsePattern(p, nil))
		}
	}

	r := &SourceReader{
		items:      newItems(FormatSource, nil),
		registry:   deps.Registry,
		logger:     deps.Logger.Named(string(FormatSource)),
		packageDoc: packageDoc,
		exclude:    gitignore.NewMatcher(patterns),
	}
	for _, root := range roots {
		if segs := splitSegments(root); len(segs) > 0 {
			r.roots = append(r.roots, segs)
		}
	}
	return r
}

// Parse walks dir recursively.
func (r *SourceReader) Parse(dir string) error {
	r.reset(dir)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return r.parseError(err)
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return scerrors.NewNotFoundError(dir)
	}
	if err != nil {
		return r.parseError(err)
	}
	if !info.IsDir() {
		return scerrors.NewNotADirectoryError(dir)
	}

	r.root = abs
	r.rootSegments = splitSegments(abs)
	if err := r.walk(abs, nil); err != nil {
		return err
	}

	r.logger.Info("source tree walked", "path", abs, "resources", len(r.order))
	r.done()
	return nil
}

// walk visits dir, whose path relative to the walk root is segments.
func (r *SourceReader) walk(dir string, segments []string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return r.parseError(err)
	}

	pkg := resource.JoinPackage(segments...)
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		rel := append(append([]string{}, segments...), name)

		switch {
		case entry.IsDir():
			if vcsDirectories[name] || r.exclude.Match(rel, true) {
				r.logger.Info("ignoring directory", "path", full)
				continue
			}
			if err := r.walk(full, rel); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if r.exclude.Match(rel, false) {
				r.logger.Debug("ignoring file", "path", full)
				continue
			}
			r.touch(r.registry.Register(full, pkg, r.root))
		default:
			r.logger.Debug("skipping non-regular file", "path", full, "mode", entry.Type().String())
		}
	}

	if r.underSourceRoot(append(append([]string{}, r.rootSegments...), segments...)) {
		doc := filepath.Join(dir, r.packageDoc)
		if _, ok := r.registry.Lookup(doc); !ok {
			r.logger.Debug("adding package documentation resource", "path", doc)
		}
		r.touch(r.registry.Register(doc, pkg, r.root))
	}
	return nil
}

// underSourceRoot reports whether the absolute directory segments lie strictly beneath
// one of the source roots, found anywhere in the path.
func (r *SourceReader) underSourceRoot(segments []string) bool {
	for _, root := range r.roots {
		for i := 0; i+len(root) < len(segments); i++ {
			if equalSegments(segments[i:i+len(root)], root) {
				return true
			}
		}
	}
	return false
}

// Root returns the absolute directory of the last walk.
func (r *SourceReader) Root() string {
	return r.root
}

func splitSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(filepath.ToSlash(p), "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
