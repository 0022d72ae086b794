package readers

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/resource"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

func walkTree(t *testing.T, f *Factory, dir string) *SourceReader {
	t.Helper()
	r, err := f.New(Source{Format: "source"})
	require.NoError(t, err)
	require.NoError(t, r.Parse(dir))
	return r.(*SourceReader)
}

func relPaths(t *testing.T, root string, list []*resource.ResourceInfo) []string {
	t.Helper()
	out := make([]string, 0, len(list))
	for _, res := range list {
		rel, err := filepath.Rel(root, res.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestSourceWalkSkipsVCSDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.src"), "a")
	writeFile(t, filepath.Join(root, "pkg", "B.src"), "b")
	writeFile(t, filepath.Join(root, ".svn", "ignored.src"), "x")
	writeFile(t, filepath.Join(root, "pkg", ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(root, "CVS", "Entries"), "")

	f := newTestFactory(t, Deps{BaseDir: root})
	r := walkTree(t, f, root)

	assert.Equal(t, root, r.Root())
	assert.Equal(t, []string{"A.src", "pkg/B.src"}, relPaths(t, root, r.Resources()))

	a := mustLookup(t, f.Registry(), filepath.Join(root, "A.src"))
	assert.Equal(t, "", a.Package)
	assert.Equal(t, root, a.SourceRoot)

	b := mustLookup(t, f.Registry(), filepath.Join(root, "pkg", "B.src"))
	assert.Equal(t, "pkg", b.Package)

	agg := findings.NewAggregate()
	require.NoError(t, r.Merge(agg))
	assert.Equal(t, 2, agg.Len())
	assert.Equal(t, 0, agg.Total())
}

func TestSourceWalkSynthesizesPackageDocs(t *testing.T) {
	root := t.TempDir()
	javaRoot := filepath.Join(root, "module", "src", "main", "java")
	writeFile(t, filepath.Join(javaRoot, "Top.java"), "")
	writeFile(t, filepath.Join(javaRoot, "com", "acme", "Foo.java"), "")
	writeFile(t, filepath.Join(javaRoot, "com", "acme", "util", "package-info.java"), "")
	writeFile(t, filepath.Join(javaRoot, "com", "acme", "util", "Strings.java"), "")
	writeFile(t, filepath.Join(root, "docs", "guide", "index.md"), "")

	f := newTestFactory(t, Deps{BaseDir: root})
	r := walkTree(t, f, root)

	assert.Equal(t, []string{
		"docs/guide/index.md",
		"module/src/main/java/Top.java",
		"module/src/main/java/com/acme/Foo.java",
		"module/src/main/java/com/acme/package-info.java",
		"module/src/main/java/com/acme/util/Strings.java",
		"module/src/main/java/com/acme/util/package-info.java",
		"module/src/main/java/com/package-info.java",
	}, relPaths(t, root, r.Resources()))

	doc := mustLookup(t, f.Registry(), filepath.Join(javaRoot, "com", "acme", "package-info.java"))
	assert.Equal(t, "module.src.main.java.com.acme", doc.Package)
	_, err := os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(err), "synthesized resources are never written to disk")
}

func TestSourceWalkCustomRootsAndDoc(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "net", "http.go"), "")
	writeFile(t, filepath.Join(root, "src", "main", "java", "a", "A.java"), "")

	f := newTestFactory(t, Deps{
		BaseDir: root,
		Walk:    WalkOptions{SourceRoots: []string{"lib/"}, PackageDoc: "doc.go"},
	})
	r := walkTree(t, f, root)

	assert.Equal(t, []string{
		"lib/net/doc.go",
		"lib/net/http.go",
		"src/main/java/a/A.java",
	}, relPaths(t, root, r.Resources()))
}

func TestSourceWalkExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Main.java"), "")
	writeFile(t, filepath.Join(root, "Main.class"), "")
	writeFile(t, filepath.Join(root, "build", "gen", "Gen.java"), "")
	writeFile(t, filepath.Join(root, "node_modules", "x", "index.js"), "")

	f := newTestFactory(t, Deps{
		BaseDir: root,
		Walk:    WalkOptions{Exclude: []string{"*.class", "build/", "  ", "node_modules"}},
	})
	r := walkTree(t, f, root)

	assert.Equal(t, []string{"Main.java"}, relPaths(t, root, r.Resources()))
}

func TestSourceWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, filepath.Join(t.TempDir(), "outside.txt"), "")
	writeFile(t, filepath.Join(root, "real.txt"), "")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.txt")))

	f := newTestFactory(t, Deps{BaseDir: root})
	r := walkTree(t, f, root)

	assert.Equal(t, []string{"real.txt"}, relPaths(t, root, r.Resources()))
}

func TestSourceWalkIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main", "java", "p", "P.java"), "")
	writeFile(t, filepath.Join(root, "README"), "")

	f := newTestFactory(t, Deps{BaseDir: root})
	first := walkTree(t, f, root)
	registered := f.Registry().Len()

	second := walkTree(t, f, root)
	assert.Equal(t, registered, f.Registry().Len())

	require.Len(t, first.Resources(), 3)
	assert.ElementsMatch(t, first.Resources(), second.Resources())

	one, two := findings.NewAggregate(), findings.NewAggregate()
	require.NoError(t, first.Merge(one))
	require.NoError(t, second.Merge(two))
	assert.Equal(t, one.Entries(), two.Entries())
}

func TestSourceWalkFromSourceRoot(t *testing.T) {
	root := t.TempDir()
	javaRoot := filepath.Join(root, "src", "main", "java")
	writeFile(t, filepath.Join(javaRoot, "com", "acme", "Foo.java"), "")

	f := newTestFactory(t, Deps{BaseDir: root})
	r := walkTree(t, f, javaRoot)

	assert.Equal(t, []string{
		"com/acme/Foo.java",
		"com/acme/package-info.java",
		"com/package-info.java",
	}, relPaths(t, javaRoot, r.Resources()))

	doc := mustLookup(t, f.Registry(), filepath.Join(javaRoot, "com", "acme", "package-info.java"))
	assert.Equal(t, "com.acme", doc.Package)
	assert.Equal(t, javaRoot, doc.SourceRoot)
}

func TestSourceWalkErrors(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "file.txt"), "")
	f := newTestFactory(t, Deps{BaseDir: root})

	r, err := f.New(Source{Format: "source"})
	require.NoError(t, err)

	var notDir *scerrors.NotADirectoryError
	assert.True(t, errors.As(r.Parse(file), &notDir))

	var notFound *scerrors.NotFoundError
	assert.True(t, errors.As(r.Parse(filepath.Join(root, "missing")), &notFound))

	assert.Error(t, r.Merge(findings.NewAggregate()))
}

func TestUnderSourceRoot(t *testing.T) {
	r := &SourceReader{roots: [][]string{{"src", "main", "java"}, {"lib"}}}

	tests := []struct {
		segments []string
		want     bool
	}{
		{segments: nil, want: false},
		{segments: []string{"src", "main", "java"}, want: false},
		{segments: []string{"src", "main", "java", "com"}, want: true},
		{segments: []string{"a", "src", "main", "java", "com", "x"}, want: true},
		{segments: []string{"src", "main", "kotlin", "com"}, want: false},
		{segments: []string{"lib"}, want: false},
		{segments: []string{"x", "lib", "y"}, want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.underSourceRoot(tt.segments), "%v", tt.segments)
	}
}
