package readers

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/resource"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

func TestMergeBeforeParseFails(t *testing.T) {
	f := newTestFactory(t, Deps{BaseDir: t.TempDir()})
	r, err := f.New(Source{Format: "checkstyle"})
	require.NoError(t, err)

	agg := findings.NewAggregate()
	err = r.Merge(agg)

	var parseErr *scerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 0, agg.Len())
}

func TestMergeAfterFailedParseFails(t *testing.T) {
	base := t.TempDir()
	report := writeFile(t, filepath.Join(base, "checkstyle.xml"), `<checkstyle><file name="A.src">`)
	f := newTestFactory(t, Deps{BaseDir: base})
	r, err := f.New(Source{Format: "checkstyle"})
	require.NoError(t, err)

	require.Error(t, r.Parse(report))
	assert.Error(t, r.Merge(findings.NewAggregate()))
}

func TestMergeConcatenatesInReaderOrder(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "pkg", "B.src"), "class B {}")
	first := writeFile(t, filepath.Join(base, "first.xml"), `<checkstyle>
  <file name="pkg/B.src">
    <error line="1" severity="error" message="one" source="checks.OneCheck"/>
    <error line="2" severity="error" message="two" source="checks.TwoCheck"/>
  </file>
</checkstyle>`)
	second := writeFile(t, filepath.Join(base, "second.xml"), `<issues>
  <issue file="pkg/B.src" line="3" type="three">three</issue>
</issues>`)

	f := newTestFactory(t, Deps{BaseDir: base})
	agg := findings.NewAggregate()
	parseInto(t, f, Source{Format: "checkstyle", Path: first}, agg)
	parseInto(t, f, Source{Format: "generic", Flavor: "custom", Path: second}, agg)

	res := mustLookup(t, f.Registry(), filepath.Join(base, "pkg", "B.src"))
	assert.Equal(t, []string{"One", "Two", "three"}, findingTypes(agg.Findings(res)))
	assert.Equal(t, 1, agg.Len())
}

func TestParseDoesNotTouchAggregate(t *testing.T) {
	base := t.TempDir()
	report := writeFile(t, filepath.Join(base, "checkstyle.xml"), `<checkstyle><file name="A.src"/></checkstyle>`)
	f := newTestFactory(t, Deps{BaseDir: base})
	agg := findings.NewAggregate()

	r, err := f.New(Source{Format: "checkstyle"})
	require.NoError(t, err)
	require.NoError(t, r.Parse(report))
	assert.Equal(t, 0, agg.Len())
	assert.Equal(t, 0, f.Registry().Len())

	require.NoError(t, r.Merge(agg))
	assert.Equal(t, 1, agg.Len())
	res := mustLookup(t, f.Registry(), filepath.Join(base, "A.src"))
	assert.True(t, agg.Has(res))
}

func TestResolver(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "src", "main", "java")
	writeFile(t, filepath.Join(srcDir, "com", "acme", "Foo.java"), "class Foo {}")
	reportDir := filepath.Join(base, "declared")
	writeFile(t, filepath.Join(reportDir, "org", "Bar.java"), "class Bar {}")

	reg := resource.NewRegistry()
	r := resolver{registry: reg, baseDir: base, sourceDirs: []string{srcDir}}

	tests := []struct {
		name     string
		path     string
		extra    []string
		wantPath string
		wantPkg  string
		wantRoot string
	}{
		{
			name:     "relative found in source dir",
			path:     "com/acme/Foo.java",
			wantPath: filepath.Join(srcDir, "com", "acme", "Foo.java"),
			wantPkg:  "com.acme",
			wantRoot: srcDir,
		},
		{
			name:     "relative found in report-declared dir",
			path:     "org/Bar.java",
			extra:    []string{reportDir},
			wantPath: filepath.Join(reportDir, "org", "Bar.java"),
			wantPkg:  "org",
			wantRoot: reportDir,
		},
		{
			name:     "relative missing falls back to base dir",
			path:     "lib/Missing.java",
			wantPath: filepath.Join(base, "lib", "Missing.java"),
			wantPkg:  "lib",
			wantRoot: base,
		},
		{
			name:     "absolute inside base dir",
			path:     filepath.Join(base, "tools", "Gen.java"),
			wantPath: filepath.Join(base, "tools", "Gen.java"),
			wantPkg:  "tools",
			wantRoot: base,
		},
		{
			name:     "absolute outside every root",
			path:     "/elsewhere/x/Y.java",
			wantPath: "/elsewhere/x/Y.java",
			wantPkg:  "",
			wantRoot: "/elsewhere/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.resolve(tt.path, tt.extra...)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.wantPkg, res.Package)
			assert.Equal(t, tt.wantRoot, res.SourceRoot)
		})
	}
}

func TestResolverKeepsFirstRegistration(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "src")
	path := writeFile(t, filepath.Join(srcDir, "a", "A.java"), "")

	reg := resource.NewRegistry()
	walked := reg.Register(path, "src.a", base)

	r := resolver{registry: reg, baseDir: base, sourceDirs: []string{srcDir}}
	got := r.resolve("a/A.java")

	assert.Same(t, walked, got)
	assert.Equal(t, "src.a", got.Package)
}
