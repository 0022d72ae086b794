package merger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/scan-io-git/scanio-merge/internal/readers"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newMerger(t *testing.T, base string, jobs int) (*Merger, *readers.Factory) {
	t.Helper()
	f, err := readers.NewFactory(readers.Deps{BaseDir: base})
	require.NoError(t, err)
	return New(f, jobs, nil), f
}

func checkstyleReport(file string, sources ...string) string {
	out := `<checkstyle><file name="` + file + `">`
	for i, s := range sources {
		out += fmt.Sprintf(`<error line="%d" severity="warning" message="m%d" source="%s"/>`, i+1, i+1, s)
	}
	return out + `</file></checkstyle>`
}

func TestRunMergesSourceTreeAndReport(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree := t.TempDir()
	writeFile(t, filepath.Join(tree, "A.src"), "a")
	writeFile(t, filepath.Join(tree, "pkg", "B.src"), "b")
	writeFile(t, filepath.Join(tree, ".svn", "ignored.src"), "x")
	report := writeFile(t, filepath.Join(t.TempDir(), "checkstyle.xml"),
		checkstyleReport("pkg/B.src", "com.puppycrawl.tools.checkstyle.checks.coding.MagicNumberCheck"))

	m, f := newMerger(t, tree, 2)
	result, err := m.Run(context.Background(), []readers.Source{
		{Path: report, Format: "checkstyle"},
		{Path: tree, Format: "source"},
	})
	require.NoError(t, err)

	agg := result.Aggregate
	require.Equal(t, 2, agg.Len())

	a, ok := f.Registry().Lookup(filepath.Join(tree, "A.src"))
	require.True(t, ok)
	assert.Empty(t, agg.Findings(a))

	b, ok := f.Registry().Lookup(filepath.Join(tree, "pkg", "B.src"))
	require.True(t, ok)
	got := agg.Findings(b)
	require.Len(t, got, 1)
	assert.Equal(t, "MagicNumber", got[0].Type)

	assert.Equal(t, "pkg", b.Package)
	assert.Equal(t, tree, b.SourceRoot)

	require.Len(t, result.Launches, 2)
	assert.Equal(t, StatusOK, result.Launches[0].Status)
	assert.Equal(t, 1, result.Launches[0].Resources)
	assert.Equal(t, StatusOK, result.Launches[1].Status)
	assert.Equal(t, 2, result.Launches[1].Resources)
}

func TestRunMergesInConfiguredOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	reports := t.TempDir()
	var sources []readers.Source
	var want []string
	for i := 0; i < 8; i++ {
		symbol := fmt.Sprintf("Rule%d", i)
		path := writeFile(t, filepath.Join(reports, fmt.Sprintf("r%d.xml", i)),
			checkstyleReport("Shared.java", "checks."+symbol+"Check"))
		sources = append(sources, readers.Source{Path: path, Format: "checkstyle"})
		want = append(want, symbol)
	}

	for run := 0; run < 5; run++ {
		m, f := newMerger(t, base, 4)
		result, err := m.Run(context.Background(), sources)
		require.NoError(t, err)

		res, ok := f.Registry().Lookup(filepath.Join(base, "Shared.java"))
		require.True(t, ok)

		var got []string
		for _, finding := range result.Aggregate.Findings(res) {
			got = append(got, finding.Type)
		}
		assert.Equal(t, want, got, "run %d", run)
	}
}

func TestRunFirstConfiguredSourceDecidesPackage(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	module := filepath.Join(base, "module")
	srcDir := filepath.Join(module, "src")
	foo := writeFile(t, filepath.Join(srcDir, "com", "acme", "Foo.java"), "class Foo {}")

	reports := t.TempDir()
	findbugs := readers.Source{Format: "findbugs", Path: writeFile(t, filepath.Join(reports, "findbugs.xml"), `<BugCollection>
  <Project><SrcDir>`+srcDir+`</SrcDir></Project>
  <BugInstance type="DLS_DEAD_LOCAL_STORE" priority="2">
    <SourceLine classname="com.acme.Foo" sourcepath="com/acme/Foo.java" start="3" end="3"/>
  </BugInstance>
</BugCollection>`)}
	cobertura := readers.Source{Format: "cobertura", Path: writeFile(t, filepath.Join(reports, "coverage.xml"), `<coverage>
  <sources><source>`+module+`</source></sources>
  <packages><package name="com.acme"><classes>
    <class name="com.acme.Foo" filename="src/com/acme/Foo.java" line-rate="0.5"/>
  </classes></package></packages>
</coverage>`)}

	tests := []struct {
		name    string
		sources []readers.Source
		pkg     string
		root    string
	}{
		{name: "findbugs first", sources: []readers.Source{findbugs, cobertura}, pkg: "com.acme", root: srcDir},
		{name: "cobertura first", sources: []readers.Source{cobertura, findbugs}, pkg: "src.com.acme", root: module},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for run := 0; run < 10; run++ {
				m, f := newMerger(t, base, 4)
				result, err := m.Run(context.Background(), tt.sources)
				require.NoError(t, err)

				res, ok := f.Registry().Lookup(foo)
				require.True(t, ok)
				assert.Equal(t, tt.pkg, res.Package, "run %d", run)
				assert.Equal(t, tt.root, res.SourceRoot, "run %d", run)
				assert.Equal(t, 1, result.Aggregate.Len())
				assert.Len(t, result.Aggregate.Findings(res), 2)
			}
		})
	}
}

func TestRunFailsOnFirstBrokenSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	good := writeFile(t, filepath.Join(base, "good.xml"), checkstyleReport("A.java", "checks.NeedBracesCheck"))

	m, _ := newMerger(t, base, 3)
	result, err := m.Run(context.Background(), []readers.Source{
		{Path: good, Format: "checkstyle"},
		{Path: filepath.Join(base, "missing.xml"), Format: "findbugs"},
	})
	assert.Nil(t, result)

	var notFound *scerrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, err.Error(), "findbugs=")
}

func TestRunRejectsUnsupportedFormatBeforeParsing(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, _ := newMerger(t, t.TempDir(), 1)
	_, err := m.Run(context.Background(), []readers.Source{
		{Path: "missing.xml", Format: "checkstyle"},
		{Path: "pmd.xml", Format: "pmd"},
	})

	var unsupported *scerrors.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "pmd", unsupported.Tag)
}

func TestRunWalkErrors(t *testing.T) {
	base := t.TempDir()
	file := writeFile(t, filepath.Join(base, "file.txt"), "")

	m, _ := newMerger(t, base, 1)
	_, err := m.Run(context.Background(), []readers.Source{{Path: file, Format: "source"}})

	var notDir *scerrors.NotADirectoryError
	assert.True(t, errors.As(err, &notDir))
}

func TestRunCanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	report := writeFile(t, filepath.Join(base, "r.xml"), checkstyleReport("A.java"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, _ := newMerger(t, base, 2)
	_, err := m.Run(ctx, []readers.Source{{Path: report, Format: "checkstyle"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithoutSources(t *testing.T) {
	m, _ := newMerger(t, t.TempDir(), 0)
	assert.Equal(t, 1, m.jobs)

	_, err := m.Run(context.Background(), nil)
	assert.Error(t, err)
}
