package readers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/resource"
)

// writeFile creates path (and its parents) with content.
func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestFactory(t *testing.T, deps Deps) *Factory {
	t.Helper()
	f, err := NewFactory(deps)
	require.NoError(t, err)
	return f
}

// parseInto builds a reader for src, parses it and merges it into agg.
func parseInto(t *testing.T, f *Factory, src Source, agg *findings.Aggregate) Reader {
	t.Helper()
	r, err := f.New(src)
	require.NoError(t, err)
	require.NoError(t, r.Parse(src.Path))
	require.NoError(t, r.Merge(agg))
	return r
}

func mustLookup(t *testing.T, reg *resource.Registry, path string) *resource.ResourceInfo {
	t.Helper()
	res, ok := reg.Lookup(path)
	require.True(t, ok, "resource %s is not registered", path)
	return res
}

func findingTypes(list []*findings.Finding) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.Type)
	}
	return out
}
