package resource

import (
	"path/filepath"
	"strings"
)

// PackageFor derives the dotted package of path relative to root.
// A file directly inside root has an empty package. Paths outside root return ok == false.
func PackageFor(root, path string) (string, bool) {
	rel, err := filepath.Rel(normalize(root), normalize(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return "", true
	}
	return JoinPackage(strings.Split(filepath.ToSlash(dir), "/")...), true
}

// JoinPackage concatenates directory names with '.' separators, skipping empty segments.
func JoinPackage(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}
