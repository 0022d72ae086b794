package sarif

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/scanio-merge/internal/git"
)

// SrcRootBaseID is the uriBaseId every relative artifact URI refers to.
const SrcRootBaseID = "%SRCROOT%"

// NormalisedSubfolder extracts and normalizes the subfolder from repository metadata.
// It returns the subfolder path with forward slashes and no leading/trailing slashes.
// Returns empty string if metadata is nil or subfolder is empty.
func NormalisedSubfolder(md *git.RepositoryMetadata) string {
	if md == nil {
		return ""
	}
	sub := strings.ReplaceAll(md.Subfolder, "\\", "/")
	return strings.Trim(sub, "/")
}

// PathWithin checks if a path is within another path (root).
// Returns true if path is within root, or if root is empty.
func PathWithin(path, root string) bool {
	if root == "" {
		return true
	}
	cleanPath, err1 := filepath.Abs(path)
	cleanRoot, err2 := filepath.Abs(root)
	if err1 != nil || err2 != nil {
		cleanPath = filepath.Clean(path)
		cleanRoot = filepath.Clean(root)
	}
	if cleanPath == cleanRoot {
		return true
	}
	rootWithSep := strings.TrimSuffix(cleanRoot, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(cleanPath, rootWithSep)
}

// ArtifactURI returns the URI of path for a SARIF artifact location.
// Paths under baseDir become escaped relative references resolved against SrcRootBaseID;
// anything else becomes an absolute file URI and relative is false.
func ArtifactURI(path, baseDir string) (uri string, relative bool) {
	if baseDir != "" && PathWithin(path, baseDir) {
		if rel, err := filepath.Rel(baseDir, path); err == nil && rel != "." {
			return (&url.URL{Path: filepath.ToSlash(rel)}).String(), true
		}
	}
	return FileURI(path, false), false
}

// FileURI returns the file:// URI of an absolute path, with a trailing slash for directories.
func FileURI(path string, dir bool) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if dir && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
