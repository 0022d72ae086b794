package resource

import (
	"path/filepath"
	"sort"
	"sync"
)

// ResourceInfo is the canonical identity of one source file.
// Instances are created by a Registry and never modified afterwards.
type ResourceInfo struct {
	Path       string // Absolute, cleaned path; unique key
	Package    string // Dotted package derived from directory nesting
	SourceRoot string // Root the package was derived against
}

// Registry holds exactly one ResourceInfo per absolute path.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]*ResourceInfo
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]*ResourceInfo),
	}
}

// Register returns the canonical ResourceInfo for path, creating it on first use.
// The package and source root of the first registration win; later calls never overwrite them.
func (r *Registry) Register(path, pkg, sourceRoot string) *ResourceInfo {
	key := normalize(path)

	r.mu.RLock()
	info, ok := r.resources[key]
	r.mu.RUnlock()
	if ok {
		return info
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another goroutine may have won the race between the two locks
	if info, ok := r.resources[key]; ok {
		return info
	}
	info = &ResourceInfo{
		Path:       key,
		Package:    pkg,
		SourceRoot: normalizeRoot(sourceRoot),
	}
	r.resources[key] = info
	return info
}

// Lookup returns the ResourceInfo registered for path, if any. It never creates one.
func (r *Registry) Lookup(path string) (*ResourceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.resources[normalize(path)]
	return info, ok
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Resources returns every registered resource sorted by path.
func (r *Registry) Resources() []*ResourceInfo {
	r.mu.RLock()
	out := make([]*ResourceInfo, 0, len(r.resources))
	for _, info := range r.resources {
		out = append(out, info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func normalizeRoot(root string) string {
	if root == "" {
		return ""
	}
	return normalize(root)
}
