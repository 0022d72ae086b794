package findings

import (
	"sort"
	"sync"

	"github.com/scan-io-git/scanio-merge/internal/resource"
)

// Aggregate maps each resource to the ordered list of findings merged for it.
// Every resource ever added has exactly one entry, even when its list is empty.
type Aggregate struct {
	mu      sync.Mutex
	entries map[*resource.ResourceInfo][]*Finding
	order   []*resource.ResourceInfo
}

// Entry is a read-only view of one aggregate row.
type Entry struct {
	Resource *resource.ResourceInfo
	Findings []*Finding
}

// NewAggregate creates an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		entries: make(map[*resource.ResourceInfo][]*Finding),
	}
}

// Add extends the list for res with items, creating the entry if needed.
// Existing findings are preserved and new ones are appended in the given order.
func (a *Aggregate) Add(res *resource.ResourceInfo, items ...*Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addLocked(res, items)
}

// AddAll folds a batch under one lock, following the given resource order.
func (a *Aggregate) AddAll(order []*resource.ResourceInfo, items map[*resource.ResourceInfo][]*Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, res := range order {
		a.addLocked(res, items[res])
	}
}

func (a *Aggregate) addLocked(res *resource.ResourceInfo, items []*Finding) {
	existing, ok := a.entries[res]
	if !ok {
		a.order = append(a.order, res)
		existing = make([]*Finding, 0, len(items))
	}
	a.entries[res] = append(existing, items...)
}

// Has reports whether res has an entry.
func (a *Aggregate) Has(res *resource.ResourceInfo) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.entries[res]
	return ok
}

// Findings returns a copy of the findings recorded for res.
func (a *Aggregate) Findings(res *resource.ResourceInfo) []*Finding {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, ok := a.entries[res]
	if !ok {
		return nil
	}
	out := make([]*Finding, len(list))
	copy(out, list)
	return out
}

// Len returns the number of resources in the aggregate.
func (a *Aggregate) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Total returns the number of findings over all resources.
func (a *Aggregate) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, list := range a.entries {
		total += len(list)
	}
	return total
}

// Entries returns every row sorted by resource path.
func (a *Aggregate) Entries() []Entry {
	a.mu.Lock()
	out := make([]Entry, 0, len(a.order))
	for _, res := range a.order {
		list := make([]*Finding, len(a.entries[res]))
		copy(list, a.entries[res])
		out = append(out, Entry{Resource: res, Findings: list})
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Resource.Path < out[j].Resource.Path
	})
	return out
}
