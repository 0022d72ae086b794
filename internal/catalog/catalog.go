package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/beevik/etree"

	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

//go:embed descriptors/*.xml
var bundled embed.FS

// Tool families with a bundled descriptor file.
const (
	FamilyCheckstyle = "checkstyle"
	FamilyFindbugs   = "findbugs"
	FamilyCPD        = "cpd"
	FamilyEmma       = "emma"
	FamilyCobertura  = "cobertura"
)

// FindingType describes one class of finding a tool can report.
type FindingType struct {
	Symbol      string
	Short       string
	Description string
	Pattern     string
}

// Catalog is the read-only set of finding types of one tool family.
type Catalog struct {
	Family string
	types  map[string]FindingType
}

// Lookup returns the finding type for symbol.
func (c *Catalog) Lookup(symbol string) (FindingType, bool) {
	if c == nil {
		return FindingType{}, false
	}
	ft, ok := c.types[symbol]
	return ft, ok
}

// Symbols returns every symbol in the catalog, sorted.
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.types))
	for s := range c.types {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of finding types.
func (c *Catalog) Len() int {
	return len(c.types)
}

type entry struct {
	once    sync.Once
	catalog *Catalog
	err     error
}

// Store loads each family's catalog at most once and shares it between readers.
type Store struct {
	fsys fs.FS
	root string

	mu       sync.Mutex
	families map[string]*entry
}

// NewStore returns a Store reading descriptors from dir, or the bundled ones when dir is empty.
func NewStore(dir string) *Store {
	s := &Store{families: make(map[string]*entry)}
	if dir == "" {
		s.fsys = bundled
		s.root = "descriptors"
	} else {
		s.fsys = os.DirFS(dir)
		s.root = "."
	}
	return s
}

// Family returns the catalog of a tool family, loading it on first use.
// A failed load is remembered and returned to every later caller.
func (s *Store) Family(name string) (*Catalog, error) {
	s.mu.Lock()
	e, ok := s.families[name]
	if !ok {
		e = &entry{}
		s.families[name] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.catalog, e.err = s.load(name)
	})
	return e.catalog, e.err
}

func (s *Store) load(name string) (*Catalog, error) {
	file := name + ".xml"
	if s.root != "." {
		file = s.root + "/" + file
	}

	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return nil, scerrors.NewCatalogError(name, err)
	}

	c, err := Parse(name, data)
	if err != nil {
		return nil, scerrors.NewCatalogError(name, err)
	}
	return c, nil
}

// Parse decodes a descriptor document: a root collection of <pattern> records.
func Parse(family string, data []byte) (*Catalog, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("malformed descriptor: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("descriptor has no root element")
	}

	c := &Catalog{
		Family: family,
		types:  make(map[string]FindingType),
	}
	for _, el := range root.SelectElements("pattern") {
		symbol := el.SelectAttrValue("symbol", "")
		if symbol == "" {
			return nil, fmt.Errorf("pattern without symbol at %s", el.GetPath())
		}
		if _, dup := c.types[symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", symbol)
		}
		c.types[symbol] = FindingType{
			Symbol:      symbol,
			Short:       el.SelectAttrValue("short", ""),
			Description: childText(el, "description"),
			Pattern:     childText(el, "message"),
		}
	}
	return c, nil
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}
