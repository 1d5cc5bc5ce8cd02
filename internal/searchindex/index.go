package searchindex

import (
	"iter"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/doxsearch/mcp-server/internal/searchdata"
)

// Index is an immutable, ordered collection of search entries
type Index struct {
	entries     []searchdata.Entry
	folded      []string // Folded labels, parallel to entries
	catalog     *searchdata.Catalog
	fingerprint uint64
}

// SectionCount reports how many entries an index holds for one section
type SectionCount struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Entries int    `json:"entries"`
}

// Load concatenates the entries of all files, in argument order, into one index
func Load(files ...*searchdata.File) *Index {
	total := 0
	for _, f := range files {
		if f != nil {
			total += len(f.Entries)
		}
	}

	entries := make([]searchdata.Entry, 0, total)
	for _, f := range files {
		if f != nil {
			entries = append(entries, f.Entries...)
		}
	}
	return New(entries)
}

// New builds an index over entries. The slice is copied.
func New(entries []searchdata.Entry) *Index {
	idx := &Index{
		entries: make([]searchdata.Entry, len(entries)),
		folded:  make([]string, len(entries)),
	}
	copy(idx.entries, entries)

	h := xxhash.New()
	for i, e := range idx.entries {
		idx.folded[i] = searchdata.Fold(e.Label)

		h.Write([]byte(e.Label))
		h.Write([]byte{0})
		h.Write([]byte(e.Target))
		h.Write([]byte{0})
		h.Write([]byte(e.Context))
		h.Write([]byte{0})
		h.Write([]byte(e.Key))
		h.Write([]byte{0})
		h.Write([]byte(e.Section))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatBool(e.Direct)))
		h.Write([]byte{1})
	}
	idx.fingerprint = h.Sum64()

	return idx
}

// Concat joins indexes in argument order. The first catalog found is kept.
func Concat(parts ...*Index) *Index {
	var entries []searchdata.Entry
	var catalog *searchdata.Catalog
	for _, p := range parts {
		if p == nil {
			continue
		}
		entries = append(entries, p.entries...)
		if catalog == nil {
			catalog = p.catalog
		}
	}
	idx := New(entries)
	idx.catalog = catalog
	return idx
}

// Len returns the number of entries
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// At returns the entry at position i
func (idx *Index) At(i int) (searchdata.Entry, bool) {
	if idx == nil || i < 0 || i >= len(idx.entries) {
		return searchdata.Entry{}, false
	}
	return idx.entries[i], true
}

// All yields every entry with its position, in insertion order
func (idx *Index) All() iter.Seq2[int, searchdata.Entry] {
	return func(yield func(int, searchdata.Entry) bool) {
		if idx == nil {
			return
		}
		for i, e := range idx.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Query yields the entries whose label contains q, ignoring case.
// The sequence is lazy and can be ranged over any number of times.
func (idx *Index) Query(q string) iter.Seq[searchdata.Entry] {
	return idx.QuerySection("", q)
}

// QuerySection is Query restricted to one section; an empty section means all
func (idx *Index) QuerySection(section, q string) iter.Seq[searchdata.Entry] {
	positions := idx.Positions(section, q)
	return func(yield func(searchdata.Entry) bool) {
		for i := range positions {
			if !yield(idx.entries[i]) {
				return
			}
		}
	}
}

// Positions yields the positions of the entries QuerySection would yield
func (idx *Index) Positions(section, q string) iter.Seq[int] {
	needle := searchdata.Fold(q)
	return func(yield func(int) bool) {
		if idx == nil {
			return
		}
		for i, label := range idx.folded {
			if section != "" && idx.entries[i].Section != section {
				continue
			}
			if strings.Contains(label, needle) && !yield(i) {
				return
			}
		}
	}
}

// Sections returns per-section entry counts, in catalog order when the index
// was loaded with a catalog, then in order of first appearance
func (idx *Index) Sections() []SectionCount {
	if idx == nil {
		return nil
	}

	counts := make(map[string]int)
	var seen []string
	for _, e := range idx.entries {
		if _, ok := counts[e.Section]; !ok {
			seen = append(seen, e.Section)
		}
		counts[e.Section]++
	}

	out := make([]SectionCount, 0, len(seen))
	if idx.catalog != nil {
		for _, s := range idx.catalog.Sections {
			if n, ok := counts[s.Name]; ok {
				out = append(out, SectionCount{Name: s.Name, Label: s.Label, Entries: n})
				delete(counts, s.Name)
			}
		}
	}
	for _, name := range seen {
		if n, ok := counts[name]; ok {
			out = append(out, SectionCount{Name: name, Label: idx.catalog.Label(name), Entries: n})
		}
	}
	return out
}

// Catalog returns the section catalog the index was loaded with, if any
func (idx *Index) Catalog() *searchdata.Catalog {
	if idx == nil {
		return nil
	}
	return idx.catalog
}

// Fingerprint is a content hash of the entries; equal indexes share it
func (idx *Index) Fingerprint() uint64 {
	if idx == nil {
		return 0
	}
	return idx.fingerprint
}

// Collect drains seq into a slice, stopping after limit entries when limit > 0
func Collect(seq iter.Seq[searchdata.Entry], limit int) []searchdata.Entry {
	out := []searchdata.Entry{}
	for e := range seq {
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
