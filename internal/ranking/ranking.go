package ranking

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

const (
	// BatchSize is the number of documents submitted per bleve batch
	BatchSize = 100

	// StampFile is written next to the index directory and names the data it was built from
	StampFile = ".index_stamp"
)

// Document is the bleve representation of a search entry.
// Its bleve ID is the entry position in the symbol index.
type Document struct {
	Label   string `json:"label"`
	Key     string `json:"key"`
	Terms   string `json:"terms"` // Label and context split into words
	Context string `json:"context"`
	Target  string `json:"target"`
	Section string `json:"section"`
}

// NewDocument converts an entry
func NewDocument(e searchdata.Entry) Document {
	return Document{
		Label:   e.Label,
		Key:     e.Key,
		Terms:   SplitWords(e.Label + " " + e.Context),
		Context: e.Context,
		Target:  e.Target,
		Section: e.Section,
	}
}

// SplitWords breaks identifiers into words: "arm_mat_mult_q15" -> "arm mat mult q15",
// "fixed_storage_type::value_type()" -> "fixed storage type value type"
func SplitWords(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// NewMapping returns the index mapping for Documents
func NewMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	keyword := bleve.NewKeywordFieldMapping()
	stored := bleve.NewTextFieldMapping()
	stored.Index = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt("label", text)
	doc.AddFieldMappingsAt("terms", text)
	doc.AddFieldMappingsAt("context", text)
	doc.AddFieldMappingsAt("key", keyword)
	doc.AddFieldMappingsAt("section", keyword)
	doc.AddFieldMappingsAt("target", stored)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Stamp identifies the data an index was built from
func Stamp(idx *searchindex.Index) string {
	return fmt.Sprintf("v%d:%016x", searchdata.SchemaVersion, idx.Fingerprint())
}

// ReadStamp returns the stamp recorded for the index at indexPath, or "" when none
func ReadStamp(indexPath string) string {
	data, err := os.ReadFile(stampPath(indexPath))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func stampPath(indexPath string) string {
	return filepath.Join(filepath.Dir(indexPath), StampFile)
}

// Build writes a bleve index of idx to indexPath.
// The index is built in a temp directory and renamed into place, so a crash
// never leaves a half-written index at indexPath.
func Build(indexPath string, idx *searchindex.Index) error {
	startTime := time.Now()
	tempPath := indexPath + ".tmp"

	// Clean up any leftover temp index from a previous crash
	os.RemoveAll(tempPath)

	if err := os.MkdirAll(filepath.Dir(tempPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	newIndex, err := bleve.New(tempPath, NewMapping())
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}

	fail := func(err error) error {
		newIndex.Close()
		os.RemoveAll(tempPath)
		return err
	}

	batch := newIndex.NewBatch()
	for i, e := range idx.All() {
		if err := batch.Index(strconv.Itoa(i), NewDocument(e)); err != nil {
			return fail(fmt.Errorf("failed to add entry %d to batch: %w", i, err))
		}

		if batch.Size() >= BatchSize {
			if err := newIndex.Batch(batch); err != nil {
				return fail(fmt.Errorf("failed to index batch: %w", err))
			}
			batch = newIndex.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := newIndex.Batch(batch); err != nil {
			return fail(fmt.Errorf("failed to index final batch: %w", err))
		}
	}

	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempPath)
		return fmt.Errorf("failed to close temp index: %w", err)
	}

	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempPath, indexPath); err != nil {
		os.RemoveAll(tempPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	if err := os.WriteFile(stampPath(indexPath), []byte(Stamp(idx)), 0644); err != nil {
		log.Printf("Warning: Failed to write index stamp: %v", err)
	}

	log.Printf("Indexed %d entries in %v", idx.Len(), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// OpenOrBuild opens the index at indexPath when its stamp matches idx and
// rebuilds it otherwise
func OpenOrBuild(indexPath string, idx *searchindex.Index) (bleve.Index, error) {
	if ReadStamp(indexPath) == Stamp(idx) {
		index, err := bleve.Open(indexPath)
		if err == nil {
			return index, nil
		}
		log.Printf("Warning: Ranked index unreadable (%v), rebuilding...", err)
	}

	if err := Build(indexPath, idx); err != nil {
		return nil, err
	}
	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open new index: %w", err)
	}
	return index, nil
}

// NewQuery builds the ranked query for text, optionally restricted to a section.
// Label matches weigh most, then key prefixes, words, and context.
func NewQuery(text, section string) query.Query {
	label := bleve.NewMatchQuery(text)
	label.SetField("label")
	label.SetBoost(3)

	prefix := bleve.NewPrefixQuery(strings.ToLower(strings.TrimSpace(text)))
	prefix.SetField("key")
	prefix.SetBoost(2)

	terms := bleve.NewMatchQuery(SplitWords(text))
	terms.SetField("terms")

	context := bleve.NewMatchQuery(text)
	context.SetField("context")
	context.SetBoost(0.5)

	var q query.Query = bleve.NewDisjunctionQuery(label, prefix, terms, context)
	if section != "" {
		filter := bleve.NewTermQuery(section)
		filter.SetField("section")
		q = bleve.NewConjunctionQuery(q, filter)
	}
	return q
}

// NewSearchRequest wraps NewQuery with deterministic ordering: score, then document id
func NewSearchRequest(text, section string, size int) *bleve.SearchRequest {
	req := bleve.NewSearchRequest(NewQuery(text, section))
	req.Size = size
	req.SortBy([]string{"-_score", "_id"})
	return req
}
