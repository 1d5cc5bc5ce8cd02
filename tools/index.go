package tools

import "github.com/blevesearch/bleve/v2"

// RankedIndex abstracts the bleve operations search_documentation needs.
// Hit IDs are entry positions in the symbol index of the same snapshot.
type RankedIndex interface {
	// Search executes a search request
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)

	// DocCount returns the number of documents in the index
	DocCount() (uint64, error)

	// Close closes the index
	Close() error
}

// bleveRankedIndex wraps a bleve.Index to implement RankedIndex
type bleveRankedIndex struct {
	index bleve.Index
}

// NewBleveRankedIndex wraps a bleve.Index
func NewBleveRankedIndex(index bleve.Index) RankedIndex {
	return &bleveRankedIndex{index: index}
}

func (w *bleveRankedIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveRankedIndex) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveRankedIndex) Close() error {
	return w.index.Close()
}
