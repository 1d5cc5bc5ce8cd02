package tools

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
)

// mockRankedIndex returns canned hits, one per configured position
type mockRankedIndex struct {
	id          int
	positions   []int
	searchError error
	closeError  error
	closed      atomic.Bool
	searches    atomic.Int32
}

func newMockRankedIndex(id int, positions ...int) *mockRankedIndex {
	return &mockRankedIndex{id: id, positions: positions}
}

func (m *mockRankedIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	m.searches.Add(1)
	if m.searchError != nil {
		return nil, m.searchError
	}

	hits := make(search.DocumentMatchCollection, 0, len(m.positions))
	for i, pos := range m.positions {
		if req.Size > 0 && i >= req.Size {
			break
		}
		hits = append(hits, &search.DocumentMatch{
			ID:    strconv.Itoa(pos),
			Score: float64(len(m.positions) - i),
		})
	}
	return &bleve.SearchResult{
		Request: req,
		Hits:    hits,
		Total:   uint64(len(m.positions)),
	}, nil
}

func (m *mockRankedIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return uint64(len(m.positions)), nil
}

func (m *mockRankedIndex) Close() error {
	if m.closed.Load() {
		return fmt.Errorf("already closed")
	}
	m.closed.Store(true)
	return m.closeError
}

// IsClosed returns true if the index has been closed
func (m *mockRankedIndex) IsClosed() bool {
	return m.closed.Load()
}
