package tools

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
)

// queryKey identifies a lookup. Generation changes on every snapshot swap,
// so results from an older index are never served.
type queryKey struct {
	generation uint64
	section    string
	query      string // Folded
	limit      int
}

// queryResult holds the first limit matching positions and the full match count
type queryResult struct {
	positions []int
	total     int
}

// queryCache is an LRU of lookup results. A nil cache caches nothing.
type queryCache struct {
	lru *lru.Cache[queryKey, queryResult]
}

func newQueryCache(size int) *queryCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[queryKey, queryResult](size)
	if err != nil {
		log.Printf("Warning: Query cache disabled: %v", err)
		return nil
	}
	return &queryCache{lru: c}
}

func (c *queryCache) get(k queryKey) (queryResult, bool) {
	if c == nil {
		return queryResult{}, false
	}
	return c.lru.Get(k)
}

func (c *queryCache) add(k queryKey, v queryResult) {
	if c == nil {
		return
	}
	c.lru.Add(k, v)
}

func (c *queryCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *queryCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
