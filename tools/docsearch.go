package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/doxsearch/mcp-server/internal/config"
	"github.com/doxsearch/mcp-server/internal/ranking"
	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

const (
	maxResultsCap = 50
	indexDir      = "search/index"
	lockFile      = "search/index.lock"
)

var (
	dataDir  string // Data directory for search data and the ranked index
	settings = config.Default()
)

func init() {
	dataDir = defaultDataDir()
}

// defaultDataDir picks ~/.doxsearch-mcp, then a data/ directory next to the
// binary, then ./data
func defaultDataDir() string {
	// Strategy 1: user home directory (standalone installation)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, ".doxsearch-mcp")

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			return userDataDir
		}
		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			log.Printf("✓ Data directory created: %s", userDataDir)
			return userDataDir
		}
		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	// Strategy 2: relative to executable (plugin installation)
	if execPath, err := os.Executable(); err == nil {
		relativeDataDir := filepath.Join(filepath.Dir(execPath), "..", "data")
		if info, err := os.Stat(relativeDataDir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(relativeDataDir)
			return abs
		}
	}

	// Strategy 3: last resort fallback to current working directory
	log.Printf("⚠️  Data directory (fallback): ./data")
	return filepath.Join(".", "data")
}

// Configure applies a loaded configuration. Call it before RegisterDocSearchTools.
func Configure(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	settings = cfg
	if cfg.DataDir != "" {
		dataDir = cfg.DataDir
	}
	indexMgr = newIndexHolder(cfg.CacheSize)
	log.Printf("✓ Data directory: %s (%d sources)", dataDir, len(configuredSources()))
}

// snapshot is one loaded generation of the search data. It is never
// modified after it is published.
type snapshot struct {
	symbols    *searchindex.Index
	ranked     RankedIndex // nil when the ranked index could not be built
	stamp      string
	sources    []sourceSpan
	generation uint64
	loadedAt   time.Time
}

// source returns the span holding position pos
func (s *snapshot) source(pos int) sourceSpan {
	i := sort.Search(len(s.sources), func(i int) bool { return s.sources[i].end > pos })
	if i < len(s.sources) {
		return s.sources[i]
	}
	return sourceSpan{}
}

// indexHolder manages concurrent access to the current snapshot
type indexHolder struct {
	// current holds the active snapshot (atomic access for lock-free reads)
	current atomic.Pointer[snapshot]

	// refreshMu serializes reloads; lookups never take it
	refreshMu sync.Mutex

	// wg tracks in-flight searches for graceful cleanup of old ranked indexes
	wg sync.WaitGroup

	generation atomic.Uint64
	cache      *queryCache
}

var indexMgr = newIndexHolder(config.DefaultCacheSize)

func newIndexHolder(cacheSize int) *indexHolder {
	return &indexHolder{cache: newQueryCache(cacheSize)}
}

// publish makes next the current snapshot. The previous ranked index is
// closed in the background once in-flight searches finish, unless next
// shares it.
func (h *indexHolder) publish(next *snapshot) {
	next.generation = h.generation.Add(1)
	old := h.current.Swap(next)
	h.cache.purge()

	if old == nil || old.ranked == nil || old.ranked == next.ranked {
		return
	}

	go func(ranked RankedIndex) {
		waitStart := time.Now()

		// Wait for all in-flight searches on the old index to complete
		h.wg.Wait()

		if err := ranked.Close(); err != nil {
			log.Printf("Warning: Error closing old ranked index: %v", err)
		} else {
			log.Printf("✓ Old ranked index closed (waited %v)", time.Since(waitStart).Round(time.Millisecond))
		}
	}(old.ranked)
}

// InitializeDocSearch loads all sources and publishes the first snapshot
func InitializeDocSearch(ctx context.Context) error {
	startTime := time.Now()
	log.Printf("Initializing symbol search...")

	// refreshMu before the file lock, everywhere: the file lock is
	// reentrant within the process and does not serialize goroutines
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	if indexMgr.current.Load() != nil {
		return nil // Initialized concurrently
	}

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	defer releaseLock()

	if err := reload(ctx); err != nil {
		return err
	}

	snap := indexMgr.current.Load()
	log.Printf("✓ Symbol search initialized (%d entries, %d sources) in %v",
		snap.symbols.Len(), len(snap.sources), time.Since(startTime).Round(time.Millisecond))

	if needsRefresh() {
		log.Printf("ℹ️  Remote search data is older than %v. Consider using refresh_search_index tool to update.", settings.TTL())
	}
	return nil
}

// reload parses the sources on disk and publishes a new snapshot.
// Callers hold refreshMu.
func reload(ctx context.Context) error {
	symbols, spans, err := loadSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to load search data: %w", err)
	}

	next := &snapshot{
		symbols:  symbols,
		stamp:    ranking.Stamp(symbols),
		sources:  spans,
		loadedAt: time.Now(),
	}

	// Reuse the open ranked index when the data did not change
	if cur := indexMgr.current.Load(); cur != nil && cur.ranked != nil && cur.stamp == next.stamp {
		next.ranked = cur.ranked
	} else {
		index, err := ranking.OpenOrBuild(filepath.Join(dataDir, indexDir), symbols)
		if err != nil {
			log.Printf("Warning: Ranked search unavailable: %v", err)
		} else {
			next.ranked = NewBleveRankedIndex(index)
		}
	}

	indexMgr.publish(next)
	return nil
}

// reloadFromDisk re-reads local search data, used by the watcher
func reloadFromDisk(ctx context.Context) error {
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock for reload: %w", err)
	}
	defer releaseLock()

	return reload(ctx)
}

// refreshSearchIndex downloads remote sources when stale (or when forced) and
// reloads. It reports whether a new snapshot was published.
func refreshSearchIndex(ctx context.Context, force bool) (bool, error) {
	startTime := time.Now()

	if !force && !needsRefresh() {
		log.Printf("Search data is fresh, skipping refresh")
		return false, nil
	}

	// Serialize refresh operations
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Another goroutine may have refreshed while we were waiting
	if !force && !needsRefresh() {
		log.Printf("Search data was refreshed by another goroutine, skipping")
		return false, nil
	}

	log.Printf("Starting search data refresh (force=%v)...", force)

	if err := acquireLock(); err != nil {
		return false, fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}
	defer releaseLock()

	for _, s := range configuredSources() {
		if !s.Remote() || (!force && !sourceNeedsRefresh(s)) {
			continue
		}
		if _, err := fetchSource(ctx, s); err != nil {
			return false, fmt.Errorf("download of %s failed: %w", s.Name, err)
		}
		if err := writeFetchMeta(s); err != nil {
			log.Printf("Warning: Failed to write fetch metadata: %v", err)
		}
	}

	if err := reload(ctx); err != nil {
		return false, err
	}

	log.Printf("✓ Search data refresh completed in %v", time.Since(startTime).Round(time.Millisecond))
	return true, nil
}

// currentSnapshot returns the published snapshot, initializing on first use.
// Callers must have registered with indexMgr.wg.
func currentSnapshot(ctx context.Context) (*snapshot, error) {
	if snap := indexMgr.current.Load(); snap != nil {
		return snap, nil
	}

	log.Printf("Symbol index not initialized, initializing now...")
	if err := InitializeDocSearch(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize symbol index: %w", err)
	}
	snap := indexMgr.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("index still nil after initialization")
	}
	return snap, nil
}

func clampResults(n int) int {
	if n <= 0 {
		n = settings.MaxResults
	}
	if n <= 0 {
		n = config.DefaultMaxResults
	}
	return min(n, maxResultsCap)
}

// SymbolMatch is one index entry in tool output
type SymbolMatch struct {
	Label   string  `json:"label"`
	Context string  `json:"context,omitempty"`
	Section string  `json:"section,omitempty"`
	Target  string  `json:"target"`
	URL     string  `json:"url,omitempty"` // Target resolved against the source's docs URL
	Source  string  `json:"source"`
	Score   float64 `json:"score,omitempty"` // Set by search_documentation only
}

func newSymbolMatch(snap *snapshot, pos int, e searchdata.Entry) SymbolMatch {
	span := snap.source(pos)
	m := SymbolMatch{
		Label:   e.Label,
		Context: e.Context,
		Section: e.Section,
		Target:  e.Target,
		Source:  span.name,
	}
	if span.docsURL != "" {
		m.URL = resolveTarget(span.docsURL, e.Target)
	}
	return m
}

// LookupSymbolInput defines input for lookup_symbol tool
type LookupSymbolInput struct {
	Query      string `json:"query" jsonschema:"Case-insensitive substring of the symbol name; empty lists every entry"`
	Section    string `json:"section,omitempty" jsonschema:"Restrict to one section, e.g. functions or typedefs (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

// LookupSymbolOutput defines output for lookup_symbol tool
type LookupSymbolOutput struct {
	Query        string        `json:"query"`
	Section      string        `json:"section,omitempty"`
	Results      []SymbolMatch `json:"results"`
	TotalMatches int           `json:"total_matches"`
	Truncated    bool          `json:"truncated"`
}

// LookupSymbol returns entries whose label contains the query, in index order
func LookupSymbol(ctx context.Context, req *mcp.CallToolRequest, input LookupSymbolInput) (*mcp.CallToolResult, LookupSymbolOutput, error) {
	// Track in-flight searches for graceful cleanup (MUST be before Load)
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	snap, err := currentSnapshot(ctx)
	if err != nil {
		return nil, LookupSymbolOutput{}, err
	}

	limit := clampResults(input.MaxResults)
	key := queryKey{
		generation: snap.generation,
		section:    input.Section,
		query:      searchdata.Fold(input.Query),
		limit:      limit,
	}
	result, ok := indexMgr.cache.get(key)
	if !ok {
		result = matchPositions(snap.symbols, input.Section, input.Query, limit)
		indexMgr.cache.add(key, result)
	}

	output := LookupSymbolOutput{
		Query:        input.Query,
		Section:      input.Section,
		Results:      make([]SymbolMatch, 0, len(result.positions)),
		TotalMatches: result.total,
		Truncated:    result.total > len(result.positions),
	}
	for _, pos := range result.positions {
		e, _ := snap.symbols.At(pos)
		output.Results = append(output.Results, newSymbolMatch(snap, pos, e))
	}

	return nil, output, nil
}

// matchPositions keeps the first limit matches and counts all of them
func matchPositions(idx *searchindex.Index, section, query string, limit int) queryResult {
	result := queryResult{positions: []int{}}
	for pos := range idx.Positions(section, query) {
		if len(result.positions) < limit {
			result.positions = append(result.positions, pos)
		}
		result.total++
	}
	return result
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Words to search for in symbol names and scopes"`
	Section    string `json:"section,omitempty" jsonschema:"Restrict to one section (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Query     string        `json:"query"`
	Results   []SymbolMatch `json:"results"`
	TotalHits int           `json:"total_hits"`
}

// SearchDocumentation runs a relevance-ranked search over the index
func SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	if input.Query == "" {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("query is required")
	}

	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	snap, err := currentSnapshot(ctx)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}
	if snap.ranked == nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("ranked index unavailable, use lookup_symbol")
	}

	searchResults, err := snap.ranked.Search(ranking.NewSearchRequest(input.Query, input.Section, clampResults(input.MaxResults)))
	if err != nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("search failed: %w", err)
	}

	return nil, rankedOutput(snap, input.Query, searchResults), nil
}

// rankedOutput maps bleve hits back to index entries
func rankedOutput(snap *snapshot, query string, searchResults *bleve.SearchResult) SearchDocumentationOutput {
	output := SearchDocumentationOutput{
		Query:     query,
		Results:   make([]SymbolMatch, 0, len(searchResults.Hits)),
		TotalHits: int(searchResults.Total),
	}
	for _, hit := range searchResults.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		e, ok := snap.symbols.At(pos)
		if !ok {
			continue
		}
		match := newSymbolMatch(snap, pos, e)
		match.Score = hit.Score
		output.Results = append(output.Results, match)
	}
	return output
}

// RefreshSearchIndexInput defines input for refresh_search_index tool
type RefreshSearchIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Re-download and re-index even if the data is fresh (optional, defaults to false)"`
}

// RefreshSearchIndexOutput defines output for refresh_search_index tool
type RefreshSearchIndexOutput struct {
	Updated        bool      `json:"updated"`
	LastUpdate     time.Time `json:"last_update,omitzero"`
	EntriesIndexed int       `json:"entries_indexed"`
	Generation     uint64    `json:"generation"`
	Message        string    `json:"message"`
}

// RefreshSearchIndex downloads stale remote sources and reloads the index
func RefreshSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshSearchIndexInput) (*mcp.CallToolResult, RefreshSearchIndexOutput, error) {
	updated, err := refreshSearchIndex(ctx, input.Force)
	if err != nil {
		return nil, RefreshSearchIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	output := RefreshSearchIndexOutput{Updated: updated}
	if t, ok := lastFetch(); ok {
		output.LastUpdate = t
	}
	if snap := indexMgr.current.Load(); snap != nil {
		output.EntriesIndexed = snap.symbols.Len()
		output.Generation = snap.generation
	}

	switch {
	case updated:
		output.Message = fmt.Sprintf("Search index reloaded, %d entries indexed", output.EntriesIndexed)
	case !hasRemoteSources():
		output.Message = "No remote sources configured; use force to reload local data"
	default:
		output.Message = fmt.Sprintf("Search data is fresh (last updated: %s)", output.LastUpdate.Format(time.RFC3339))
	}

	return nil, output, nil
}

// RegisterDocSearchTools registers the symbol search tools
func RegisterDocSearchTools(server *mcp.Server) error {
	// Initialize synchronously so the first call is fast
	if err := InitializeDocSearch(context.Background()); err != nil {
		log.Printf("Warning: Symbol search initialization failed: %v", err)
		log.Printf("Symbol search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lookup_symbol",
			Description: "Find documented symbols (functions, types, members, modules) whose name contains the query, case-insensitive. Returns matches in index order with their documentation links.",
		},
		LookupSymbol,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Relevance-ranked full-text search over symbol names and their scopes. Use when the exact name is unknown.",
		},
		SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_search_index",
			Description: "Re-download remote search data and rebuild the index (auto-suggested when the data is older than the cache TTL)",
		},
		RefreshSearchIndex,
	)

	return nil
}

// CloseDocSearch closes the ranked index and releases the lock
func CloseDocSearch() error {
	var closeErr error

	// Atomically swap to nil (prevents new searches)
	if snap := indexMgr.current.Swap(nil); snap != nil && snap.ranked != nil {
		log.Printf("Waiting for in-flight searches to complete before closing...")
		indexMgr.wg.Wait()

		closeErr = snap.ranked.Close()
		if closeErr != nil {
			log.Printf("Error closing ranked index: %v", closeErr)
		} else {
			log.Printf("✓ Ranked index closed successfully")
		}
	}

	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
