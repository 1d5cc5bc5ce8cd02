package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/doxsearch/mcp-server/internal/config"
	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

const (
	defaultSourceName = "default"
	embeddedSearchDir = "data/searchdata"
	searchDataDir     = "searchdata"
	fetchMetaExt      = ".meta"

	fetchTimeout = 30 * time.Second
	fetchWorkers = 8
)

var (
	httpClient      = &http.Client{Timeout: fetchTimeout}
	errNotFound     = errors.New("not found")
	maxDownloadSize = 64 << 20 // Per file
)

// sourceSpan records which index positions came from which source
type sourceSpan struct {
	name    string
	docsURL string
	start   int
	end     int // Exclusive
}

// configuredSources returns the configured sources, or the embedded default
func configuredSources() []config.Source {
	if len(settings.Sources) > 0 {
		return settings.Sources
	}
	return []config.Source{{Name: defaultSourceName}}
}

// hasRemoteSources reports whether any source is downloaded
func hasRemoteSources() bool {
	for _, s := range configuredSources() {
		if s.Remote() {
			return true
		}
	}
	return false
}

// sourceDir returns the local directory a source is loaded from
func sourceDir(s config.Source) string {
	if s.Path != "" {
		return s.Path
	}
	return filepath.Join(dataDir, searchDataDir, s.Name)
}

// docsBase returns the URL relative targets of a source resolve against
func docsBase(s config.Source) string {
	if s.DocsURL != "" {
		return s.DocsURL
	}
	return s.URL
}

// loadSources parses every source into one index. A source that fails to load
// is skipped with a warning; the call fails only when none loads.
func loadSources(ctx context.Context) (*searchindex.Index, []sourceSpan, error) {
	var (
		parts  []*searchindex.Index
		spans  []sourceSpan
		errs   []error
		offset int
	)

	for _, s := range configuredSources() {
		idx, err := loadSource(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Printf("Warning: Skipping source %s: %v", s.Name, err)
			errs = append(errs, fmt.Errorf("source %s: %w", s.Name, err))
			continue
		}

		spans = append(spans, sourceSpan{
			name:    s.Name,
			docsURL: docsBase(s),
			start:   offset,
			end:     offset + idx.Len(),
		})
		offset += idx.Len()
		parts = append(parts, idx)
	}

	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("no source could be loaded: %w", errors.Join(errs...))
	}
	return searchindex.Concat(parts...), spans, nil
}

func loadSource(ctx context.Context, s config.Source) (*searchindex.Index, error) {
	dir := sourceDir(s)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		switch {
		case s.Remote():
			if _, err := fetchSource(ctx, s); err != nil {
				return nil, err
			}
			if err := writeFetchMeta(s); err != nil {
				log.Printf("Warning: Failed to write fetch metadata: %v", err)
			}
		case s.Path == "":
			if err := extractEmbeddedData(dir); err != nil {
				return nil, err
			}
		}
	}

	startTime := time.Now()
	idx, err := searchindex.LoadFS(ctx, os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d entries from %s in %v", idx.Len(), dir, time.Since(startTime).Round(time.Millisecond))
	return idx, nil
}

// extractEmbeddedData writes the embedded search directory to dir
func extractEmbeddedData(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create search data directory: %w", err)
	}
	if err := extractEmbeddedDir(embeddedSearchDir, dir); err != nil {
		return fmt.Errorf("failed to extract embedded search data: %w", err)
	}
	log.Printf("✓ Embedded search data extracted to %s", dir)
	return nil
}

// extractEmbeddedDir recursively extracts files from embedded FS to local filesystem
func extractEmbeddedDir(embedPath, localPath string) error {
	entries, err := defaultDataProvider.ReadDir(embedPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", embedPath, err)
	}

	for _, entry := range entries {
		embeddedFile := path.Join(embedPath, entry.Name())
		localFile := filepath.Join(localPath, entry.Name())

		if entry.IsDir() {
			if err := os.MkdirAll(localFile, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", localFile, err)
			}
			if err := extractEmbeddedDir(embeddedFile, localFile); err != nil {
				return err
			}
			continue
		}

		data, err := defaultDataProvider.ReadFile(embeddedFile)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %s: %w", embeddedFile, err)
		}
		if err := os.WriteFile(localFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", localFile, err)
		}
	}

	return nil
}

// fetchSource downloads a remote search directory: searchdata.js first, then
// one file per bucket the catalog declares. The download lands in a temp
// directory that replaces the old copy only when complete.
func fetchSource(ctx context.Context, s config.Source) (int, error) {
	startTime := time.Now()
	base := strings.TrimSuffix(s.URL, "/") + "/"
	log.Printf("Downloading search data for %s from %s", s.Name, base)

	catalogData, err := download(ctx, base+searchdata.CatalogFile)
	if err != nil {
		return 0, err
	}
	catalog, err := searchdata.ParseCatalog(searchdata.CatalogFile, catalogData)
	if err != nil {
		return 0, fmt.Errorf("failed to parse section catalog: %w", err)
	}

	dir := sourceDir(s)
	tempDir := dir + ".tmp"
	os.RemoveAll(tempDir)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, searchdata.CatalogFile), catalogData, 0644); err != nil {
		os.RemoveAll(tempDir)
		return 0, fmt.Errorf("failed to write section catalog: %w", err)
	}

	var fetched atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)
	for _, name := range bucketFiles(catalog) {
		g.Go(func() error {
			data, err := download(gctx, base+name)
			if errors.Is(err, errNotFound) {
				log.Printf("Warning: %s missing from %s", name, s.Name)
				return nil
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(tempDir, name), data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			fetched.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		os.RemoveAll(tempDir)
		return 0, err
	}

	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempDir)
		return 0, fmt.Errorf("failed to remove old search data: %w", err)
	}
	if err := os.Rename(tempDir, dir); err != nil {
		os.RemoveAll(tempDir)
		return 0, fmt.Errorf("failed to move search data into place: %w", err)
	}

	log.Printf("✓ Downloaded %d search files for %s in %v", fetched.Load(), s.Name, time.Since(startTime).Round(time.Millisecond))
	return int(fetched.Load()), nil
}

// bucketFiles lists the data files a catalog implies: one per character of
// each section's content string, numbered in hex
func bucketFiles(catalog *searchdata.Catalog) []string {
	var names []string
	for _, section := range catalog.Sections {
		n := utf8.RuneCountInString(section.Buckets)
		for i := 0; i < n; i++ {
			names = append(names, fmt.Sprintf("%s_%x.js", section.Name, i))
		}
	}
	return names
}

func download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download of %s failed with status: %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxDownloadSize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("%s: response too large (over %d bytes)", rawURL, maxDownloadSize)
	}
	return data, nil
}

// needsRefresh reports whether any remote source is older than the cache TTL
func needsRefresh() bool {
	for _, s := range configuredSources() {
		if s.Remote() && sourceNeedsRefresh(s) {
			return true
		}
	}
	return false
}

// sourceNeedsRefresh reports whether a remote source was never fetched or
// was fetched longer than the cache TTL ago
func sourceNeedsRefresh(s config.Source) bool {
	info, err := os.Stat(fetchMetaPath(s))
	if err != nil {
		return true // Never fetched
	}
	return time.Since(info.ModTime()) > settings.TTL()
}

// lastFetch returns the oldest download time across remote sources
func lastFetch() (time.Time, bool) {
	var oldest time.Time
	for _, s := range configuredSources() {
		if !s.Remote() {
			continue
		}
		info, err := os.Stat(fetchMetaPath(s))
		if err != nil {
			return time.Time{}, false
		}
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}
	return oldest, !oldest.IsZero()
}

// fetchMetaPath is searchdata/<name>.meta, next to the source's download
func fetchMetaPath(s config.Source) string {
	return filepath.Join(dataDir, searchDataDir, s.Name+fetchMetaExt)
}

func writeFetchMeta(s config.Source) error {
	metaPath := fetchMetaPath(s)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0755); err != nil {
		return fmt.Errorf("failed to create meta directory: %w", err)
	}
	content := fmt.Sprintf("source: %s\nurl: %s\nlast_update: %s\n", s.Name, s.URL, time.Now().Format(time.RFC3339))
	return os.WriteFile(metaPath, []byte(content), 0644)
}

// resolveTarget resolves a Doxygen target against a source's base URL.
// Targets are returned unchanged when there is no base.
func resolveTarget(base, target string) string {
	if base == "" {
		return target
	}
	b, err := url.Parse(base)
	if err != nil {
		return target
	}
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
	}
	ref, err := url.Parse(target)
	if err != nil {
		return target
	}
	return b.ResolveReference(ref).String()
}
