package searchindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/doxsearch/mcp-server/internal/searchdata"
)

// ErrNoData is returned when a directory holds no search data files
var ErrNoData = errors.New("no search data files found")

// LoadFS loads every search data file in dir.
// Files are parsed concurrently and concatenated by section, then bucket.
// searchdata.js, when present, provides the section order and labels.
func LoadFS(ctx context.Context, fsys fs.FS, dir string) (*Index, error) {
	dirEntries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read search directory %s: %w", dir, err)
	}

	var catalog *searchdata.Catalog
	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if de.Name() == searchdata.CatalogFile {
			data, err := fs.ReadFile(fsys, path.Join(dir, de.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to read section catalog: %w", err)
			}
			catalog, err = searchdata.ParseCatalog(de.Name(), data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse section catalog: %w", err)
			}
			continue
		}
		if _, _, ok := searchdata.SectionFromFilename(de.Name()); ok {
			names = append(names, de.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoData)
	}

	files := make([]*searchdata.File, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, path.Join(dir, name))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			file, err := searchdata.ParseFile(name, data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", name, err)
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortFiles(files, catalog)

	idx := Load(files...)
	idx.catalog = catalog
	return idx, nil
}

// SortFiles orders files by catalog section rank (unknown sections last,
// by name), then by numeric bucket value
func SortFiles(files []*searchdata.File, catalog *searchdata.Catalog) {
	rank := func(section string) int {
		if r := catalog.Rank(section); r >= 0 {
			return r
		}
		return math.MaxInt32
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if ra, rb := rank(a.Section), rank(b.Section); ra != rb {
			return ra < rb
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if va, vb := searchdata.BucketValue(a.Bucket), searchdata.BucketValue(b.Bucket); va != vb {
			return va < vb
		}
		return a.Name < b.Name
	})
}
