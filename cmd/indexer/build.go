package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doxsearch/mcp-server/internal/ranking"
	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

var buildCmd = &cobra.Command{
	Use:     "build <search-dir> <index-dir>",
	Short:   "Build the ranked bleve index for a Doxygen search directory",
	Example: "  doxsearch-indexer build html/search data/search/index",
	Args:    cobra.ExactArgs(2),
	RunE:    runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	searchDir, indexDir := args[0], args[1]

	log.Printf("Doxygen Search Indexer (schema v%d)", searchdata.SchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	idx, err := loadSearchDir(cmd.Context(), searchDir)
	if err != nil {
		return err
	}
	for _, s := range idx.Sections() {
		log.Printf("  %-12s %6d entries", s.Name, s.Entries)
	}

	log.Printf("Building search index: %s", indexDir)
	if err := ranking.Build(indexDir, idx); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	log.Printf("✓ Index stamp: %s", ranking.Stamp(idx))
	return nil
}

// loadSearchDir loads every search data file under dir
func loadSearchDir(ctx context.Context, dir string) (*searchindex.Index, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	startTime := time.Now()
	idx, err := searchindex.LoadFS(ctx, os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dir, err)
	}
	log.Printf("✓ Loaded %d entries from %s in %v", idx.Len(), dir, time.Since(startTime).Round(time.Millisecond))
	return idx, nil
}
