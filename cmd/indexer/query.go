package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/blevesearch/bleve/v2"
	"github.com/spf13/cobra"

	"github.com/doxsearch/mcp-server/internal/ranking"
	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

var (
	flagQuerySection string
	flagQueryLimit   int
	flagQueryRanked  string
)

var queryCmd = &cobra.Command{
	Use:   "query <search-dir> [text]",
	Short: "List entries whose label contains text (all entries when omitted)",
	Example: `  doxsearch-indexer query html/search vector
  doxsearch-indexer query html/search --section typedefs value
  doxsearch-indexer query html/search --ranked data/search/index "matrix multiply"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <search-dir>",
	Short: "List the sections of a search directory with entry counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadSearchDir(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSections(cmd.OutOrStdout(), idx.Sections())
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&flagQuerySection, "section", "", "Only match entries of this section (e.g. functions)")
	queryCmd.Flags().IntVarP(&flagQueryLimit, "limit", "n", 20, "Maximum number of results, 0 for all")
	queryCmd.Flags().StringVar(&flagQueryRanked, "ranked", "", "Rank results with the bleve index at this path instead of substring matching")
}

func runQuery(cmd *cobra.Command, args []string) error {
	idx, err := loadSearchDir(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	text := ""
	if len(args) > 1 {
		text = args[1]
	}

	if flagQueryRanked != "" {
		if text == "" {
			return fmt.Errorf("ranked queries need search text")
		}
		return runRankedQuery(cmd.OutOrStdout(), idx, text)
	}

	entries := searchindex.Collect(idx.QuerySection(flagQuerySection, text), flagQueryLimit)
	printEntries(cmd.OutOrStdout(), entries, nil)
	return nil
}

func runRankedQuery(w io.Writer, idx *searchindex.Index, text string) error {
	if ranking.ReadStamp(flagQueryRanked) != ranking.Stamp(idx) {
		fmt.Fprintf(os.Stderr, "Warning: %s was built from different search data, run build first\n", flagQueryRanked)
	}

	index, err := bleve.Open(flagQueryRanked)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer index.Close()

	limit := flagQueryLimit
	if limit <= 0 {
		limit = idx.Len()
	}
	result, err := index.Search(ranking.NewSearchRequest(text, flagQuerySection, limit))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	entries := make([]searchdata.Entry, 0, len(result.Hits))
	scores := make([]float64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		if e, ok := idx.At(pos); ok {
			entries = append(entries, e)
			scores = append(scores, hit.Score)
		}
	}
	printEntries(w, entries, scores)
	return nil
}

func printEntries(w io.Writer, entries []searchdata.Entry, scores []float64) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"LABEL", "SECTION", "TARGET", "CONTEXT"}
	if scores != nil {
		header = append([]string{"SCORE"}, header...)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, e := range entries {
		row := []string{e.Label, e.Section, e.Target, e.Context}
		if scores != nil {
			row = append([]string{strconv.FormatFloat(scores[i], 'f', 3, 64)}, row...)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func printSections(w io.Writer, sections []searchindex.SectionCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tLABEL\tENTRIES")
	for _, s := range sections {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name, s.Label, s.Entries)
	}
	tw.Flush()
}
