package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/doxsearch/mcp-server/internal/searchdata"
)

var rootCmd = &cobra.Command{
	Use:          "doxsearch-indexer",
	Short:        "Build and query indexes of Doxygen search data",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `doxsearch-indexer reads the search/ directory of a Doxygen HTML build
(searchdata.js plus <section>_<bucket>.js tables) and either builds the ranked
index the MCP server ships with, or queries the data directly.`,
}

func init() {
	rootCmd.Version = fmt.Sprintf("schema v%d", searchdata.SchemaVersion)
	rootCmd.AddCommand(buildCmd, queryCmd, sectionsCmd)
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
