package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/doxsearch/mcp-server/internal/searchindex"
)

// SourceSummary describes one loaded source
type SourceSummary struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	DocsURL string `json:"docs_url,omitempty"`
}

// ListIndexSectionsInput defines input for list_index_sections tool
type ListIndexSectionsInput struct {
	// No input needed - describes the current index
}

// ListIndexSectionsOutput defines output for list_index_sections tool
type ListIndexSectionsOutput struct {
	Sections     []searchindex.SectionCount `json:"sections"`
	Sources      []SourceSummary            `json:"sources"`
	TotalEntries int                        `json:"total_entries"`
	Ranked       bool                       `json:"ranked"` // search_documentation available
	Generation   uint64                     `json:"generation"`
	LoadedAt     time.Time                  `json:"loaded_at"`
}

// ListIndexSections lists the sections of the current index with entry counts
func ListIndexSections(ctx context.Context, req *mcp.CallToolRequest, input ListIndexSectionsInput) (*mcp.CallToolResult, ListIndexSectionsOutput, error) {
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	snap, err := currentSnapshot(ctx)
	if err != nil {
		return nil, ListIndexSectionsOutput{}, err
	}
	return nil, describeSnapshot(snap), nil
}

func describeSnapshot(snap *snapshot) ListIndexSectionsOutput {
	output := ListIndexSectionsOutput{
		Sections:     snap.symbols.Sections(),
		Sources:      make([]SourceSummary, 0, len(snap.sources)),
		TotalEntries: snap.symbols.Len(),
		Ranked:       snap.ranked != nil,
		Generation:   snap.generation,
		LoadedAt:     snap.loadedAt,
	}
	if output.Sections == nil {
		output.Sections = []searchindex.SectionCount{}
	}
	for _, span := range snap.sources {
		output.Sources = append(output.Sources, SourceSummary{
			Name:    span.name,
			Entries: span.end - span.start,
			DocsURL: span.docsURL,
		})
	}
	return output
}

// RegisterSectionTools registers index inspection tools
func RegisterSectionTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_index_sections",
			Description: "List the sections of the symbol index (All, Functions, Typedefs, ...) with entry counts, and the sources they were loaded from. Section names can be passed to lookup_symbol.",
		},
		ListIndexSections,
	)
}
