package searchdata

import "fmt"

// Entry is one (label, location) association of a search index
type Entry struct {
	Label   string `json:"label"`             // Text shown to the user, entities decoded
	Target  string `json:"target"`            // Documentation URL, usually with a #fragment
	Context string `json:"context,omitempty"` // Qualifying scope, e.g. owning type or header
	Key     string `json:"key"`               // Lowercase search key
	Direct  bool   `json:"direct"`            // Doxygen's "link is direct" flag
	Section string `json:"section,omitempty"` // Index section the entry came from ("all", "typedefs", ...)
	Bucket  string `json:"bucket,omitempty"`  // Generator partition the entry came from
	Ordinal int    `json:"ordinal"`           // Row number inside its bucket
}

// File is one parsed search data file
type File struct {
	Name    string  `json:"name"`    // File name, e.g. "all_13.js"
	Var     string  `json:"var"`     // Variable the table was assigned to
	Section string  `json:"section"` // Section decoded from the file name
	Bucket  string  `json:"bucket"`  // Hex bucket decoded from the file name
	Entries []Entry `json:"entries"`
}

// ParseError reports a malformed search data file
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}
