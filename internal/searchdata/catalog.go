package searchdata

import (
	"fmt"
	"sort"
	"strconv"
)

// SectionInfo describes one search section (a tab in the Doxygen search box)
type SectionInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`              // File prefix, e.g. "all", "typedefs"
	Label   string `json:"label"`             // Display label, e.g. "Typedefs"
	Buckets string `json:"buckets,omitempty"` // First characters that have entries in this section
}

// Catalog is the section list declared by searchdata.js
type Catalog struct {
	Sections []SectionInfo `json:"sections"`
}

// ParseCatalog parses Doxygen's searchdata.js
func ParseCatalog(name string, data []byte) (*Catalog, error) {
	script, err := ParseScript(name, data)
	if err != nil {
		return nil, err
	}

	names, err := stringTable(name, script, catalogNamesVar)
	if err != nil {
		return nil, err
	}
	if names == nil {
		return nil, &ParseError{File: name, Msg: catalogNamesVar + " not found"}
	}
	labels, err := stringTable(name, script, catalogLabelsVar)
	if err != nil {
		return nil, err
	}
	content, err := stringTable(name, script, catalogContentVar)
	if err != nil {
		return nil, err
	}

	catalog := &Catalog{Sections: make([]SectionInfo, 0, len(names))}
	for id, sectionName := range names {
		info := SectionInfo{ID: id, Name: sectionName, Label: labels[id], Buckets: content[id]}
		if info.Label == "" {
			info.Label = sectionName
		}
		catalog.Sections = append(catalog.Sections, info)
	}
	sort.Slice(catalog.Sections, func(i, j int) bool {
		return catalog.Sections[i].ID < catalog.Sections[j].ID
	})

	return catalog, nil
}

// Rank returns the position of a section in the catalog, or -1 when unknown
func (c *Catalog) Rank(section string) int {
	if c == nil {
		return -1
	}
	for i, s := range c.Sections {
		if s.Name == section {
			return i
		}
	}
	return -1
}

// Label returns the display label of a section, falling back to its name
func (c *Catalog) Label(section string) string {
	if i := c.Rank(section); i >= 0 {
		return c.Sections[i].Label
	}
	return section
}

// stringTable reads an object literal with numeric keys and string values.
// A missing variable yields a nil map.
func stringTable(name string, script *Script, varName string) (map[int]string, error) {
	v, ok := script.Vars[varName]
	if !ok {
		return nil, nil
	}

	table := make(map[int]string)
	switch obj := v.(type) {
	case map[string]any:
		for k, raw := range obj {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("%s: key %q is not a number", varName, k)}
			}
			s, ok := raw.(string)
			if !ok {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("%s[%d] is %s, want string", varName, id, describe(raw))}
			}
			table[id] = s
		}
	case []any:
		for id, raw := range obj {
			s, ok := raw.(string)
			if !ok {
				return nil, &ParseError{File: name, Msg: fmt.Sprintf("%s[%d] is %s, want string", varName, id, describe(raw))}
			}
			table[id] = s
		}
	default:
		return nil, &ParseError{File: name, Msg: fmt.Sprintf("%s is %s, want object", varName, describe(v))}
	}
	return table, nil
}
