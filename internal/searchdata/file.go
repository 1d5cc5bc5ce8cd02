package searchdata

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
)

// ReadFile reads and parses a search data file from disk
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search data: %w", err)
	}
	return ParseFile(filepath.Base(path), data)
}

// ParseFile parses one search data file.
//
// The section and bucket are taken from the file name when it follows the
// "<section>_<hexbucket>.js" layout; other names get an empty section.
// Rows may use any of these shapes:
//
//	[label, [target, context]]
//	[label, [[target, context], [target, context], ...]]
//	[id, [label, [target, direct, context], ...]]
func ParseFile(name string, data []byte) (*File, error) {
	script, err := ParseScript(name, data)
	if err != nil {
		return nil, err
	}

	file := &File{Name: name}
	file.Section, file.Bucket, _ = SectionFromFilename(name)

	rows, varName, err := dataTable(name, script)
	if err != nil {
		return nil, err
	}
	file.Var = varName

	file.Entries = make([]Entry, 0, len(rows))
	for i, row := range rows {
		entries, err := decodeRow(row, i)
		if err != nil {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("row %d: %v", i, err)}
		}
		for j := range entries {
			entries[j].Section = file.Section
			entries[j].Bucket = file.Bucket
		}
		file.Entries = append(file.Entries, entries...)
	}

	return file, nil
}

// dataTable picks the entry table out of a script: searchData when present,
// otherwise the first array-valued variable
func dataTable(name string, script *Script) ([]any, string, error) {
	if v, ok := script.Vars[DataVar]; ok {
		rows, ok := v.([]any)
		if !ok {
			return nil, "", &ParseError{File: name, Msg: fmt.Sprintf("%s is %T, want array", DataVar, v)}
		}
		return rows, DataVar, nil
	}
	for _, varName := range script.Order {
		if rows, ok := script.Vars[varName].([]any); ok {
			return rows, varName, nil
		}
	}
	return nil, "", &ParseError{File: name, Msg: "no entry table found"}
}

func decodeRow(v any, ordinal int) ([]Entry, error) {
	row, ok := v.([]any)
	if !ok || len(row) < 2 {
		return nil, fmt.Errorf("want [label, targets] pair, got %s", describe(v))
	}
	head, ok := row[0].(string)
	if !ok {
		return nil, fmt.Errorf("first element is %s, want string", describe(row[0]))
	}
	body, ok := row[1].([]any)
	if !ok || len(body) == 0 {
		return nil, fmt.Errorf("second element is %s, want non-empty array", describe(row[1]))
	}

	// [id, [label, [target, direct, context], ...]]
	if label, ok := body[0].(string); ok && len(body) >= 2 {
		if _, nested := body[1].([]any); nested {
			key, n := DecodeKey(head)
			if n < 0 {
				n = ordinal
			}
			return decodeTargets(html.UnescapeString(label), key, n, body[1:])
		}
	}

	label := html.UnescapeString(head)
	key := Fold(label)

	// [label, [[target, context], ...]]
	if _, nested := body[0].([]any); nested {
		return decodeTargets(label, key, ordinal, body)
	}

	// [label, [target, context]]
	return decodeTargets(label, key, ordinal, []any{body})
}

func decodeTargets(label, key string, ordinal int, targets []any) ([]Entry, error) {
	entries := make([]Entry, 0, len(targets))
	for i, t := range targets {
		tuple, ok := t.([]any)
		if !ok || len(tuple) == 0 {
			return nil, fmt.Errorf("target %d is %s, want array", i, describe(t))
		}

		entry := Entry{Label: label, Key: key, Direct: true, Ordinal: ordinal}
		target, ok := tuple[0].(string)
		if !ok {
			return nil, fmt.Errorf("target %d reference is %s, want string", i, describe(tuple[0]))
		}
		entry.Target = target

		switch len(tuple) {
		case 1:
		case 2:
			ctx, ok := tuple[1].(string)
			if !ok {
				return nil, fmt.Errorf("target %d context is %s, want string", i, describe(tuple[1]))
			}
			entry.Context = html.UnescapeString(ctx)
		case 3:
			flag, ok := tuple[1].(int64)
			if !ok {
				return nil, fmt.Errorf("target %d flag is %s, want number", i, describe(tuple[1]))
			}
			ctx, ok := tuple[2].(string)
			if !ok {
				return nil, fmt.Errorf("target %d context is %s, want string", i, describe(tuple[2]))
			}
			entry.Direct = flag != 0
			entry.Context = html.UnescapeString(ctx)
		default:
			return nil, fmt.Errorf("target %d has %d elements, want 1 to 3", i, len(tuple))
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
