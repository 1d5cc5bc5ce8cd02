package searchdata

import (
	"path"
	"strconv"
	"strings"
)

// DecodeKey turns a raw Doxygen row id into its search key.
// The trailing "_<ordinal>" is split off and "_XX" hex escapes are decoded.
// Example: "matrix_5fmultiply_2ehpp_1" -> "matrix_multiply.hpp", 1
func DecodeKey(id string) (string, int) {
	ordinal := -1
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		if n, err := strconv.Atoi(id[i+1:]); err == nil {
			ordinal = n
			id = id[:i]
		}
	}

	if !strings.Contains(id, "_") {
		return id, ordinal
	}

	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '_' && i+2 < len(id) {
			if v, err := strconv.ParseUint(id[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(id[i])
	}
	return b.String(), ordinal
}

// SectionFromFilename splits a search data file name into section and bucket.
// Example: "all_13.js" -> "all", "13"; "typedefs_d.js" -> "typedefs", "d"
func SectionFromFilename(name string) (section, bucket string, ok bool) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if path.Ext(base) != ".js" || base == CatalogFile {
		return "", "", false
	}
	base = strings.TrimSuffix(base, ".js")

	i := strings.LastIndexByte(base, '_')
	if i <= 0 || i == len(base)-1 {
		return "", "", false
	}
	section, bucket = base[:i], base[i+1:]
	if _, err := strconv.ParseUint(bucket, 16, 64); err != nil {
		return "", "", false
	}
	return section, bucket, true
}

// BucketValue returns the numeric value of a hex bucket, or -1 if it is not hex
func BucketValue(bucket string) int64 {
	v, err := strconv.ParseUint(bucket, 16, 63)
	if err != nil {
		return -1
	}
	return int64(v)
}
