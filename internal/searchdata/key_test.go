package searchdata_test

import (
	"testing"

	"github.com/doxsearch/mcp-server/internal/searchdata"
)

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		id          string
		wantKey     string
		wantOrdinal int
	}{
		{id: "sat_4", wantKey: "sat", wantOrdinal: 4},
		{id: "basic_2ehpp_0", wantKey: "basic.hpp", wantOrdinal: 0},
		{id: "matrix_5fmultiply_5ffixed_2ehpp_2", wantKey: "matrix_multiply_fixed.hpp", wantOrdinal: 2},
		{id: "static_20_2f_20dynamic_22", wantKey: "static / dynamic", wantOrdinal: 22},
		{id: "value_5ftype_0", wantKey: "value_type", wantOrdinal: 0},
		{id: "vector", wantKey: "vector", wantOrdinal: -1},
		{id: "status16x4_5ft", wantKey: "status16x4_t", wantOrdinal: -1},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			key, ordinal := searchdata.DecodeKey(tt.id)
			if key != tt.wantKey {
				t.Errorf("DecodeKey(%q) key = %q, want %q", tt.id, key, tt.wantKey)
			}
			if ordinal != tt.wantOrdinal {
				t.Errorf("DecodeKey(%q) ordinal = %d, want %d", tt.id, ordinal, tt.wantOrdinal)
			}
		})
	}
}

func TestSectionFromFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantSection string
		wantBucket  string
		wantOK      bool
	}{
		{name: "all_13.js", wantSection: "all", wantBucket: "13", wantOK: true},
		{name: "search/typedefs_d.js", wantSection: "typedefs", wantBucket: "d", wantOK: true},
		{name: "enumvalues_0.js", wantSection: "enumvalues", wantBucket: "0", wantOK: true},
		{name: "searchdata.js", wantOK: false},
		{name: "search.js", wantOK: false},
		{name: "all_zz.js", wantOK: false},
		{name: "all_13.html", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section, bucket, ok := searchdata.SectionFromFilename(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("SectionFromFilename(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if section != tt.wantSection || bucket != tt.wantBucket {
				t.Errorf("SectionFromFilename(%q) = %q, %q, want %q, %q", tt.name, section, bucket, tt.wantSection, tt.wantBucket)
			}
		})
	}
}

func TestFold(t *testing.T) {
	if searchdata.Fold("VECTOR") != searchdata.Fold("vector") {
		t.Error("Fold should ignore ASCII case")
	}
	if searchdata.Fold("ΣΑΣ") != searchdata.Fold("σας") {
		t.Error("Fold should fold final sigma")
	}
	// NFC: "e" + combining acute equals precomposed "é"
	if searchdata.Fold("Cafe\u0301") != searchdata.Fold("CAF\u00c9") {
		t.Error("Fold should normalize before folding")
	}
}
