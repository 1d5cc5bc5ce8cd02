package searchindex_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

func entry(label, target string) searchdata.Entry {
	return searchdata.Entry{Label: label, Target: target, Key: searchdata.Fold(label), Direct: true}
}

func labels(entries []searchdata.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

func TestQuery_Example(t *testing.T) {
	idx := searchindex.New([]searchdata.Entry{entry("vector", "#a1"), entry("scalar", "#b2")})

	got := searchindex.Collect(idx.Query("vec"), 0)
	require.Len(t, got, 1)
	assert.Equal(t, "vector", got[0].Label)
	assert.Equal(t, "#a1", got[0].Target)

	got = searchindex.Collect(idx.Query("s"), 0)
	require.Len(t, got, 1)
	assert.Equal(t, "scalar", got[0].Label)
	assert.Equal(t, "#b2", got[0].Target)
}

func TestQuery_EveryEntryFoundBySubstring(t *testing.T) {
	entries := []searchdata.Entry{
		entry("arm_mat_mult_q15", "#m1"),
		entry("Sine Cosine", "#s1"),
		entry("Q< M, F, true, int32_t >::sat()", "#q1"),
		entry("status16x4_t", "#t1"),
	}
	idx := searchindex.New(entries)

	for _, e := range entries {
		for start := 0; start < len(e.Label); start++ {
			for end := start + 1; end <= len(e.Label); end++ {
				sub := e.Label[start:end]
				if !slices.Contains(searchindex.Collect(idx.Query(sub), 0), e) {
					t.Fatalf("Query(%q) does not contain %q", sub, e.Label)
				}
			}
		}
	}
}

func TestQuery_EmptyReturnsAllInOrder(t *testing.T) {
	entries := []searchdata.Entry{entry("c", "#3"), entry("a", "#1"), entry("b", "#2")}
	idx := searchindex.New(entries)

	assert.Equal(t, entries, searchindex.Collect(idx.Query(""), 0))
}

func TestQuery_Idempotent(t *testing.T) {
	idx := searchindex.New([]searchdata.Entry{entry("Vector", "#1"), entry("vectorize", "#2"), entry("matrix", "#3")})

	seq := idx.Query("vec")
	first := searchindex.Collect(seq, 0)
	second := searchindex.Collect(seq, 0)
	third := searchindex.Collect(idx.Query("vec"), 0)

	assert.Equal(t, first, second, "ranging twice over one sequence")
	assert.Equal(t, first, third, "repeating the query")
	assert.Equal(t, []string{"Vector", "vectorize"}, labels(first))
}

func TestQuery_CaseInsensitive(t *testing.T) {
	idx := searchindex.New([]searchdata.Entry{entry("Vector", "#1"), entry("VECTOR_ADD", "#2"), entry("scalar", "#3")})

	upper := searchindex.Collect(idx.Query("VECTOR"), 0)
	lower := searchindex.Collect(idx.Query("vector"), 0)
	assert.Equal(t, upper, lower)
	assert.Len(t, upper, 2)
}

func TestQuery_NoMatchIsEmpty(t *testing.T) {
	idx := searchindex.New([]searchdata.Entry{entry("vector", "#1")})

	got := searchindex.Collect(idx.Query("fft"), 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQuery_NilIndex(t *testing.T) {
	var idx *searchindex.Index
	assert.Empty(t, searchindex.Collect(idx.Query(""), 0))
	assert.Zero(t, idx.Len())
	assert.Nil(t, idx.Sections())
}

func TestQuery_EarlyBreak(t *testing.T) {
	idx := searchindex.New([]searchdata.Entry{entry("a1", "#1"), entry("a2", "#2"), entry("a3", "#3")})

	got := searchindex.Collect(idx.Query("a"), 2)
	assert.Equal(t, []string{"a1", "a2"}, labels(got))
}

func TestQuerySection(t *testing.T) {
	a := entry("value_type", "#1")
	a.Section = "all"
	b := entry("value_type", "#1")
	b.Section = "typedefs"
	idx := searchindex.New([]searchdata.Entry{a, b})

	got := searchindex.Collect(idx.QuerySection("typedefs", "VALUE"), 0)
	require.Len(t, got, 1)
	assert.Equal(t, "typedefs", got[0].Section)
	assert.Len(t, searchindex.Collect(idx.QuerySection("", "value"), 0), 2)
}

func TestLoad_ConcatenatesInOrder(t *testing.T) {
	f1 := &searchdata.File{Name: "all_0.js", Entries: []searchdata.Entry{entry("a", "#1"), entry("b", "#2")}}
	f2 := &searchdata.File{Name: "all_1.js", Entries: []searchdata.Entry{entry("c", "#3")}}

	idx := searchindex.Load(f1, nil, f2)
	require.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"a", "b", "c"}, labels(searchindex.Collect(idx.Query(""), 0)))

	e, ok := idx.At(2)
	assert.True(t, ok)
	assert.Equal(t, "c", e.Label)
	_, ok = idx.At(3)
	assert.False(t, ok)
}

func TestNew_CopiesInput(t *testing.T) {
	entries := []searchdata.Entry{entry("a", "#1")}
	idx := searchindex.New(entries)
	entries[0].Label = "changed"

	e, _ := idx.At(0)
	assert.Equal(t, "a", e.Label)
}

func TestFingerprint(t *testing.T) {
	a := searchindex.New([]searchdata.Entry{entry("a", "#1"), entry("b", "#2")})
	b := searchindex.New([]searchdata.Entry{entry("a", "#1"), entry("b", "#2")})
	c := searchindex.New([]searchdata.Entry{entry("a", "#1"), entry("b", "#3")})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestSections_WithoutCatalog(t *testing.T) {
	x := entry("x", "#1")
	x.Section = "typedefs"
	y := entry("y", "#2")
	y.Section = "all"
	z := entry("z", "#3")
	z.Section = "typedefs"

	got := searchindex.New([]searchdata.Entry{x, y, z}).Sections()
	assert.Equal(t, []searchindex.SectionCount{
		{Name: "typedefs", Label: "typedefs", Entries: 2},
		{Name: "all", Label: "all", Entries: 1},
	}, got)
}

func TestConcat(t *testing.T) {
	a := searchindex.New([]searchdata.Entry{entry("alpha", "a.html")})
	b := searchindex.New([]searchdata.Entry{entry("beta", "b.html"), entry("alphabet", "c.html")})

	joined := searchindex.Concat(a, nil, b)
	assert.Equal(t, 3, joined.Len())
	assert.Equal(t, []string{"alpha", "alphabet"}, labels(searchindex.Collect(joined.Query("alpha"), 0)))
	assert.Equal(t, searchindex.Concat(a, b).Fingerprint(), joined.Fingerprint())
	assert.Equal(t, 0, searchindex.Concat().Len())
}
