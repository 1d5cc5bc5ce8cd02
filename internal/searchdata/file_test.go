package searchdata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doxsearch/mcp-server/internal/searchdata"
)

const doxygenRows = `var searchData=
[
  ['basic_2ehpp_0',['basic.hpp',['../Scalar_2basic_8hpp.html',1,'']]],
  ['sat_4',['sat',['../group__FIXED.html#ae22',1,'arm_cmsis_dsp::Q&lt; M, F, true, int32_t &gt;::sat()'],['../group__FIXED.html#ae22',0,'arm_cmsis_dsp::Q&lt; M, F, false, uint32_t &gt;::sat()']]],
  ['static_20_2f_20dynamic_22',['Static / dynamic',['../dsppp_memory_static_dynamic.html',1,'dsppp_main']]]
];
`

func TestParseFile_DoxygenRows(t *testing.T) {
	file, err := searchdata.ParseFile("all_13.js", []byte(doxygenRows))
	require.NoError(t, err)

	assert.Equal(t, "searchData", file.Var)
	assert.Equal(t, "all", file.Section)
	assert.Equal(t, "13", file.Bucket)
	require.Len(t, file.Entries, 4)

	assert.Equal(t, searchdata.Entry{
		Label:   "basic.hpp",
		Target:  "../Scalar_2basic_8hpp.html",
		Key:     "basic.hpp",
		Direct:  true,
		Section: "all",
		Bucket:  "13",
		Ordinal: 0,
	}, file.Entries[0])

	// One entry per target, sharing label and key
	assert.Equal(t, "sat", file.Entries[1].Label)
	assert.Equal(t, "sat", file.Entries[2].Label)
	assert.Equal(t, "arm_cmsis_dsp::Q< M, F, true, int32_t >::sat()", file.Entries[1].Context)
	assert.True(t, file.Entries[1].Direct)
	assert.False(t, file.Entries[2].Direct)
	assert.Equal(t, 4, file.Entries[2].Ordinal)

	assert.Equal(t, "static / dynamic", file.Entries[3].Key)
	assert.Equal(t, "Static / dynamic", file.Entries[3].Label)
}

func TestParseFile_LabelRows(t *testing.T) {
	src := `var searchData = [
  ['vector', ['#a1', 'arm_cmsis_dsp']],
  ['Scalar', [['#b2', 'Matrix'], ['#b3', '']]],
  ['lonely', ['#c4']]
];`
	file, err := searchdata.ParseFile("custom.js", []byte(src))
	require.NoError(t, err)

	assert.Empty(t, file.Section)
	require.Len(t, file.Entries, 4)

	assert.Equal(t, "vector", file.Entries[0].Label)
	assert.Equal(t, "#a1", file.Entries[0].Target)
	assert.Equal(t, "arm_cmsis_dsp", file.Entries[0].Context)

	assert.Equal(t, "#b2", file.Entries[1].Target)
	assert.Equal(t, "#b3", file.Entries[2].Target)
	assert.Equal(t, "scalar", file.Entries[1].Key)
	assert.Equal(t, 1, file.Entries[2].Ordinal)

	assert.Equal(t, "#c4", file.Entries[3].Target)
	assert.Empty(t, file.Entries[3].Context)
}

func TestParseFile_FirstArrayWhenNoSearchData(t *testing.T) {
	file, err := searchdata.ParseFile("x.js", []byte(`var meta = 3; var rows = [['a', ['#a', '']]];`))
	require.NoError(t, err)
	assert.Equal(t, "rows", file.Var)
	assert.Len(t, file.Entries, 1)
}

func TestParseFile_EmptyTable(t *testing.T) {
	file, err := searchdata.ParseFile("all_0.js", []byte("var searchData=\n[\n];\n"))
	require.NoError(t, err)
	assert.Empty(t, file.Entries)
}

func TestParseFile_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "no table", src: `var x = 1;`},
		{name: "searchData not array", src: `var searchData = {};`},
		{name: "row not array", src: `var searchData = ['a'];`},
		{name: "row too short", src: `var searchData = [['a']];`},
		{name: "label not string", src: `var searchData = [[1, ['#a', '']]];`},
		{name: "target not string", src: `var searchData = [['a', [[1, '']]]];`},
		{name: "flag not number", src: `var searchData = [['a_0', ['a', ['#a', 'x', '']]]];`},
		{name: "too many fields", src: `var searchData = [['a', [['#a', 1, '', 'extra']]]];`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searchdata.ParseFile("bad.js", []byte(tt.src))
			var perr *searchdata.ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typedefs_d.js")
	require.NoError(t, os.WriteFile(path, []byte(doxygenRows), 0644))

	file, err := searchdata.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "typedefs_d.js", file.Name)
	assert.Equal(t, "typedefs", file.Section)
	assert.Equal(t, "typedefs", file.Entries[0].Section)

	_, err = searchdata.ReadFile(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}
