package searchindex_test

import (
	"fmt"

	"github.com/doxsearch/mcp-server/internal/searchdata"
	"github.com/doxsearch/mcp-server/internal/searchindex"
)

func ExampleIndex_Query() {
	file, err := searchdata.ParseFile("all_0.js", []byte(`var searchData=[
  ['scalar_0',['Scalar',['../group__ARCH.html#classScalar',1,'Scalar']]],
  ['vector_1',['Vector',['../group__Vector.html',1,'']]],
  ['vector_5fop_2',['vector_op',['../group__Vector.html#a12',1,'arm_cmsis_dsp']]]
];`))
	if err != nil {
		panic(err)
	}

	idx := searchindex.Load(file)
	for e := range idx.Query("VEC") {
		fmt.Println(e.Label, e.Target)
	}
	// Output:
	// Vector ../group__Vector.html
	// vector_op ../group__Vector.html#a12
}
