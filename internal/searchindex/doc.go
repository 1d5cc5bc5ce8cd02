// Package searchindex loads Doxygen search data into a single in-memory
// index and answers substring queries against it.
//
// # Loading
//
// [Load] concatenates already parsed files in the order given. [LoadFS]
// discovers the data files of a search directory, parses them concurrently
// and orders them by section (as declared in searchdata.js) and bucket:
//
//	idx, err := searchindex.LoadFS(ctx, os.DirFS(docsDir), "search")
//
// The generator splits its output into first-character buckets; that split
// carries no meaning and the index keeps only the resulting entry order.
//
// # Querying
//
// [Index.Query] returns a lazy, restartable sequence of the entries whose
// label contains the query, compared case-insensitively after Unicode case
// folding. Results keep insertion order and an empty query yields the whole
// index:
//
//	for entry := range idx.Query("vec") {
//	    fmt.Println(entry.Label, entry.Target)
//	}
//
// A query that matches nothing yields an empty sequence; it is not an error.
//
// # Thread Safety
//
// An Index is immutable once built and safe for concurrent readers.
package searchindex
