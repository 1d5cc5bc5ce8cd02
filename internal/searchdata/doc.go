// Package searchdata parses the search index files a Doxygen documentation
// build writes into its search/ directory.
//
// Every file assigns a table of rows to searchData; each row maps a label to
// one or more documentation anchors. searchdata.js additionally declares the
// section catalog (All, Classes, Functions, Typedefs, ...).
package searchdata
