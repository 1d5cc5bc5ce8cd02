package searchdata

const (
	// DataVar is the variable Doxygen assigns the entry table to in every search data file
	DataVar = "searchData"

	// CatalogFile is the name of the section catalog script in a Doxygen search directory
	CatalogFile = "searchdata.js"

	// SchemaVersion increments when the parsed entry layout changes
	// v1: label/target/context, v2: key, direct flag, section and bucket
	SchemaVersion = 2
)

// Catalog variable names written by Doxygen into searchdata.js
const (
	catalogContentVar = "indexSectionsWithContent"
	catalogNamesVar   = "indexSectionNames"
	catalogLabelsVar  = "indexSectionLabels"
)
