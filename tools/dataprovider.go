package tools

import (
	"io/fs"
)

// DataProvider gives access to the search data bundled with the server.
// Tests swap in MockDataProvider to run without the embedded files.
//
// Implementations:
//   - embeddedDataProvider: embed.FS, used in production
//   - MockDataProvider: in-memory map, used in tests
type DataProvider interface {
	// ReadFile reads the named file and returns its contents.
	// The name is relative to the data root (e.g., "data/searchdata/all_0.js").
	ReadFile(name string) ([]byte, error)

	// ReadDir reads the named directory and returns its entries.
	// The name is relative to the data root (e.g., "data/searchdata").
	ReadDir(name string) ([]fs.DirEntry, error)
}

// SetDefaultDataProvider sets the default data provider for the package.
// This is useful for testing to inject a mock provider.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider resets the default provider to use embedded data.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
