package tools

import (
	"io/fs"
	"path"
	"testing/fstest"
)

// mockDataProvider implements DataProvider over an in-memory filesystem
type mockDataProvider struct {
	fsys fstest.MapFS
}

func newMockDataProvider() *mockDataProvider {
	return &mockDataProvider{fsys: fstest.MapFS{}}
}

// AddFile adds a file to the mock provider
func (m *mockDataProvider) AddFile(name string, content []byte) {
	m.fsys[name] = &fstest.MapFile{Data: content, Mode: 0644}
}

// AddSearchData adds Doxygen search files under the embedded search directory
func (m *mockDataProvider) AddSearchData(files map[string]string) {
	for name, content := range files {
		m.AddFile(path.Join(embeddedSearchDir, name), []byte(content))
	}
}

func (m *mockDataProvider) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(m.fsys, name)
}

func (m *mockDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(m.fsys, name)
}
