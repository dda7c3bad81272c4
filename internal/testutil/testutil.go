package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pders01/cascade/internal/store"
	"github.com/spf13/afero"
)

// TempEnv is a throwaway data directory with an open store
type TempEnv struct {
	Dir   string
	Store *store.Store
	T     *testing.T
}

// NewTempEnv creates a temp directory and opens a store inside it. The store
// is closed when the test ends.
func NewTempEnv(t *testing.T) *TempEnv {
	t.Helper()

	dir := t.TempDir()
	s, err := store.Open(context.Background(), filepath.Join(dir, "cascade.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	return &TempEnv{Dir: dir, Store: s, T: t}
}

// NewStore opens a store in a temp directory
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	return NewTempEnv(t).Store
}

// DBPath returns the database location of the environment
func (e *TempEnv) DBPath() string {
	return e.Store.Path()
}

// CreateFile writes a file relative to the environment directory
func (e *TempEnv) CreateFile(name string, content []byte) string {
	e.T.Helper()

	path := filepath.Join(e.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		e.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// FileExists reports whether a file exists relative to the environment directory
func (e *TempEnv) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.Dir, name))
	return err == nil
}

// MemFs returns an in-memory filesystem for vault tests
func MemFs() afero.Fs {
	return afero.NewMemMapFs()
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNG returns size bytes that begin with a PNG signature and IHDR chunk
// header, enough for content sniffing.
func PNG(size int) []byte {
	header := append([]byte{}, pngSignature...)
	header = append(header, 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0)

	data := make([]byte, size)
	copy(data, header)
	return data
}
