// Package testutil provides reusable helpers for tests that need an object
// store on disk.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWorld is a temporary store root for testing.
type TestWorld struct {
	Path  string
	t     testing.TB
	files map[string]string
}

// NewTestWorld creates a new test world builder.
// Call Build() to create the actual directory.
func NewTestWorld(t testing.TB) *TestWorld {
	t.Helper()
	return &TestWorld{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file relative to the store root.
func (w *TestWorld) WithFile(path, content string) *TestWorld {
	w.files[path] = content
	return w
}

// WithObject adds a descriptor file for id.
func (w *TestWorld) WithObject(id, descriptorJSON string) *TestWorld {
	return w.WithFile(id+"/"+id+".json", descriptorJSON)
}

// Build creates the store directory and all configured files.
func (w *TestWorld) Build() *TestWorld {
	w.t.Helper()
	w.Path = w.t.TempDir()
	for path, content := range w.files {
		w.WriteFile(path, content)
	}
	return w
}

// WriteFile writes a file under the store root, creating directories as
// needed.
func (w *TestWorld) WriteFile(relPath, content string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		w.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		w.t.Fatalf("failed to write %s: %v", relPath, err)
	}
}

// RemoveFile deletes a file under the store root.
func (w *TestWorld) RemoveFile(relPath string) {
	w.t.Helper()
	if err := os.Remove(filepath.Join(w.Path, filepath.FromSlash(relPath))); err != nil {
		w.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// ReadFile reads a file under the store root.
func (w *TestWorld) ReadFile(relPath string) string {
	w.t.Helper()
	content, err := os.ReadFile(filepath.Join(w.Path, filepath.FromSlash(relPath)))
	if err != nil {
		w.t.Fatalf("failed to read %s: %v", relPath, err)
	}
	return string(content)
}

// FileExists reports whether a file or directory exists under the root.
func (w *TestWorld) FileExists(relPath string) bool {
	_, err := os.Stat(filepath.Join(w.Path, filepath.FromSlash(relPath)))
	return err == nil
}

// KitchenDescriptor is a small room with one verb.
const KitchenDescriptor = `{"name":"Kitchen","aliases":["kitchen"],"properties":{"look":{"verb":true,"file":"look.js"}}}`

// KitchenLook is the source of the kitchen's look verb.
const KitchenLook = "// verb: look; none; none; none\nreturn 'A small kitchen.';"
