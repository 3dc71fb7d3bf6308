package testutil

import (
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (w *TestWorld) AssertFileExists(relPath string) {
	w.t.Helper()
	if !w.FileExists(relPath) {
		w.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (w *TestWorld) AssertFileNotExists(relPath string) {
	w.t.Helper()
	if w.FileExists(relPath) {
		w.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (w *TestWorld) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileEquals fails the test if the file's contents differ from want.
func (w *TestWorld) AssertFileEquals(relPath, want string) {
	w.t.Helper()
	if got := w.ReadFile(relPath); got != want {
		w.t.Errorf("file %s:\n got: %q\nwant: %q", relPath, got, want)
	}
}
