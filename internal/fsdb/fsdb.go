// Package fsdb is the durability layer of the object store: a directory per
// object under a root, plain files inside, and a watcher that reports
// changes made by anyone else.
//
// All paths taken and returned by this package are slash-separated and
// relative to the root.
package fsdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aidanlsb/moodb/internal/atomicfile"
	"github.com/aidanlsb/moodb/internal/paths"
)

// DB reads and writes files under a root directory.
type DB struct {
	root string
}

// Open returns a DB rooted at root, which must be an existing directory.
func Open(root string) (*DB, error) {
	if root == "" {
		return nil, fmt.Errorf("store root is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open store root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root is not a directory: %s", root)
	}
	return &DB{root: filepath.Clean(root)}, nil
}

// Root returns the root directory.
func (d *DB) Root() string { return d.root }

// ListDirs returns the names of the non-hidden directories directly inside
// rel, sorted.
func (d *DB) ListDirs(rel string) ([]string, error) {
	dir, err := d.resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rel, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the contents of rel.
func (d *DB) Read(rel string) (string, error) {
	p, err := d.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), nil
}

// Write replaces the contents of rel, creating parent directories as needed.
func (d *DB) Write(rel, text string) error {
	p, err := d.resolve(rel)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(p, []byte(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Remove deletes the file at rel. A missing file is not an error.
func (d *DB) Remove(rel string) error {
	p, err := d.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	return nil
}

// RemoveDir deletes the directory at rel if it is empty. A missing
// directory is not an error.
func (d *DB) RemoveDir(rel string) error {
	p, err := d.resolve(rel)
	if err != nil {
		return err
	}
	if p == d.root {
		return fmt.Errorf("refusing to remove the store root")
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove directory %s: %w", rel, err)
	}
	return nil
}

// Exists reports whether rel exists.
func (d *DB) Exists(rel string) bool {
	p, err := d.resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (d *DB) resolve(rel string) (string, error) {
	p, err := paths.Resolve(d.root, rel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rel, err)
	}
	return p, nil
}
