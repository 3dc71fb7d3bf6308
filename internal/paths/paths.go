// Package paths provides canonical helpers for converting between:
// - store-relative file paths (e.g. "kitchen/kitchen.json", "kitchen/look.js")
// - object IDs (e.g. "kitchen")
//
// Every object owns one directory named after its ID. The directory holds
// the descriptor (<id>.json) and one code file per callable property.
// Keeping these rules in one place lets the cache, the filesystem gateway
// and the reconciliation controller agree on what a path means.
package paths

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

const (
	// DescriptorExt is the extension of an object's descriptor file.
	DescriptorExt = ".json"

	// CodeExt is the extension of callable source files.
	CodeExt = ".js"
)

// ErrPathOutsideRoot is returned for paths that would escape the store root.
var ErrPathOutsideRoot = errors.New("path is outside the store root")

// Kind classifies a store-relative file path.
type Kind int

const (
	KindOther Kind = iota
	KindDescriptor
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindDescriptor:
		return "descriptor"
	case KindCode:
		return "code"
	}
	return "other"
}

// Normalize normalizes a store-relative path-like value:
// - converts OS separators to '/'
// - trims leading "./" and leading "/"
// - collapses repeated '/'
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// DescriptorPath returns the descriptor file path for id ("<id>/<id>.json").
func DescriptorPath(id string) string {
	return id + "/" + id + DescriptorExt
}

// CallablePath returns the path of a callable's source file ("<id>/<file>").
func CallablePath(id, file string) string {
	return id + "/" + file
}

// DefaultCallableFile is the file name used for a callable without one.
func DefaultCallableFile(key string) string {
	return key + CodeExt
}

// IDFromPath returns the object ID a store-relative path belongs to: its
// first segment.
func IDFromPath(rel string) string {
	rel = Normalize(rel)
	id, _, _ := strings.Cut(rel, "/")
	return id
}

// KindOf classifies rel by extension. Files at the top level of the store
// belong to no object and are always KindOther.
func KindOf(rel string) Kind {
	rel = Normalize(rel)
	if !strings.Contains(rel, "/") {
		return KindOther
	}
	switch path.Ext(rel) {
	case DescriptorExt:
		return KindDescriptor
	case CodeExt:
		return KindCode
	}
	return KindOther
}

// IsHidden reports whether any segment of rel starts with a dot.
func IsHidden(rel string) bool {
	for _, part := range strings.Split(Normalize(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

// Resolve joins a store-relative path onto root, refusing anything that
// would land outside root.
func Resolve(root, rel string) (string, error) {
	if filepath.IsAbs(rel) || strings.HasPrefix(filepath.ToSlash(rel), "/") {
		return "", ErrPathOutsideRoot
	}
	clean := path.Clean(Normalize(rel))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrPathOutsideRoot
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// ValidID reports whether id can name an object directory.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// ValidCallableFile reports whether file can hold a callable: a plain name
// inside the object directory ending in CodeExt. The extension rule keeps it
// from ever naming the descriptor.
func ValidCallableFile(file string) bool {
	return ValidID(file) && path.Ext(file) == CodeExt
}
