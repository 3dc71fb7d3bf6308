// Package slugs derives object IDs from display names.
package slugs

import (
	"strconv"
	"strings"

	goslug "github.com/gosimple/slug"
)

// ObjectID converts a display name to an ID usable as a directory name:
// lower case, ASCII, words joined by dashes. It returns "" when nothing
// usable is left.
func ObjectID(name string) string {
	id := goslug.Make(strings.TrimSpace(name))
	return strings.Trim(id, "-.")
}

// UniqueObjectID returns ObjectID(name), suffixed with -2, -3, ... until
// taken reports it free. It returns "" when the name has no usable ID.
func UniqueObjectID(name string, taken func(id string) bool) string {
	base := ObjectID(name)
	if base == "" {
		return ""
	}
	if taken == nil || !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
