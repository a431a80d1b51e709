package reindex

import (
	"sort"
	"strings"
)

// DirtyPaths is the set of property paths known to have changed on a dirty entity.
// Paths are dotted property names relative to the entity, e.g. "Address.City".
// A nil *DirtyPaths means every path is considered dirty.
type DirtyPaths struct {
	paths []string
}

// NewDirtyPaths returns a filter for the given paths
func NewDirtyPaths(paths ...string) *DirtyPaths {
	return &DirtyPaths{paths: normalize(paths)}
}

// Paths returns the paths of the filter
func (d *DirtyPaths) Paths() []string {
	if d == nil {
		return nil
	}
	result := make([]string, len(d.paths))
	copy(result, d.paths)
	return result
}

// Matches reports whether path may be dirty. A path matches a dirty path when they are
// equal or when one is a dotted prefix of the other: replacing "Address" dirties
// "Address.City", and changing "Address.City" dirties whatever depends on "Address".
func (d *DirtyPaths) Matches(path string) bool {
	if d == nil {
		return true
	}
	for _, p := range d.paths {
		if overlaps(p, path) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any of paths may be dirty
func (d *DirtyPaths) MatchesAny(paths []string) bool {
	if d == nil {
		return true
	}
	for _, p := range paths {
		if d.Matches(p) {
			return true
		}
	}
	return false
}

func overlaps(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < len(b) {
		return strings.HasPrefix(b, a) && b[len(a)] == '.'
	}
	return strings.HasPrefix(a, b) && a[len(b)] == '.'
}

// pathSet accumulates dirty paths during bootstrap
type pathSet map[string]struct{}

func (s pathSet) add(paths ...string) {
	for _, p := range paths {
		s[p] = struct{}{}
	}
}

func (s pathSet) sorted() []string {
	result := make([]string, 0, len(s))
	for p := range s {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

func normalize(paths []string) []string {
	set := make(pathSet, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			set.add(p)
		}
	}
	return set.sorted()
}
