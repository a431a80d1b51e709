// Package searchtag parses the `search:"..."` struct tag.
//
// A tag is a comma separated list of directives, each either a bare flag or a
// key=value pair:
//
//	Lines []*OrderLine `search:"embedded,depth=2,inverse=Order"`
//	Total float64      `search:"field=total"`
package searchtag

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Key is the struct tag key
const Key = "search"

// ErrInvalidTag is returned for malformed tags
var ErrInvalidTag = errors.New("invalid search tag")

// Directives is a parsed tag
type Directives struct {
	ID       bool
	Field    bool
	Name     string // field name, empty means the property name
	Embedded bool
	Depth    int // 0 means unlimited
	Prefix   string
	Extract  string // raw extractor path, empty for default
	Inverse  string // raw inverse-side path
}

// IsEmpty reports whether the tag carries no directive
func (d Directives) IsEmpty() bool {
	return d == Directives{}
}

// Lookup parses the search tag of a struct field, returning false when absent
func Lookup(tag reflect.StructTag) (Directives, bool, error) {
	raw, ok := tag.Lookup(Key)
	if !ok {
		return Directives{}, false, nil
	}
	d, err := Parse(raw)
	return d, true, err
}

// Parse parses a raw tag value
func Parse(raw string) (Directives, error) {
	var d Directives
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return d, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "id":
			d.ID = true
		case "field":
			d.Field = true
			d.Name = value
		case "embedded":
			d.Embedded = true
		case "depth":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return Directives{}, fmt.Errorf("%w: depth must be a positive integer, got %q", ErrInvalidTag, value)
			}
			d.Depth = n
		case "prefix":
			d.Prefix = value
		case "extract":
			if !hasValue || value == "" {
				return Directives{}, fmt.Errorf("%w: extract requires a path", ErrInvalidTag)
			}
			d.Extract = value
		case "inverse":
			if !hasValue || value == "" {
				return Directives{}, fmt.Errorf("%w: inverse requires a path", ErrInvalidTag)
			}
			d.Inverse = value
		default:
			return Directives{}, fmt.Errorf("%w: unknown directive %q", ErrInvalidTag, key)
		}
	}
	if (d.Depth != 0 || d.Prefix != "") && !d.Embedded {
		return Directives{}, fmt.Errorf("%w: depth and prefix only apply to embedded", ErrInvalidTag)
	}
	return d, nil
}
