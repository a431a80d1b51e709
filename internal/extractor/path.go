// Package extractor implements container value extractors: strategies that turn a
// container property (slice, map, optional) into the values it holds, together with
// the paths naming a sequence of extractors and the binder resolving such paths
// against static types.
package extractor

import (
	"fmt"
	"strings"
)

// Path names the container extractors to apply to a property value.
// The zero value is the default path, resolved by the binder to whatever extractors
// apply to the value's type.
type Path struct {
	explicit bool
	names    []string
}

// Default is the path letting the binder infer extractors
var Default = Path{}

// None applies no extractor: the container itself is the value
var None = Path{explicit: true}

// Explicit returns a path applying the named extractors in order
func Explicit(names ...string) Path {
	cp := make([]string, len(names))
	copy(cp, names)
	return Path{explicit: true, names: cp}
}

// IsDefault reports whether the path defers to the binder
func (p Path) IsDefault() bool { return !p.explicit }

// IsEmpty reports whether the path is explicit and applies no extractor
func (p Path) IsEmpty() bool { return p.explicit && len(p.names) == 0 }

// Names returns the extractor names of an explicit path
func (p Path) Names() []string {
	cp := make([]string, len(p.names))
	copy(cp, p.names)
	return cp
}

// Append returns a copy of an explicit path with name appended
func (p Path) Append(name string) Path {
	return Explicit(append(p.Names(), name)...)
}

// Equal reports whether both paths are spelled the same way.
// Default and its resolved explicit form are equivalent but not equal.
func (p Path) Equal(o Path) bool {
	return p.Key() == o.Key()
}

// Key returns a string usable as a map key
func (p Path) Key() string {
	if !p.explicit {
		return "default"
	}
	return "[" + strings.Join(p.names, "/") + "]"
}

// String returns the path as it is spelled after a property name: empty for default
func (p Path) String() string {
	if !p.explicit {
		return ""
	}
	return "[" + strings.Join(p.names, "/") + "]"
}

// ParsePath parses the bracketed form produced by String. An empty string is the
// default path; "[]" and "[none]" are the empty path.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "default" {
		return Default, nil
	}
	if s == "none" {
		return None, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" || inner == "none" {
		return None, nil
	}
	parts := strings.Split(inner, "/")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
		if parts[i] == "" {
			return Path{}, fmt.Errorf("%w: empty extractor name in %q", ErrInvalidPath, s)
		}
	}
	return Explicit(parts...), nil
}
