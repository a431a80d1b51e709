// Package modelpath represents paths through the object graph: unbound paths made of
// property names and extractor paths, and bound paths annotated at each step with the
// resolved type, property and extracted value type.
package modelpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/searchmap/internal/extractor"
)

// ErrInvalidPath is returned when a path string cannot be parsed
var ErrInvalidPath = errors.New("invalid model path")

// Hop is one step of an unbound path: a property and the extractors applied to its value
type Hop struct {
	Property   string
	Extractors extractor.Path
}

// String returns the hop as "Prop" or "Prop[extractors]"
func (h Hop) String() string {
	return h.Property + h.Extractors.String()
}

// Path is an immutable unbound path from an implicit root to a property value.
// The nil *Path is the root itself.
type Path struct {
	parent *Path
	hop    Hop
}

// New returns a one-hop path
func New(property string, extractors extractor.Path) *Path {
	return (*Path)(nil).Value(property, extractors)
}

// Value returns a path extending p by one hop
func (p *Path) Value(property string, extractors extractor.Path) *Path {
	return &Path{parent: p, hop: Hop{Property: property, Extractors: extractors}}
}

// Parent returns the path without its last hop
func (p *Path) Parent() *Path {
	if p == nil {
		return nil
	}
	return p.parent
}

// Last returns the last hop
func (p *Path) Last() Hop {
	return p.hop
}

// Hops returns the hops from the root
func (p *Path) Hops() []Hop {
	var hops []Hop
	for cur := p; cur != nil; cur = cur.parent {
		hops = append(hops, cur.hop)
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops
}

// Len returns the number of hops
func (p *Path) Len() int {
	n := 0
	for cur := p; cur != nil; cur = cur.parent {
		n++
	}
	return n
}

// Equal reports whether both paths have the same hops, extractor paths compared by spelling
func (p *Path) Equal(o *Path) bool {
	return p.Key() == o.Key()
}

// Key returns a string identifying the path, distinguishing default extractor paths
// from their explicit equivalents
func (p *Path) Key() string {
	var b strings.Builder
	for i, h := range p.Hops() {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(h.Property)
		b.WriteString(h.Extractors.Key())
	}
	return b.String()
}

// String returns the path in the syntax accepted by Parse
func (p *Path) String() string {
	hops := p.Hops()
	parts := make([]string, len(hops))
	for i, h := range hops {
		parts[i] = h.String()
	}
	return strings.Join(parts, ".")
}

// PropertyPath returns the dotted property names, ignoring extractors.
// This is the form used for dirty paths.
func (p *Path) PropertyPath() string {
	hops := p.Hops()
	parts := make([]string, len(hops))
	for i, h := range hops {
		parts[i] = h.Property
	}
	return strings.Join(parts, ".")
}

// Parse reads a path such as "Orders.Lines[collection].Product[]".
// A hop without brackets uses the default extractor path.
func Parse(s string) (*Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	var p *Path
	for _, segment := range splitHops(s) {
		name := segment
		ext := extractor.Default
		if i := strings.IndexByte(segment, '['); i >= 0 {
			name = segment[:i]
			var err error
			ext, err = extractor.ParsePath(segment[i:])
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, s, err)
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: %q has an empty property name", ErrInvalidPath, s)
		}
		p = p.Value(name, ext)
	}
	return p, nil
}

// MustParse is Parse panicking on error, for static declarations
func MustParse(s string) *Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// splitHops splits on dots outside brackets
func splitHops(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
