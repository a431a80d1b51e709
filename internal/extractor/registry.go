package extractor

import (
	"fmt"
)

// Registry holds the extractors available to paths, and the ordered subset tried
// when resolving the default path
type Registry struct {
	byName   map[string]Extractor
	defaults []Extractor
}

// NewRegistry creates a registry containing the built-in extractors.
// Default resolution tries collection, map-value and optional, in that order.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Extractor)}
	r.mustRegister(collectionExtractor{}, true)
	r.mustRegister(mapValueExtractor{}, true)
	r.mustRegister(optionalExtractor{}, true)
	r.mustRegister(mapKeyExtractor{}, false)
	return r
}

// Register adds an extractor. When asDefault is true it is also tried, after the
// already registered defaults, when resolving default paths.
func (r *Registry) Register(e Extractor, asDefault bool) error {
	if _, exists := r.byName[e.Name()]; exists {
		return fmt.Errorf("%w: %q is already registered", ErrDuplicateExtractor, e.Name())
	}
	r.byName[e.Name()] = e
	if asDefault {
		r.defaults = append(r.defaults, e)
	}
	return nil
}

// Get returns the extractor registered under name
func (r *Registry) Get(name string) (Extractor, bool) {
	e, ok := r.byName[name]
	return e, ok
}

func (r *Registry) mustRegister(e Extractor, asDefault bool) {
	if err := r.Register(e, asDefault); err != nil {
		panic(err)
	}
}
