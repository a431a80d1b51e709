package extractor

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/searchmap/internal/model"
)

// maxDefaultDepth bounds default resolution on self-referencing container types
const maxDefaultDepth = 16

// BoundPath is an extractor path resolved against a container type: the explicit
// extractors to apply and the static type of the values they yield
type BoundPath struct {
	path          Path
	extractors    []Extractor
	extractedType *model.TypeModel
}

// Path returns the explicit, resolved path
func (b BoundPath) Path() Path { return b.path }

// ExtractedType returns the static type of extracted values
func (b BoundPath) ExtractedType() *model.TypeModel { return b.extractedType }

// IsEmpty reports whether no extractor is applied
func (b BoundPath) IsEmpty() bool { return len(b.extractors) == 0 }

// Binder resolves extractor paths against static types
type Binder struct {
	introspector *model.Introspector
	registry     *Registry
}

// NewBinder creates a binder using the given registry
func NewBinder(introspector *model.Introspector, registry *Registry) *Binder {
	return &Binder{introspector: introspector, registry: registry}
}

// Bind resolves path against values of static type source
func (b *Binder) Bind(source *model.TypeModel, path Path) (BoundPath, error) {
	if path.IsDefault() {
		return b.bindDefault(source), nil
	}

	current := source.Type()
	extractors := make([]Extractor, 0, len(path.names))
	for _, name := range path.names {
		e, ok := b.registry.Get(name)
		if !ok {
			return BoundPath{}, fmt.Errorf("%w: %q", ErrUnknownExtractor, name)
		}
		next, ok := e.ElementType(current)
		if !ok {
			return BoundPath{}, fmt.Errorf("%w: extractor %q cannot be applied to %s (path %s on %s)",
				ErrInvalidPath, name, current, path.Key(), source.Name())
		}
		extractors = append(extractors, e)
		current = next
	}
	return BoundPath{
		path:          path,
		extractors:    extractors,
		extractedType: b.introspector.TypeModel(current),
	}, nil
}

// TryBind is Bind returning false instead of an error
func (b *Binder) TryBind(source *model.TypeModel, path Path) (BoundPath, bool) {
	bound, err := b.Bind(source, path)
	if err != nil {
		return BoundPath{}, false
	}
	return bound, true
}

// IsDefaultPath reports whether explicit is what the default path resolves to for source
func (b *Binder) IsDefaultPath(source *model.TypeModel, explicit Path) bool {
	if explicit.IsDefault() {
		return true
	}
	return b.bindDefault(source).path.Equal(explicit)
}

// Create returns the runtime extractor chain for a bound path
func (b *Binder) Create(bound BoundPath) Chain {
	extractors := make([]Extractor, len(bound.extractors))
	copy(extractors, bound.extractors)
	return Chain{extractors: extractors}
}

func (b *Binder) bindDefault(source *model.TypeModel) BoundPath {
	current := source.Type()
	path := None
	var extractors []Extractor
	for depth := 0; depth < maxDefaultDepth; depth++ {
		applied := false
		for _, e := range b.registry.defaults {
			next, ok := e.ElementType(current)
			if !ok {
				continue
			}
			extractors = append(extractors, e)
			path = path.Append(e.Name())
			current = next
			applied = true
			break
		}
		if !applied {
			break
		}
	}
	return BoundPath{
		path:          path,
		extractors:    extractors,
		extractedType: b.introspector.TypeModel(current),
	}
}

// Chain applies a sequence of extractors at runtime. It is immutable.
type Chain struct {
	extractors []Extractor
}

// Len returns the number of extractors in the chain
func (c Chain) Len() int { return len(c.extractors) }

// String returns the explicit path of the chain
func (c Chain) String() string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return Explicit(names...).String()
}

// Extract calls fn for every value reached by applying the chain to container.
// Nil containers and nil intermediate values are skipped.
func (c Chain) Extract(container reflect.Value, fn func(reflect.Value)) {
	c.extract(container, 0, fn)
}

func (c Chain) extract(v reflect.Value, i int, fn func(reflect.Value)) {
	v = indirect(v)
	if !v.IsValid() {
		return
	}
	if i == len(c.extractors) {
		fn(v)
		return
	}
	c.extractors[i].Extract(v, func(elem reflect.Value) {
		c.extract(elem, i+1, fn)
	})
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return reflect.Value{}
		}
	}
	return v
}
