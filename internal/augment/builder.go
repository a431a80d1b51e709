package augment

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

// ErrConflictingInverseSide is returned when two different inverse sides are
// declared for the same property value
var ErrConflictingInverseSide = errors.New("conflicting inverse side declarations")

// Builder accumulates declarations and produces Metadata
type Builder struct {
	metadata *Metadata
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{metadata: Empty()}
}

// TypeBuilder declares metadata on one type
type TypeBuilder struct {
	meta *TypeMetadata
}

// PropertyBuilder declares metadata on one property
type PropertyBuilder struct {
	meta *PropertyMetadata
}

// ValueBuilder declares metadata on one property value
type ValueBuilder struct {
	meta *ValueMetadata
}

// Type returns the builder for t
func (b *Builder) Type(t reflect.Type) *TypeBuilder {
	tm, ok := b.metadata.types[t]
	if !ok {
		tm = &TypeMetadata{properties: make(map[string]*PropertyMetadata)}
		b.metadata.types[t] = tm
	}
	return &TypeBuilder{meta: tm}
}

// Property returns the builder for the named property
func (t *TypeBuilder) Property(name string) *PropertyBuilder {
	pm, ok := t.meta.properties[name]
	if !ok {
		pm = &PropertyMetadata{name: name, values: make(map[string]*ValueMetadata)}
		t.meta.properties[name] = pm
		t.meta.order = append(t.meta.order, name)
	}
	return &PropertyBuilder{meta: pm}
}

// Value returns the builder for the property's values under path
func (p *PropertyBuilder) Value(path extractor.Path) *ValueBuilder {
	key := path.Key()
	vm, ok := p.meta.values[key]
	if !ok {
		vm = &ValueMetadata{extractors: path}
		p.meta.values[key] = vm
		p.meta.order = append(p.meta.order, key)
	}
	return &ValueBuilder{meta: vm}
}

// InverseSide declares the path from the associated entity back to the declaring entity
func (v *ValueBuilder) InverseSide(path *modelpath.Path) error {
	if path == nil {
		return fmt.Errorf("%w: empty path", modelpath.ErrInvalidPath)
	}
	if existing := v.meta.inverseSide; existing != nil && !existing.Equal(path) {
		return fmt.Errorf("%w: %s and %s", ErrConflictingInverseSide, existing, path)
	}
	v.meta.inverseSide = path
	return nil
}

// Build returns the accumulated metadata. The builder must not be used afterwards.
func (b *Builder) Build() *Metadata {
	m := b.metadata
	b.metadata = Empty()
	return m
}
