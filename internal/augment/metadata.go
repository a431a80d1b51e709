// Package augment holds metadata attached to the type model by mapping authors that
// the reflection model cannot infer, chiefly the inverse side of associations.
//
// Metadata is read-only once built and is passed explicitly to whatever needs it,
// so independent mappings never share state.
package augment

import (
	"reflect"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

// Metadata is the augmented model for all types of a mapping
type Metadata struct {
	types map[reflect.Type]*TypeMetadata
}

// Empty returns metadata without any declaration
func Empty() *Metadata {
	return &Metadata{types: make(map[reflect.Type]*TypeMetadata)}
}

// Type returns the metadata declared on t, or nil
func (m *Metadata) Type(t reflect.Type) *TypeMetadata {
	if m == nil {
		return nil
	}
	return m.types[t]
}

// TypeMetadata holds per-property metadata of one type
type TypeMetadata struct {
	properties map[string]*PropertyMetadata
	order      []string
}

// Property returns the metadata declared on the named property, or nil
func (t *TypeMetadata) Property(name string) *PropertyMetadata {
	if t == nil {
		return nil
	}
	return t.properties[name]
}

// Properties returns the property metadata in declaration order
func (t *TypeMetadata) Properties() []*PropertyMetadata {
	if t == nil {
		return nil
	}
	result := make([]*PropertyMetadata, 0, len(t.order))
	for _, name := range t.order {
		result = append(result, t.properties[name])
	}
	return result
}

// PropertyMetadata holds per-extractor-path metadata of one property
type PropertyMetadata struct {
	name   string
	values map[string]*ValueMetadata
	order  []string
}

// Name returns the property name
func (p *PropertyMetadata) Name() string { return p.name }

// Value returns the metadata declared for the property's values under path, or nil.
// The lookup is by spelling: the default path and its explicit equivalent are distinct keys.
func (p *PropertyMetadata) Value(path extractor.Path) *ValueMetadata {
	if p == nil {
		return nil
	}
	return p.values[path.Key()]
}

// Values returns the value metadata in declaration order
func (p *PropertyMetadata) Values() []*ValueMetadata {
	if p == nil {
		return nil
	}
	result := make([]*ValueMetadata, 0, len(p.order))
	for _, key := range p.order {
		result = append(result, p.values[key])
	}
	return result
}

// ValueMetadata is what is known about the values of a property under one extractor path
type ValueMetadata struct {
	extractors  extractor.Path
	inverseSide *modelpath.Path
}

// Extractors returns the extractor path this metadata was declared for
func (v *ValueMetadata) Extractors() extractor.Path { return v.extractors }

// InverseSidePath returns the path from the associated entity back to the declaring
// entity, or nil when not declared
func (v *ValueMetadata) InverseSidePath() *modelpath.Path {
	if v == nil {
		return nil
	}
	return v.inverseSide
}
