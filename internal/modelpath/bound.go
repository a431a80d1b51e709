package modelpath

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

// BoundType is a bound path ending at a type: either a root, or the type of the
// values reached through a parent value node
type BoundType struct {
	parent *BoundValue
	typ    *model.TypeModel
}

// Root returns a bound path rooted at t
func Root(t *model.TypeModel) *BoundType {
	return &BoundType{typ: t}
}

// Type returns the type at this node
func (t *BoundType) Type() *model.TypeModel { return t.typ }

// Parent returns the value node leading here, nil at the root
func (t *BoundType) Parent() *BoundValue { return t.parent }

// RootType returns the type at the start of the path
func (t *BoundType) RootType() *model.TypeModel {
	if t.parent == nil {
		return t.typ
	}
	return t.parent.RootType()
}

// Property binds a property of this type
func (t *BoundType) Property(name string) (*BoundProperty, error) {
	p, err := t.typ.Property(name)
	if err != nil {
		return nil, err
	}
	return &BoundProperty{parent: t, property: p}, nil
}

// BoundProperty is a bound path ending at a property
type BoundProperty struct {
	parent   *BoundType
	property *model.Property
}

// Parent returns the type declaring the property
func (p *BoundProperty) Parent() *BoundType { return p.parent }

// Property returns the property model
func (p *BoundProperty) Property() *model.Property { return p.property }

// Value binds the given extractor path on the property's value
func (p *BoundProperty) Value(binder *extractor.Binder, path extractor.Path) (*BoundValue, error) {
	bound, err := binder.Bind(p.property.Type(), path)
	if err != nil {
		return nil, fmt.Errorf("property %s of %s: %w", p.property.Name(), p.parent.typ.Name(), err)
	}
	isDefault := binder.IsDefaultPath(p.property.Type(), bound.Path())
	return &BoundValue{parent: p, requested: path, bound: bound, defaultEquivalent: isDefault}, nil
}

// BoundValue is a bound path ending at the values of a property after extraction
type BoundValue struct {
	parent            *BoundProperty
	requested         extractor.Path
	bound             extractor.BoundPath
	defaultEquivalent bool
}

// Parent returns the property node
func (v *BoundValue) Parent() *BoundProperty { return v.parent }

// RequestedExtractors returns the extractor path as requested, possibly default
func (v *BoundValue) RequestedExtractors() extractor.Path { return v.requested }

// BoundExtractors returns the resolved extractor path
func (v *BoundValue) BoundExtractors() extractor.BoundPath { return v.bound }

// IsDefaultEquivalent reports whether the resolved extractors are those the default path yields
func (v *BoundValue) IsDefaultEquivalent() bool { return v.defaultEquivalent }

// ExtractedType returns the static type of the values at this node
func (v *BoundValue) ExtractedType() *model.TypeModel { return v.bound.ExtractedType() }

// RootType returns the type at the start of the path
func (v *BoundValue) RootType() *model.TypeModel { return v.parent.parent.RootType() }

// Type continues the path into the extracted values' type
func (v *BoundValue) Type() *BoundType {
	return &BoundType{parent: v, typ: v.ExtractedType()}
}

// CastedType continues the path into the extracted values, viewed as t
func (v *BoundValue) CastedType(t *model.TypeModel) *BoundType {
	return &BoundType{parent: v, typ: t}
}

// Unbound returns the unbound path using resolved, explicit extractor paths
func (v *BoundValue) Unbound() *Path {
	var parent *Path
	if pv := v.parent.parent.parent; pv != nil {
		parent = pv.Unbound()
	}
	return parent.Value(v.parent.property.Name(), v.bound.Path())
}

// Hops returns the value nodes from the root to v
func (v *BoundValue) Hops() []*BoundValue {
	var hops []*BoundValue
	for cur := v; cur != nil; cur = cur.parent.parent.parent {
		hops = append(hops, cur)
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops
}

// String renders the path with its root type, e.g. "*shop.Order.Lines[collection]"
func (v *BoundValue) String() string {
	var b strings.Builder
	b.WriteString(v.RootType().Name())
	for _, hop := range v.Hops() {
		b.WriteByte('.')
		b.WriteString(hop.parent.property.Name())
		b.WriteString(hop.bound.Path().String())
	}
	return b.String()
}
