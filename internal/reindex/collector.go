package reindex

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

// CollectorTypeNode is a position in the walk of an indexed entity's dependencies,
// at a value of a given type
type CollectorTypeNode struct {
	helper *BuildingHelper
	parent *CollectorValueNode
	typ    *model.TypeModel

	// lastEntity is the closest entity node at or above this one
	lastEntity     *CollectorTypeNode
	fromLastEntity *modelpath.BoundType
	fromRoot       *modelpath.BoundType
}

func newRootCollector(h *BuildingHelper, root *model.TypeModel) *CollectorTypeNode {
	n := &CollectorTypeNode{
		helper:         h,
		typ:            root,
		fromLastEntity: modelpath.Root(root),
		fromRoot:       modelpath.Root(root),
	}
	n.lastEntity = n
	return n
}

// Type returns the type at this node
func (n *CollectorTypeNode) Type() *model.TypeModel { return n.typ }

// IsEntity reports whether this node crosses into an entity
func (n *CollectorTypeNode) IsEntity() bool { return n.lastEntity == n }

// Property walks into the named property
func (n *CollectorTypeNode) Property(name string) (*CollectorPropertyNode, error) {
	fromLast, err := n.fromLastEntity.Property(name)
	if err != nil {
		return nil, err
	}
	fromRoot, err := n.fromRoot.Property(name)
	if err != nil {
		return nil, err
	}
	return &CollectorPropertyNode{parent: n, fromLastEntity: fromLast, fromRoot: fromRoot}, nil
}

// collectDependency records that the index of the root entity depends on dirtyPath of
// the entity at this node. The dirty path is relative to this node.
func (n *CollectorTypeNode) collectDependency(dirtyPath *modelpath.BoundValue) error {
	path := dirtyPath.Unbound().PropertyPath()
	concreteTypes := n.helper.entities.ConcreteSubTypes(n.typ)

	if n.parent == nil {
		for _, c := range concreteTypes {
			n.helper.GetOrCreateResolverBuilder(c).AddDirtyPathTriggeringSelfReindexing(path)
		}
		return nil
	}

	var errs error
	for _, c := range concreteTypes {
		b := n.helper.GetOrCreateResolverBuilder(c)
		errs = multierr.Append(errs, n.parent.markForReindexing(b.Root(), c, path))
	}
	return errs
}

// CollectorPropertyNode is a property in the dependency walk
type CollectorPropertyNode struct {
	parent         *CollectorTypeNode
	fromLastEntity *modelpath.BoundProperty
	fromRoot       *modelpath.BoundProperty
}

// Property returns the property model
func (p *CollectorPropertyNode) Property() *model.Property { return p.fromRoot.Property() }

// Value walks into the property's values under the given extractor path
func (p *CollectorPropertyNode) Value(path extractor.Path) (*CollectorValueNode, error) {
	binder := p.parent.helper.binder
	fromLast, err := p.fromLastEntity.Value(binder, path)
	if err != nil {
		return nil, err
	}
	fromRoot, err := p.fromRoot.Value(binder, path)
	if err != nil {
		return nil, err
	}
	return &CollectorValueNode{parent: p, fromLastEntity: fromLast, fromRoot: fromRoot}, nil
}

// CollectorValueNode is a property value, after extraction, in the dependency walk
type CollectorValueNode struct {
	parent         *CollectorPropertyNode
	fromLastEntity *modelpath.BoundValue
	fromRoot       *modelpath.BoundValue
}

// Path returns the bound path from the indexed entity to this value
func (v *CollectorValueNode) Path() *modelpath.BoundValue { return v.fromRoot }

// ExtractedType returns the static type of the values
func (v *CollectorValueNode) ExtractedType() *model.TypeModel {
	return v.fromRoot.ExtractedType()
}

// Type walks into the values' own properties
func (v *CollectorValueNode) Type() *CollectorTypeNode {
	return v.newTypeNode(v.ExtractedType())
}

// CastedType walks into the properties of the values whose runtime type is t
func (v *CollectorValueNode) CastedType(t *model.TypeModel) (*CollectorTypeNode, error) {
	extracted := v.ExtractedType()
	if !t.IsSubTypeOf(extracted) && !extracted.IsSubTypeOf(t) {
		return nil, fmt.Errorf("cannot cast %s values of %s to %s", extracted.Name(), v.fromRoot, t.Name())
	}
	return v.newTypeNode(t), nil
}

// CollectDependency declares that the index of the root entity depends on this value
func (v *CollectorValueNode) CollectDependency() error {
	return v.lastEntity().collectDependency(v.fromLastEntity)
}

func (v *CollectorValueNode) lastEntity() *CollectorTypeNode {
	return v.parent.parent.lastEntity
}

func (v *CollectorValueNode) newTypeNode(t *model.TypeModel) *CollectorTypeNode {
	h := v.parent.parent.helper
	n := &CollectorTypeNode{
		helper:   h,
		parent:   v,
		typ:      t,
		fromRoot: v.fromRoot.CastedType(t),
	}
	if h.entities.IsEntity(t) {
		n.lastEntity = n
		n.fromLastEntity = modelpath.Root(t)
	} else {
		n.lastEntity = v.lastEntity()
		n.fromLastEntity = v.fromLastEntity.CastedType(t)
	}
	return n
}

// markForReindexing is called when an entity reached through this value (an association)
// changes. inverseSide is the builder position, within the changed entity's resolver,
// holding values of inverseSideType; dirtyPath is relative to the changed entity.
//
// The association from the last entity to this value is inverted and applied to
// inverseSide. At the root entity the reached values are marked; otherwise the walk
// continues with the association leading to the last entity.
func (v *CollectorValueNode) markForReindexing(inverseSide *TypeNodeBuilder, inverseSideType *model.TypeModel, dirtyPath string) error {
	last := v.lastEntity()
	inverse, err := v.parent.parent.helper.inverter.InvertPath(inverseSideType, v.fromLastEntity)
	if err != nil {
		return err
	}

	delegate, err := applyInversePath(inverseSide, inverse)
	if err != nil {
		return &InversionError{
			InverseSideType: inverseSideType.Name(),
			Path:            v.fromLastEntity.String(),
			Cause:           fmt.Errorf("inverse path %s: %w", inverse, err),
		}
	}

	expected := last.typ
	actual := delegate.ValueType()
	if !expected.IsSubTypeOf(actual) && !actual.IsSubTypeOf(expected) {
		return &IncompatibleTypeError{
			Path:            v.fromLastEntity.String(),
			InversePath:     inverse.String(),
			InverseSideType: inverseSideType.Name(),
			ActualType:      actual.Name(),
			ExpectedType:    expected.Name(),
		}
	}

	next := delegate.Type(expected)
	if last.parent == nil {
		next.MarkForReindexing(dirtyPath)
		return nil
	}
	return last.parent.markForReindexing(next, expected, dirtyPath)
}

func applyInversePath(start *TypeNodeBuilder, path *modelpath.Path) (*ValueNodeBuilderDelegate, error) {
	current := start
	var delegate *ValueNodeBuilderDelegate
	for i, hop := range path.Hops() {
		if i > 0 {
			current = delegate.Type(delegate.ValueType())
		}
		p, err := current.Property(hop.Property)
		if err != nil {
			return nil, err
		}
		delegate, err = p.Value(hop.Extractors)
		if err != nil {
			return nil, err
		}
	}
	return delegate, nil
}
