package reindex

import (
	"fmt"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

// PropertyNodeBuilder accumulates reindexing rules applying to one property
type PropertyNodeBuilder struct {
	lifecycle
	helper   *BuildingHelper
	parent   *TypeNodeBuilder
	property *model.Property

	direct *ValueNodeBuilderDelegate
	// keyed by both the requested and the resolved spelling of the extractor path
	containers     map[string]*ContainerElementNodeBuilder
	containerOrder []*ContainerElementNodeBuilder

	allPaths []string
}

func newPropertyNodeBuilder(helper *BuildingHelper, parent *TypeNodeBuilder, prop *model.Property) *PropertyNodeBuilder {
	return &PropertyNodeBuilder{
		helper:     helper,
		parent:     parent,
		property:   prop,
		containers: make(map[string]*ContainerElementNodeBuilder),
	}
}

// Property returns the property model
func (b *PropertyNodeBuilder) Property() *model.Property { return b.property }

func (b *PropertyNodeBuilder) String() string {
	return fmt.Sprintf("property node %s.%s", b.parent.typ.Name(), b.property.Name())
}

// Value returns the delegate for the property's values under path. An empty
// resolved path yields the property value itself; otherwise the values extracted by
// the container element builder bound to path.
func (b *PropertyNodeBuilder) Value(path extractor.Path) (*ValueNodeBuilderDelegate, error) {
	bound, err := b.helper.binder.Bind(b.property.Type(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b, err)
	}
	if bound.IsEmpty() {
		if b.direct == nil {
			b.checkOpen("add value", b)
			b.direct = newValueNodeBuilderDelegate(b.helper, &b.lifecycle, b.property.Type())
		}
		return b.direct, nil
	}
	return b.containerElement(path, bound).delegate, nil
}

// ContainerElement returns the container element builder for path. Paths resolving to
// the same explicit extractors share one builder.
func (b *PropertyNodeBuilder) ContainerElement(path extractor.Path) (*ContainerElementNodeBuilder, error) {
	bound, err := b.helper.binder.Bind(b.property.Type(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b, err)
	}
	if bound.IsEmpty() {
		return nil, fmt.Errorf("%s: %w: %q applies no extractor", b, extractor.ErrInvalidPath, path.Key())
	}
	return b.containerElement(path, bound), nil
}

func (b *PropertyNodeBuilder) containerElement(requested extractor.Path, bound extractor.BoundPath) *ContainerElementNodeBuilder {
	if c, ok := b.containers[requested.Key()]; ok {
		return c
	}
	if c, ok := b.containers[bound.Path().Key()]; ok {
		b.containers[requested.Key()] = c
		return c
	}
	b.checkOpen("add container element "+bound.Path().Key(), b)
	c := newContainerElementNodeBuilder(b.helper, b, bound)
	b.containers[requested.Key()] = c
	b.containers[bound.Path().Key()] = c
	b.containerOrder = append(b.containerOrder, c)
	return c
}

func (b *PropertyNodeBuilder) freeze() {
	if !b.markFrozen() {
		return
	}
	all := make(pathSet)
	if b.direct != nil {
		b.direct.freeze()
		all.add(b.direct.allPaths...)
	}
	for _, c := range b.containerOrder {
		c.freeze()
		all.add(c.delegate.allPaths...)
	}
	b.allPaths = all.sorted()
}

func (b *PropertyNodeBuilder) build() node {
	b.freeze()
	b.state = stateBuilt

	var children []node
	if b.direct != nil {
		children = append(children, b.direct.build()...)
	}
	for _, c := range b.containerOrder {
		if n := c.build(); n != nil {
			children = append(children, n)
		}
	}
	if len(children) == 0 {
		return nil
	}
	return &propertyNode{
		property: b.property,
		paths:    b.allPaths,
		children: children,
	}
}
