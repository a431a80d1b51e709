package reindex

import (
	"fmt"

	"github.com/conduit-lang/searchmap/internal/extractor"
)

// ContainerElementNodeBuilder accumulates rules applying to the values extracted
// from a container property by one bound extractor path
type ContainerElementNodeBuilder struct {
	lifecycle
	parent   *PropertyNodeBuilder
	bound    extractor.BoundPath
	chain    extractor.Chain
	delegate *ValueNodeBuilderDelegate
}

func newContainerElementNodeBuilder(helper *BuildingHelper, parent *PropertyNodeBuilder, bound extractor.BoundPath) *ContainerElementNodeBuilder {
	c := &ContainerElementNodeBuilder{
		parent: parent,
		bound:  bound,
		chain:  helper.binder.Create(bound),
	}
	c.delegate = newValueNodeBuilderDelegate(helper, &c.lifecycle, bound.ExtractedType())
	return c
}

// ExtractorPath returns the resolved extractor path
func (c *ContainerElementNodeBuilder) ExtractorPath() extractor.Path { return c.bound.Path() }

// Value returns the delegate for extracted values
func (c *ContainerElementNodeBuilder) Value() *ValueNodeBuilderDelegate { return c.delegate }

func (c *ContainerElementNodeBuilder) String() string {
	return fmt.Sprintf("container element node %s%s", c.parent.property.Name(), c.bound.Path())
}

func (c *ContainerElementNodeBuilder) freeze() {
	if !c.markFrozen() {
		return
	}
	c.delegate.freeze()
}

func (c *ContainerElementNodeBuilder) build() node {
	c.freeze()
	c.state = stateBuilt
	children := c.delegate.build()
	if len(children) == 0 {
		return nil
	}
	return &containerElementNode{chain: c.chain, children: children}
}
