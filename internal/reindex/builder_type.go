package reindex

import (
	"fmt"

	"github.com/conduit-lang/searchmap/internal/model"
)

// TypeNodeBuilder accumulates reindexing rules applying to values of one type.
// A casted builder applies only to values whose runtime type is its type.
type TypeNodeBuilder struct {
	lifecycle
	helper *BuildingHelper
	typ    *model.TypeModel
	casted bool

	properties map[string]*PropertyNodeBuilder
	propOrder  []*PropertyNodeBuilder
	marks      pathSet

	// set by freeze
	frozenMarks []string
	allPaths    []string
}

func newTypeNodeBuilder(helper *BuildingHelper, t *model.TypeModel, casted bool) *TypeNodeBuilder {
	return &TypeNodeBuilder{
		helper:     helper,
		typ:        t,
		casted:     casted,
		properties: make(map[string]*PropertyNodeBuilder),
		marks:      make(pathSet),
	}
}

// Type returns the type this builder applies to
func (b *TypeNodeBuilder) Type() *model.TypeModel { return b.typ }

// IsCasted reports whether values must be checked against the type at runtime
func (b *TypeNodeBuilder) IsCasted() bool { return b.casted }

func (b *TypeNodeBuilder) String() string {
	if b.casted {
		return fmt.Sprintf("type node (%s)", b.typ.Name())
	}
	return fmt.Sprintf("type node %s", b.typ.Name())
}

// Property returns the builder for the named property, creating it on first request
func (b *TypeNodeBuilder) Property(name string) (*PropertyNodeBuilder, error) {
	if p, ok := b.properties[name]; ok {
		return p, nil
	}
	b.checkOpen("add property "+name, b)
	prop, err := b.typ.Property(name)
	if err != nil {
		return nil, err
	}
	p := newPropertyNodeBuilder(b.helper, b, prop)
	b.properties[name] = p
	b.propOrder = append(b.propOrder, p)
	return p, nil
}

// MarkForReindexing records that the value reached at this node must be reindexed
// whenever dirtyPath changes on the entity the resolver starts from
func (b *TypeNodeBuilder) MarkForReindexing(dirtyPath string) {
	b.checkOpen("mark for reindexing", b)
	b.marks.add(dirtyPath)
}

// DirtyPaths returns every dirty path triggering reindexing at or below this node.
// It is only available once frozen.
func (b *TypeNodeBuilder) DirtyPaths() []string {
	return b.allPaths
}

func (b *TypeNodeBuilder) freeze() {
	if !b.markFrozen() {
		return
	}
	all := make(pathSet)
	for _, p := range b.propOrder {
		p.freeze()
		all.add(p.allPaths...)
	}
	b.frozenMarks = b.marks.sorted()
	all.add(b.frozenMarks...)
	b.allPaths = all.sorted()
}

// build returns the runtime node, or nil when nothing below this node marks anything
func (b *TypeNodeBuilder) build() node {
	b.freeze()
	b.state = stateBuilt

	var children []node
	for _, p := range b.propOrder {
		if n := p.build(); n != nil {
			children = append(children, n)
		}
	}
	if len(b.frozenMarks) > 0 {
		children = append(children, &markingNode{paths: b.frozenMarks})
	}
	if len(children) == 0 {
		return nil
	}
	if b.casted {
		return &castedTypeNode{typ: b.typ, children: children}
	}
	return &typeNode{typ: b.typ, children: children}
}
