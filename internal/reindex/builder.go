package reindex

import (
	"fmt"

	"github.com/conduit-lang/searchmap/internal/model"
)

// ResolverBuilder accumulates everything that must happen when an entity of one
// concrete type changes: which of its own paths trigger its reindexing, and through
// which associations to reach the other entities embedding it.
type ResolverBuilder struct {
	lifecycle
	typ       *model.TypeModel
	root      *TypeNodeBuilder
	selfPaths pathSet

	frozenSelfPaths []string
}

func newResolverBuilder(helper *BuildingHelper, t *model.TypeModel) *ResolverBuilder {
	return &ResolverBuilder{
		typ:       t,
		root:      newTypeNodeBuilder(helper, t, false),
		selfPaths: make(pathSet),
	}
}

// Type returns the entity type
func (b *ResolverBuilder) Type() *model.TypeModel { return b.typ }

// Root returns the type node builder for the dirty entity itself
func (b *ResolverBuilder) Root() *TypeNodeBuilder { return b.root }

func (b *ResolverBuilder) String() string {
	return fmt.Sprintf("resolver builder %s", b.typ.Name())
}

// AddDirtyPathTriggeringSelfReindexing records that changing dirtyPath requires
// reindexing the entity itself
func (b *ResolverBuilder) AddDirtyPathTriggeringSelfReindexing(dirtyPath string) {
	b.checkOpen("add self dirty path", b)
	b.selfPaths.add(dirtyPath)
}

// Freeze stops further mutation, children first. Calling it again has no effect.
func (b *ResolverBuilder) Freeze() {
	if !b.markFrozen() {
		return
	}
	b.root.freeze()
	b.frozenSelfPaths = b.selfPaths.sorted()
}

// IsFrozen reports whether Freeze was called
func (b *ResolverBuilder) IsFrozen() bool {
	return b.frozen()
}

// Build freezes the builder and returns the immutable resolver, or false when
// changing an entity of this type never requires reindexing anything.
func (b *ResolverBuilder) Build() (*Resolver, bool) {
	b.Freeze()
	b.state = stateBuilt

	root := b.root.build()
	if root == nil && len(b.frozenSelfPaths) == 0 {
		return nil, false
	}
	return &Resolver{
		typ:       b.typ,
		root:      root,
		selfPaths: b.frozenSelfPaths,
	}, true
}
