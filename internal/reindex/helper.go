// Package reindex computes, at bootstrap, which entities must be reindexed when an
// entity changes, and evaluates that at runtime.
//
// Mapping code walks each indexed type with a dependency collector, declaring which
// paths feed the index. The collector inverts every association crossed on the way and
// records, in the resolver builder of each contained entity type, how to get back to the
// indexed entity. Builders are then frozen and built into immutable Resolvers.
//
// Bootstrap is single-threaded; built resolvers may be used concurrently.
package reindex

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

// BuildingHelper owns the resolver builders of one mapping and the collaborators
// needed to fill them
type BuildingHelper struct {
	introspector *model.Introspector
	binder       *extractor.Binder
	metadata     *augment.Metadata
	entities     *model.EntityTypes
	inverter     *PathInverter
	logger       *zap.Logger

	builders map[reflect.Type]*ResolverBuilder
	order    []*ResolverBuilder
	frozen   bool
}

// HelperOption configures a BuildingHelper
type HelperOption func(*BuildingHelper)

// WithLogger sets the logger used during bootstrap
func WithLogger(logger *zap.Logger) HelperOption {
	return func(h *BuildingHelper) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewBuildingHelper creates a helper for the given entity types
func NewBuildingHelper(
	introspector *model.Introspector,
	binder *extractor.Binder,
	metadata *augment.Metadata,
	entities *model.EntityTypes,
	opts ...HelperOption,
) *BuildingHelper {
	h := &BuildingHelper{
		introspector: introspector,
		binder:       binder,
		metadata:     metadata,
		entities:     entities,
		inverter:     NewPathInverter(binder, metadata, entities),
		logger:       zap.NewNop(),
		builders:     make(map[reflect.Type]*ResolverBuilder),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Binder returns the extractor binder
func (h *BuildingHelper) Binder() *extractor.Binder { return h.binder }

// Entities returns the entity types
func (h *BuildingHelper) Entities() *model.EntityTypes { return h.entities }

// Inverter returns the association path inverter
func (h *BuildingHelper) Inverter() *PathInverter { return h.inverter }

// GetOrCreateResolverBuilder returns the builder for t. Every call with the same type
// returns the same builder.
func (h *BuildingHelper) GetOrCreateResolverBuilder(t *model.TypeModel) *ResolverBuilder {
	if b, ok := h.builders[t.Type()]; ok {
		return b
	}
	if h.frozen {
		panic(fmt.Errorf("%w: cannot create resolver builder for %s", ErrBuilderFrozen, t.Name()))
	}
	b := newResolverBuilder(h, t)
	h.builders[t.Type()] = b
	h.order = append(h.order, b)
	return b
}

// NewDependencyCollector returns the root collector node for the indexed entity type root
func (h *BuildingHelper) NewDependencyCollector(root *model.TypeModel) (*CollectorTypeNode, error) {
	if !h.entities.IsEntity(root) {
		return nil, fmt.Errorf("%w: %s", ErrNotAnEntity, root.Name())
	}
	if h.frozen {
		panic(fmt.Errorf("%w: cannot collect dependencies of %s", ErrBuilderFrozen, root.Name()))
	}
	return newRootCollector(h, root), nil
}

// Freeze freezes every builder
func (h *BuildingHelper) Freeze() {
	h.frozen = true
	for _, b := range h.order {
		b.Freeze()
	}
}

// Build freezes everything and returns the resolver for t, if t needs one
func (h *BuildingHelper) Build(t *model.TypeModel) (*Resolver, bool) {
	h.Freeze()
	b, ok := h.builders[t.Type()]
	if !ok {
		return nil, false
	}
	return b.Build()
}

// BuildAll freezes everything and returns the resolvers of all types that need one
func (h *BuildingHelper) BuildAll() map[reflect.Type]*Resolver {
	h.Freeze()
	result := make(map[reflect.Type]*Resolver, len(h.order))
	for _, b := range h.order {
		r, ok := b.Build()
		if !ok {
			h.logger.Debug("pruned resolver", zap.String("type", b.typ.Name()))
			continue
		}
		result[b.typ.Type()] = r
	}
	h.logger.Debug("built resolvers",
		zap.Int("builders", len(h.order)),
		zap.Int("resolvers", len(result)))
	return result
}
