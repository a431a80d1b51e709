package reindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

type fixture struct {
	introspector *model.Introspector
	binder       *extractor.Binder
	metadata     *augment.Metadata
	entities     *model.EntityTypes
	helper       *BuildingHelper
}

// newFixture declares the samples as entity types. Inverse sides come from struct tags
// when withTags is set, then from declare.
func newFixture(t *testing.T, withTags bool, declare func(b *augment.Builder), samples ...interface{}) *fixture {
	t.Helper()
	intro := model.NewIntrospector()
	types := make([]*model.TypeModel, len(samples))
	for i, s := range samples {
		types[i] = intro.TypeOf(s)
	}
	entities, err := model.NewEntityTypes(types)
	require.NoError(t, err)

	mb := augment.NewBuilder()
	if withTags {
		for _, tm := range types {
			if !tm.IsAbstract() {
				require.NoError(t, mb.AddStructTags(tm))
			}
		}
	}
	if declare != nil {
		declare(mb)
	}
	metadata := mb.Build()
	binder := extractor.NewBinder(intro, extractor.NewRegistry())
	return &fixture{
		introspector: intro,
		binder:       binder,
		metadata:     metadata,
		entities:     entities,
		helper:       NewBuildingHelper(intro, binder, metadata, entities),
	}
}

func (f *fixture) typ(sample interface{}) *model.TypeModel {
	return f.introspector.TypeOf(sample)
}

func (f *fixture) collector(t *testing.T, sample interface{}) *CollectorTypeNode {
	t.Helper()
	root, err := f.helper.NewDependencyCollector(f.typ(sample))
	require.NoError(t, err)
	return root
}

// walk follows path from node, collecting every value crossed, and returns the last value
func walk(node *CollectorTypeNode, path string) (*CollectorValueNode, error) {
	p, err := modelpath.Parse(path)
	if err != nil {
		return nil, err
	}
	var value *CollectorValueNode
	for i, hop := range p.Hops() {
		if i > 0 {
			if err := value.CollectDependency(); err != nil {
				return nil, err
			}
			node = value.Type()
		}
		prop, err := node.Property(hop.Property)
		if err != nil {
			return nil, err
		}
		if value, err = prop.Value(hop.Extractors); err != nil {
			return nil, err
		}
	}
	return value, value.CollectDependency()
}

func mustWalk(t *testing.T, node *CollectorTypeNode, paths ...string) {
	t.Helper()
	for _, p := range paths {
		_, err := walk(node, p)
		require.NoError(t, err, p)
	}
}

func declareInverse(b *augment.Builder, sample interface{}, property string, extractors extractor.Path, inverse string) {
	intro := model.NewIntrospector()
	err := b.Type(intro.TypeOf(sample).Type()).Property(property).Value(extractors).InverseSide(modelpath.MustParse(inverse))
	if err != nil {
		panic(err)
	}
}
