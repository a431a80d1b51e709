package reindex

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

func assertFrozenPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, ErrBuilderFrozen), err.Error())
	}()
	fn()
}

func TestPropertyNodeBuilder_DefaultAndExplicitShareContainer(t *testing.T) {
	f := shopFixture(t)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.Order)(nil)))

	items, err := b.Root().Property("Items")
	require.NoError(t, err)

	byDefault, err := items.ContainerElement(extractor.Default)
	require.NoError(t, err)
	explicit, err := items.ContainerElement(extractor.Explicit(extractor.Collection))
	require.NoError(t, err)
	assert.Same(t, byDefault, explicit)
	assert.Equal(t, "[collection]", byDefault.ExtractorPath().String())

	v1, err := items.Value(extractor.Explicit(extractor.Collection))
	require.NoError(t, err)
	v2, err := items.Value(extractor.Default)
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Same(t, byDefault.Value(), v1)

	_, err = items.ContainerElement(extractor.None)
	assert.True(t, errors.Is(err, extractor.ErrInvalidPath))

	_, err = items.Value(extractor.Explicit(extractor.MapKey))
	assert.Error(t, err)
}

func TestPropertyNodeBuilder_DirectValue(t *testing.T) {
	f := shopFixture(t)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.OrderLine)(nil)))

	order, err := b.Root().Property("Order")
	require.NoError(t, err)
	v1, err := order.Value(extractor.Default)
	require.NoError(t, err)
	v2, err := order.Value(extractor.None)
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Equal(t, "*testmodel.Order", v1.ValueType().Name())

	_, err = b.Root().Property("Missing")
	assert.Error(t, err)
}

func TestValueNodeBuilderDelegate_Type(t *testing.T) {
	f := newFixture(t, true, nil,
		(*testmodel.Person)(nil),
		(*testmodel.Shelter)(nil),
		(*testmodel.Pet)(nil),
		(*testmodel.Dog)(nil),
	)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.Dog)(nil)))
	keeper, err := b.Root().Property("Keeper")
	require.NoError(t, err)
	v, err := keeper.Value(extractor.Default)
	require.NoError(t, err)

	keeperType := f.typ((*testmodel.Keeper)(nil))
	person := f.typ((*testmodel.Person)(nil))

	original := v.Type(keeperType)
	assert.False(t, original.IsCasted())
	assert.Same(t, original, v.Type(keeperType))

	casted := v.Type(person)
	assert.True(t, casted.IsCasted())
	assert.Same(t, casted, v.Type(person))
	assert.NotSame(t, original, casted)
}

func TestResolverBuilder_Freeze(t *testing.T) {
	f := shopFixture(t)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.Order)(nil)))
	b.AddDirtyPathTriggeringSelfReindexing("Total")
	customer, err := b.Root().Property("Customer")
	require.NoError(t, err)
	value, err := customer.Value(extractor.Default)
	require.NoError(t, err)
	value.MarkForReindexing("Total")

	require.False(t, b.IsFrozen())
	b.Freeze()
	b.Freeze()
	assert.True(t, b.IsFrozen())
	assert.Equal(t, []string{"Total"}, b.Root().DirtyPaths())

	assertFrozenPanic(t, func() { b.AddDirtyPathTriggeringSelfReindexing("Note") })
	assertFrozenPanic(t, func() { b.Root().MarkForReindexing("Note") })
	assertFrozenPanic(t, func() { _, _ = b.Root().Property("Items") })
	assertFrozenPanic(t, func() { value.MarkForReindexing("Note") })

	// existing children remain reachable
	again, err := b.Root().Property("Customer")
	require.NoError(t, err)
	assert.Same(t, customer, again)

	r, ok := b.Build()
	require.True(t, ok)
	assert.Equal(t, []string{"Total"}, r.SelfDirtyPaths())
}

func TestBuildingHelper_FreezeStopsCreation(t *testing.T) {
	f := shopFixture(t)
	order := f.typ((*testmodel.Order)(nil))
	b := f.helper.GetOrCreateResolverBuilder(order)
	assert.Same(t, b, f.helper.GetOrCreateResolverBuilder(order))

	f.helper.Freeze()
	f.helper.Freeze()
	assert.True(t, b.IsFrozen())
	assert.Same(t, b, f.helper.GetOrCreateResolverBuilder(order))

	assertFrozenPanic(t, func() {
		f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.Customer)(nil)))
	})
	assertFrozenPanic(t, func() {
		_, _ = f.helper.NewDependencyCollector(order)
	})
}

func TestResolverBuilder_Pruning(t *testing.T) {
	f := shopFixture(t)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.OrderLine)(nil)))

	order, err := b.Root().Property("Order")
	require.NoError(t, err)
	value, err := order.Value(extractor.Default)
	require.NoError(t, err)
	customer, err := value.Type(value.ValueType()).Property("Customer")
	require.NoError(t, err)
	_, err = customer.Value(extractor.Default)
	require.NoError(t, err)

	r, ok := b.Build()
	assert.False(t, ok)
	assert.Nil(t, r)

	resolvers := f.helper.BuildAll()
	assert.Empty(t, resolvers)
}

func TestResolverBuilder_PrunesOnlyEmptyBranches(t *testing.T) {
	f := shopFixture(t)
	b := f.helper.GetOrCreateResolverBuilder(f.typ((*testmodel.Order)(nil)))

	items, err := b.Root().Property("Items")
	require.NoError(t, err)
	_, err = items.Value(extractor.Default)
	require.NoError(t, err)

	customer, err := b.Root().Property("Customer")
	require.NoError(t, err)
	value, err := customer.Value(extractor.Default)
	require.NoError(t, err)
	value.MarkForReindexing("Total")

	r, ok := b.Build()
	require.True(t, ok)
	assert.NotContains(t, r.String(), "Items")
	assert.Contains(t, r.String(), "property Customer")

	_, order, _, _ := testmodel.NewShop()
	assert.Equal(t, []interface{}{order.Customer}, r.ResolveEntitiesToReindex(order, nil).Items())
}

func exampleHelper() (*model.Introspector, *BuildingHelper) {
	intro := model.NewIntrospector()
	entities, _ := model.NewEntityTypes([]*model.TypeModel{
		intro.TypeOf((*testmodel.Order)(nil)),
		intro.TypeOf((*testmodel.OrderLine)(nil)),
	})
	binder := extractor.NewBinder(intro, extractor.NewRegistry())
	return intro, NewBuildingHelper(intro, binder, augment.Empty(), entities)
}

func ExampleResolver_String() {
	intro, helper := exampleHelper()
	b := helper.GetOrCreateResolverBuilder(intro.TypeOf((*testmodel.Order)(nil)))
	b.AddDirtyPathTriggeringSelfReindexing("Total")
	items, _ := b.Root().Property("Items")
	lines, _ := items.Value(extractor.Default)
	lines.MarkForReindexing("Total")

	r, _ := b.Build()
	fmt.Print(r)
	// Output:
	// resolver *testmodel.Order
	//   self [Total]
	//   type *testmodel.Order
	//     property Items
	//       elements [collection]
	//         type *testmodel.OrderLine
	//           reindex [Total]
}
