package modelpath_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		hops     int
		property string
		str      string
		wantErr  bool
	}{
		{in: "Customer", hops: 1, property: "Customer", str: "Customer"},
		{in: "Orders.Items[collection].Product[]", hops: 3, property: "Orders.Items.Product", str: "Orders.Items[collection].Product[]"},
		{in: "ByCode[map-value/collection].Order", hops: 2, property: "ByCode.Order", str: "ByCode[map-value/collection].Order"},
		{in: " Address . Country ", hops: 2, property: "Address.Country", str: "Address.Country"},
		{in: "", wantErr: true},
		{in: "Orders..Items", wantErr: true},
		{in: "Items[bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := modelpath.Parse(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, modelpath.ErrInvalidPath), "%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hops, p.Len())
			assert.Equal(t, tt.property, p.PropertyPath())
			assert.Equal(t, tt.str, p.String())
		})
	}
}

func TestPath_Equal(t *testing.T) {
	a := modelpath.New("Orders", extractor.Default).Value("Items", extractor.Explicit(extractor.Collection))
	b := modelpath.MustParse("Orders.Items[collection]")
	c := modelpath.MustParse("Orders.Items")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "default and explicit spellings differ")
	assert.Equal(t, "Items", a.Last().Property)
	assert.Equal(t, "Orders", a.Parent().String())

	var root *modelpath.Path
	assert.Equal(t, 0, root.Len())
	assert.Nil(t, root.Parent())
	assert.Empty(t, root.Hops())
}

func TestBoundValue(t *testing.T) {
	intro := model.NewIntrospector()
	binder := extractor.NewBinder(intro, extractor.NewRegistry())
	customer := intro.TypeOf((*testmodel.Customer)(nil))

	orders, err := modelpath.Root(customer).Property("Orders")
	require.NoError(t, err)
	ordersValue, err := orders.Value(binder, extractor.Default)
	require.NoError(t, err)

	assert.True(t, ordersValue.RequestedExtractors().IsDefault())
	assert.Equal(t, "[collection]", ordersValue.BoundExtractors().Path().String())
	assert.True(t, ordersValue.IsDefaultEquivalent())
	assert.Equal(t, "*testmodel.Order", ordersValue.ExtractedType().Name())

	items, err := ordersValue.Type().Property("Items")
	require.NoError(t, err)
	itemsValue, err := items.Value(binder, extractor.Explicit(extractor.Collection))
	require.NoError(t, err)
	assert.True(t, itemsValue.IsDefaultEquivalent())

	assert.Same(t, customer, itemsValue.RootType())
	assert.Equal(t, "*testmodel.Customer.Orders[collection].Items[collection]", itemsValue.String())
	assert.Equal(t, "Orders[collection].Items[collection]", itemsValue.Unbound().String())
	assert.Equal(t, "Orders.Items", itemsValue.Unbound().PropertyPath())
	assert.Len(t, itemsValue.Hops(), 2)

	address, err := modelpath.Root(customer).Property("Address")
	require.NoError(t, err)
	addressValue, err := address.Value(binder, extractor.None)
	require.NoError(t, err)
	assert.True(t, addressValue.IsDefaultEquivalent())

	_, err = modelpath.Root(customer).Property("Nope")
	assert.True(t, errors.Is(err, model.ErrUnknownProperty))
	_, err = orders.Value(binder, extractor.Explicit(extractor.MapKey))
	assert.True(t, errors.Is(err, extractor.ErrInvalidPath))
}
