package augment_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
	"github.com/conduit-lang/searchmap/internal/searchtag"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

var (
	orderType    = reflect.TypeOf(&testmodel.Order{})
	customerType = reflect.TypeOf(&testmodel.Customer{})
	countryType  = reflect.TypeOf(&testmodel.Country{})
)

func TestBuilder_InverseSide(t *testing.T) {
	b := augment.NewBuilder()
	items := b.Type(orderType).Property("Items")

	require.NoError(t, items.Value(extractor.Default).InverseSide(modelpath.MustParse("Order")))
	require.NoError(t, items.Value(extractor.Default).InverseSide(modelpath.MustParse("Order")))
	err := items.Value(extractor.Default).InverseSide(modelpath.MustParse("Customer"))
	assert.True(t, errors.Is(err, augment.ErrConflictingInverseSide))
	assert.True(t, errors.Is(items.Value(extractor.None).InverseSide(nil), modelpath.ErrInvalidPath))

	m := b.Build()
	pm := m.Type(orderType).Property("Items")
	require.NotNil(t, pm)
	assert.Equal(t, "Order", pm.Value(extractor.Default).InverseSidePath().String())
	assert.Nil(t, pm.Value(extractor.Explicit(extractor.Collection)), "lookup is by spelling")
	assert.Len(t, pm.Values(), 2)

	assert.Nil(t, m.Type(customerType))
	assert.Nil(t, m.Type(customerType).Property("Orders").Value(extractor.Default).InverseSidePath())
	assert.Empty(t, m.Type(customerType).Properties())
}

func TestBuilder_AddStructTags(t *testing.T) {
	intro := model.NewIntrospector()
	b := augment.NewBuilder()
	for _, sample := range []interface{}{&testmodel.Customer{}, &testmodel.Order{}, &testmodel.Country{}} {
		require.NoError(t, b.AddStructTags(intro.TypeOf(sample)))
	}
	m := b.Build()

	inverse := func(rt reflect.Type, property string) string {
		p := m.Type(rt).Property(property).Value(extractor.Default).InverseSidePath()
		if p == nil {
			return ""
		}
		return p.String()
	}
	assert.Equal(t, "Customer", inverse(customerType, "Orders"))
	assert.Equal(t, "Order", inverse(orderType, "Items"))
	assert.Equal(t, "Orders", inverse(orderType, "Customer"))
	assert.Equal(t, "Address.Country", inverse(countryType, "Residents"))
	assert.Equal(t, "", inverse(customerType, "Address"))
}

type badTag struct {
	Lines []string `search:"inverse=Order,extract=collection"`
}

type explicitTag struct {
	Lines []*testmodel.OrderLine `search:"embedded,extract=[collection],inverse=Order"`
}

func TestBuilder_AddStructTagsErrors(t *testing.T) {
	intro := model.NewIntrospector()

	err := augment.NewBuilder().AddStructTags(intro.TypeOf(&badTag{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, extractor.ErrInvalidPath))
	assert.Contains(t, err.Error(), "Lines")

	b := augment.NewBuilder()
	require.NoError(t, b.AddStructTags(intro.TypeOf(&explicitTag{})))
	pm := b.Build().Type(reflect.TypeOf(&explicitTag{})).Property("Lines")
	assert.Nil(t, pm.Value(extractor.Default))
	assert.NotNil(t, pm.Value(extractor.Explicit(extractor.Collection)).InverseSidePath())
}

type brokenTag struct {
	Name string `search:"depth=2"`
}

func TestBuilder_AddStructTagsInvalidDirective(t *testing.T) {
	err := augment.NewBuilder().AddStructTags(model.NewIntrospector().TypeOf(&brokenTag{}))
	assert.True(t, errors.Is(err, searchtag.ErrInvalidTag))
}

func TestBuilder_LoadYAML(t *testing.T) {
	types := map[string]reflect.Type{
		orderType.String():    orderType,
		customerType.String(): customerType,
	}
	doc := `
types:
  "*testmodel.Order":
    Items:
      - extract: "[collection]"
        inverse: Order
    Note:
      - extract: "[optional]"
  "*testmodel.Customer":
    Orders:
      - inverse: Customer
`
	b := augment.NewBuilder()
	require.NoError(t, b.LoadYAML(strings.NewReader(doc), types))
	m := b.Build()

	items := m.Type(orderType).Property("Items")
	assert.Equal(t, "Order", items.Value(extractor.Explicit(extractor.Collection)).InverseSidePath().String())
	assert.Nil(t, m.Type(orderType).Property("Note"))
	assert.Equal(t, "Customer", m.Type(customerType).Property("Orders").Value(extractor.Default).InverseSidePath().String())
}

func TestBuilder_LoadYAMLErrors(t *testing.T) {
	types := map[string]reflect.Type{orderType.String(): orderType}

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown type", "types:\n  \"*x.Y\":\n    A:\n      - inverse: B\n", "unknown type"},
		{"bad extractor", "types:\n  \"*testmodel.Order\":\n    Items:\n      - extract: collection\n        inverse: Order\n", "Items"},
		{"bad inverse", "types:\n  \"*testmodel.Order\":\n    Items:\n      - inverse: \"Order..Customer\"\n", "Items"},
		{"not yaml", "types: [", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := augment.NewBuilder().LoadYAML(strings.NewReader(tt.doc), types)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, augment.NewBuilder().LoadYAML(strings.NewReader(""), types))
}
