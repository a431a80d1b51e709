package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

func TestNewChangeTracker(t *testing.T) {
	original := map[string]interface{}{"Name": "Ada", "Tags": []string{"a"}, "Gone": 1}
	current := map[string]interface{}{"Name": "Ada", "Tags": []string{"a", "b"}, "New": true}

	ct := NewChangeTracker(original, current)
	assert.True(t, ct.HasChanges())
	assert.Equal(t, []string{"Gone", "New", "Tags"}, ct.ChangedFields())
	assert.False(t, ct.Changed("Name"))

	change := ct.GetChange("Gone")
	require.NotNil(t, change)
	assert.Equal(t, 1, change.OldValue)
	assert.Nil(t, change.NewValue)
	assert.Nil(t, ct.GetChange("Name"))
}

func TestChangeTracker_SetFieldValue(t *testing.T) {
	ct := NewChangeTracker(map[string]interface{}{"Total": 10.0}, map[string]interface{}{"Total": 10.0})
	assert.False(t, ct.HasChanges())

	ct.SetFieldValue("Total", 12.5)
	assert.Equal(t, []string{"Total"}, ct.ChangedFields())

	ct.SetFieldValue("Total", 10.0)
	assert.False(t, ct.HasChanges(), "reverting removes the change")

	ct.SetFieldValue("Total", 11.0)
	ct.Reset()
	assert.False(t, ct.HasChanges())
	ct.SetFieldValue("Total", 11.0)
	assert.False(t, ct.HasChanges())
}

func TestSnapshot(t *testing.T) {
	intro := model.NewIntrospector()
	customer, order, first, _ := testmodel.NewShop()

	before := Snapshot(intro, customer)
	assert.Equal(t, "Reykjavik", before["Address.City"])
	assert.Same(t, customer.Address.Country, before["Address.Country"])
	assert.Equal(t, []interface{}{order}, before["Orders"])
	_, nested := before["Address"]
	assert.False(t, nested)

	customer.Address.City = "Akureyri"
	customer.Orders = append(customer.Orders, &testmodel.Order{ID: 43})
	order.Total = 99 // another entity: not a change of the customer

	ct := NewChangeTracker(before, Snapshot(intro, customer))
	assert.Equal(t, []string{"Address.City", "Orders"}, ct.ChangedFields())

	dirty := ct.DirtyPaths()
	assert.True(t, dirty.Matches("Address"))
	assert.False(t, dirty.Matches("Name"))

	lineBefore := Snapshot(intro, first)
	first.Quantity = 5
	assert.Equal(t, []string{"Quantity"}, NewChangeTracker(lineBefore, Snapshot(intro, first)).ChangedFields())

	assert.Empty(t, Snapshot(intro, nil))
	var missing *testmodel.Order
	assert.Empty(t, Snapshot(intro, missing))
}

func TestSnapshot_OptionalIsAValue(t *testing.T) {
	intro := model.NewIntrospector()
	order := &testmodel.Order{ID: 1}

	before := Snapshot(intro, order)
	order.Note = model.Some("gift")
	ct := NewChangeTracker(before, Snapshot(intro, order))
	assert.Equal(t, []string{"Note"}, ct.ChangedFields())
}

func TestSnapshot_AssociationsCompareByIdentity(t *testing.T) {
	intro := model.NewIntrospector()
	line := &testmodel.OrderLine{ID: 1, Order: &testmodel.Order{ID: 5}}

	before := Snapshot(intro, line)
	line.Order = &testmodel.Order{ID: 5}
	assert.Equal(t, []string{"Order"}, NewChangeTracker(before, Snapshot(intro, line)).ChangedFields())
}
