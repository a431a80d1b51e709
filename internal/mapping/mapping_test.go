package mapping

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/reindex"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

func buildShop(t *testing.T) *Mapping {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Entity(&testmodel.Customer{}, Indexed("customers")))
	require.NoError(t, b.Entity(&testmodel.Order{}, Indexed("orders")))
	require.NoError(t, b.Entity(&testmodel.OrderLine{}))
	require.NoError(t, b.Entity(&testmodel.Country{}))

	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestBuild_Documents(t *testing.T) {
	m := buildShop(t)
	customer, order, _, _ := testmodel.NewShop()

	doc, err := m.Document(customer)
	require.NoError(t, err)
	assert.Equal(t, "customers", doc.Index)
	assert.Equal(t, "7", doc.ID)
	assert.Equal(t, map[string]interface{}{
		"Name":                  "Ada",
		"Address.City":          "Reykjavik",
		"Address.Country.Name":  "Iceland",
		"Orders.Total":          float64(30),
		"Orders.Items.Product":  []interface{}{"tea", "cup"},
		"Orders.Items.Quantity": []interface{}{2, 1},
	}, doc.Fields)

	doc, err = m.Document(order)
	require.NoError(t, err)
	assert.Equal(t, "42", doc.ID)
	assert.Equal(t, []interface{}{"tea", "cup"}, doc.Fields["Items.Product"])

	_, err = m.Document(&testmodel.OrderLine{})
	assert.True(t, errors.Is(err, ErrNotIndexed))

	idx, ok := m.Index("customers")
	require.True(t, ok)
	assert.Equal(t, []string{
		"Name", "Address.City", "Address.Country.Name",
		"Orders.Total", "Orders.Items.Product", "Orders.Items.Quantity",
	}, idx.Fields())
	assert.Len(t, m.Indexes(), 2)
}

func TestBuild_NilAssociationsLeaveFieldsOut(t *testing.T) {
	m := buildShop(t)

	doc, err := m.Document(&testmodel.Customer{ID: 1, Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Name": "Bob", "Address.City": ""}, doc.Fields)
}

func TestBuild_Resolvers(t *testing.T) {
	m := buildShop(t)
	customer, order, first, _ := testmodel.NewShop()

	r, ok := m.ResolverFor(first)
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{customer, order},
		r.ResolveEntitiesToReindex(first, reindex.NewDirtyPaths("Quantity")).Items())

	r, ok = m.ResolverFor(customer.Address.Country)
	require.True(t, ok)
	assert.Equal(t, []interface{}{customer},
		r.ResolveEntitiesToReindex(customer.Address.Country, reindex.NewDirtyPaths("Name")).Items())

	r, ok = m.ResolverFor(order)
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{customer, order},
		r.ResolveEntitiesToReindex(order, reindex.NewDirtyPaths("Total")).Items())
	assert.Equal(t, []interface{}{customer},
		r.ResolveContainingEntities(order, reindex.NewDirtyPaths("Total")).Items())
}

func TestBuild_Explain(t *testing.T) {
	m := buildShop(t)

	out, err := m.Explain("*testmodel.Customer")
	require.NoError(t, err)
	assert.Contains(t, out, "index customers\n  id ID\n")
	assert.Contains(t, out, "  field Orders.Items.Quantity\n")
	assert.Contains(t, out, "resolver *testmodel.Customer\n  self [")

	out, err = m.Explain("orders")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "index orders\n"))

	_, err = m.Explain("*testmodel.Nope")
	assert.True(t, errors.Is(err, ErrUnknownType))

	tm, ok := m.TypeByName("*testmodel.Country")
	require.True(t, ok)
	assert.False(t, tm.IsAbstract())
}

func TestBuilder_Registration(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Entity(&testmodel.Customer{}, Indexed("shop")))
	require.NoError(t, b.Entity(&testmodel.Customer{}, Indexed("shop")))

	err := b.Entity(&testmodel.Order{}, Indexed("shop"))
	assert.True(t, errors.Is(err, ErrDuplicateIndex))

	assert.True(t, errors.Is(b.Entity(testmodel.Address{}), model.ErrInvalidEntityType))
	assert.True(t, errors.Is(b.Entity(nil), model.ErrInvalidEntityType))
	assert.True(t, errors.Is(b.Entity((*testmodel.Pet)(nil), Indexed("")), model.ErrInvalidEntityType))

	require.NoError(t, b.Entity(&testmodel.OrderLine{}, Indexed("")))
	m, err := b.Build()
	require.Error(t, err, "orders are not registered as entities")
	_, ok := m.Index("orderline")
	assert.True(t, ok)
}

type category struct {
	ID       int         `search:"id"`
	Name     string      `search:"field"`
	Parent   *category   `search:"embedded,inverse=Children"`
	Children []*category `search:"inverse=Parent"`
}

type boundedCategory struct {
	ID       int                `search:"id"`
	Name     string             `search:"field"`
	Parent   *boundedCategory   `search:"embedded,depth=2,inverse=Children"`
	Children []*boundedCategory `search:"inverse=Parent"`
}

func TestBuild_CyclicEmbedding(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Entity(&category{}, Indexed("")))
	m, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicEmbedding))

	var bootstrap *reindex.BootstrapError
	require.True(t, errors.As(err, &bootstrap))
	assert.Equal(t, []string{"*mapping.category"}, bootstrap.Types)
	_, ok := m.Index("category")
	assert.False(t, ok)
}

func TestBuild_DepthLimitedEmbedding(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Entity(&boundedCategory{}, Indexed("categories")))
	m, err := b.Build()
	require.NoError(t, err)

	idx, ok := m.Index("categories")
	require.True(t, ok)
	assert.Equal(t, []string{"Name", "Parent.Name", "Parent.Parent.Name"}, idx.Fields())

	root := &boundedCategory{ID: 1, Name: "root"}
	child := &boundedCategory{ID: 2, Name: "child", Parent: root}
	grandchild := &boundedCategory{ID: 3, Name: "grandchild", Parent: child}
	root.Children = []*boundedCategory{child}
	child.Children = []*boundedCategory{grandchild}

	doc, err := m.Document(grandchild)
	require.NoError(t, err)
	assert.Equal(t, "root", doc.Fields["Parent.Parent.Name"])

	r, ok := m.ResolverFor(root)
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{root, child, grandchild},
		r.ResolveEntitiesToReindex(root, reindex.NewDirtyPaths("Name")).Items())
}

type author struct {
	ID    int     `search:"id"`
	Books []*book `search:"embedded"`
}

type book struct {
	ID    int    `search:"id"`
	Title string `search:"field"`
}

type untagged struct {
	Name string `search:"field"`
}

func TestBuild_FailedTypesAreLeftOut(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Entity(&author{}, Indexed("authors")))
	require.NoError(t, b.Entity(&book{}, Indexed("books")))
	require.NoError(t, b.Entity(&untagged{}, Indexed("untagged")))

	m, err := b.Build()
	require.NotNil(t, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reindex.ErrCannotInvertAssociation))
	assert.True(t, errors.Is(err, ErrMissingID))

	var bootstrap *reindex.BootstrapError
	require.True(t, errors.As(err, &bootstrap))
	assert.ElementsMatch(t, []string{"*mapping.author", "*mapping.untagged"}, bootstrap.Types)

	_, ok := m.Index("authors")
	assert.False(t, ok)
	doc, err := m.Document(&book{ID: 5, Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "Dune", doc.Fields["Title"])
}

func TestBuild_AbstractEmbedding(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Entity(&testmodel.Person{}, Indexed("people")))
	require.NoError(t, b.Entity((*testmodel.Pet)(nil)))
	require.NoError(t, b.Entity(&testmodel.Dog{}))
	require.NoError(t, b.Entity(&testmodel.Cat{}))
	m, err := b.Build()
	require.NoError(t, err)

	idx, _ := m.Index("people")
	assert.Equal(t, []string{"Name", "Pet.Name", "Pet.Breed", "Pet.Lives"}, idx.Fields())

	alice := &testmodel.Person{ID: 1, Name: "Alice"}
	rex := &testmodel.Dog{ID: 2, Name: "Rex", Breed: "lab", Owner: alice}
	alice.Pet = rex

	doc, err := m.Document(alice)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Name": "Alice", "Pet.Name": "Rex", "Pet.Breed": "lab"}, doc.Fields)

	tom := &testmodel.Cat{ID: 3, Name: "Tom", Lives: 9, Owner: alice}
	r, ok := m.ResolverFor(tom)
	require.True(t, ok)
	assert.Equal(t, []interface{}{alice}, r.ResolveEntitiesToReindex(tom, reindex.NewDirtyPaths("Lives")).Items())

	r, ok = m.ResolverFor(rex)
	require.True(t, ok)
	assert.Equal(t, 0, r.ResolveEntitiesToReindex(rex, reindex.NewDirtyPaths("Lives")).Len())
}

type playlist struct {
	ID    int     `search:"id"`
	Songs []*song `search:"embedded"`
}

type song struct {
	ID    int    `search:"id"`
	Title string `search:"field"`
	List  *playlist
}

func TestBuild_ExternalMetadata(t *testing.T) {
	declare := map[string]func(b *Builder) error{
		"yaml": func(b *Builder) error {
			return b.LoadMetadata(strings.NewReader(`
types:
  "*mapping.playlist":
    Songs:
      - inverse: List
`))
		},
		"programmatic": func(b *Builder) error {
			return b.InverseSide(&playlist{}, "Songs", extractor.Default, "List")
		},
	}

	for name, fn := range declare {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder()
			require.NoError(t, b.Entity(&playlist{}, Indexed("playlists")))
			require.NoError(t, b.Entity(&song{}))
			require.NoError(t, fn(b))

			m, err := b.Build()
			require.NoError(t, err)

			list := &playlist{ID: 1}
			s := &song{ID: 2, Title: "Blue", List: list}
			list.Songs = []*song{s}

			r, ok := m.ResolverFor(s)
			require.True(t, ok)
			assert.Equal(t, []interface{}{list}, r.ResolveEntitiesToReindex(s, reindex.NewDirtyPaths("Title")).Items())
		})
	}
}

func TestBuilder_InverseSideErrors(t *testing.T) {
	b := NewBuilder()
	assert.Error(t, b.InverseSide(&playlist{}, "Nope", extractor.Default, "List"))
	assert.Error(t, b.InverseSide(&playlist{}, "Songs", extractor.Default, ""))
}
