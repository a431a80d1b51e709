package model_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/testmodel"
)

type base struct {
	Created string
}

type document struct {
	base
	Title  string
	hidden int
}

func (d *document) Summary() string { return d.Title + "!" }

func (d *document) Rename(string) {}

func TestIntrospector_Memoizes(t *testing.T) {
	intro := model.NewIntrospector()
	a := intro.TypeOf(&document{})
	b := intro.TypeModel(reflect.TypeOf(&document{}))
	assert.Same(t, a, b)
	assert.Equal(t, "*model_test.document", a.Name())

	pet := intro.TypeOf((*testmodel.Pet)(nil))
	assert.True(t, pet.IsAbstract())
	assert.Equal(t, "testmodel.Pet", pet.Name())
}

func TestTypeModel_Properties(t *testing.T) {
	intro := model.NewIntrospector()
	doc := intro.TypeOf(&document{})

	var names []string
	for _, p := range doc.Properties() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"Created", "Title", "Summary"}, names)

	_, err := doc.Property("hidden")
	assert.True(t, errors.Is(err, model.ErrUnknownProperty))
	_, err = doc.Property("Rename")
	assert.True(t, errors.Is(err, model.ErrUnknownProperty))

	d := &document{base: base{Created: "today"}, Title: "Go"}
	v := reflect.ValueOf(d)

	created, err := doc.Property("Created")
	require.NoError(t, err)
	assert.Equal(t, "today", created.Get(v).Interface())
	assert.Same(t, doc, created.DeclaringType())

	summary, err := doc.Property("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Go!", summary.Get(v).Interface())
	assert.Equal(t, "string", summary.Type().Name())

	var missing *document
	assert.False(t, summary.Get(reflect.ValueOf(missing)).IsValid())
}

func TestTypeModel_InterfaceProperties(t *testing.T) {
	intro := model.NewIntrospector()
	pet := intro.TypeOf((*testmodel.Pet)(nil))

	name, err := pet.Property("PetName")
	require.NoError(t, err)

	var p testmodel.Pet = &testmodel.Dog{Name: "Rex"}
	assert.Equal(t, "Rex", name.Get(reflect.ValueOf(&p).Elem()).Interface())
}

func TestTypeModel_SubTyping(t *testing.T) {
	intro := model.NewIntrospector()
	pet := intro.TypeOf((*testmodel.Pet)(nil))
	keeper := intro.TypeOf((*testmodel.Keeper)(nil))
	dog := intro.TypeOf((*testmodel.Dog)(nil))
	person := intro.TypeOf((*testmodel.Person)(nil))

	assert.True(t, dog.IsSubTypeOf(dog))
	assert.True(t, dog.IsSubTypeOf(pet))
	assert.False(t, pet.IsSubTypeOf(dog))
	assert.False(t, dog.IsSubTypeOf(keeper))
	assert.True(t, person.IsSubTypeOf(keeper))
	assert.False(t, dog.IsSubTypeOf(nil))

	assert.Equal(t, []*model.TypeModel{person, keeper}, person.AscendingSuperTypes())
	assert.Equal(t, []*model.TypeModel{dog, pet}, dog.AscendingSuperTypes())
}

func TestEntityTypes(t *testing.T) {
	intro := model.NewIntrospector()
	pet := intro.TypeOf((*testmodel.Pet)(nil))
	dog := intro.TypeOf((*testmodel.Dog)(nil))
	cat := intro.TypeOf((*testmodel.Cat)(nil))
	person := intro.TypeOf((*testmodel.Person)(nil))

	entities, err := model.NewEntityTypes([]*model.TypeModel{pet, dog, cat, person, dog})
	require.NoError(t, err)
	assert.Len(t, entities.All(), 4)
	assert.True(t, entities.IsEntity(pet))
	assert.False(t, entities.IsEntity(intro.TypeOf(testmodel.Address{})))

	assert.Equal(t, []*model.TypeModel{dog, cat}, entities.ConcreteSubTypes(pet))
	assert.Equal(t, []*model.TypeModel{dog}, entities.ConcreteSubTypes(dog))
	assert.Equal(t, []*model.TypeModel{person}, entities.ConcreteSubTypes(intro.TypeOf((*testmodel.Keeper)(nil))))

	found, ok := entities.Lookup(reflect.TypeOf(&testmodel.Cat{}))
	assert.True(t, ok)
	assert.Same(t, cat, found)

	_, err = model.NewEntityTypes([]*model.TypeModel{intro.TypeOf(testmodel.Address{})})
	assert.True(t, errors.Is(err, model.ErrInvalidEntityType))
}

func TestOptional(t *testing.T) {
	v, ok := model.Some("x").Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = model.None[int]().Get()
	assert.False(t, ok)
}
