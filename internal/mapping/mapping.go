package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/reindex"
)

// Document is the indexable form of an entity
type Document struct {
	Index  string
	ID     string
	Fields map[string]interface{}
}

// IndexedType is an entity type mapped to an index
type IndexedType struct {
	name string
	typ  *model.TypeModel
	id   *model.Property
	root *typeProcessor
}

// Name returns the index name
func (t *IndexedType) Name() string { return t.name }

// Type returns the entity type
func (t *IndexedType) Type() *model.TypeModel { return t.typ }

// Fields returns the document field names, in mapping order
func (t *IndexedType) Fields() []string {
	return t.root.fieldNames(nil, make(map[string]bool))
}

// ID returns the document id of entity
func (t *IndexedType) ID(entity interface{}) (string, error) {
	v, ok := t.typ.Indirect(reflect.ValueOf(entity))
	if !ok {
		return "", fmt.Errorf("nil %s has no id", t.typ.Name())
	}
	id := t.id.Get(v)
	for id.IsValid() && (id.Kind() == reflect.Ptr || id.Kind() == reflect.Interface) {
		if id.IsNil() {
			return "", fmt.Errorf("%s.%s is nil", t.typ.Name(), t.id.Name())
		}
		id = id.Elem()
	}
	if !id.IsValid() || !id.CanInterface() {
		return "", fmt.Errorf("%s.%s cannot be read", t.typ.Name(), t.id.Name())
	}
	return fmt.Sprint(id.Interface()), nil
}

// Document builds the document of entity
func (t *IndexedType) Document(entity interface{}) (Document, error) {
	id, err := t.ID(entity)
	if err != nil {
		return Document{}, err
	}
	fields := make(map[string]interface{})
	t.root.process(reflect.ValueOf(entity), fields)
	return Document{Index: t.name, ID: id, Fields: fields}, nil
}

// Mapping is the immutable result of Builder.Build. It is safe for concurrent use.
type Mapping struct {
	introspector *model.Introspector
	entities     *model.EntityTypes
	logger       *zap.Logger

	indexes   map[reflect.Type]*IndexedType
	byIndex   map[string]*IndexedType
	resolvers map[reflect.Type]*reindex.Resolver
}

func newMapping(introspector *model.Introspector, entities *model.EntityTypes, logger *zap.Logger) *Mapping {
	return &Mapping{
		introspector: introspector,
		entities:     entities,
		logger:       logger,
		indexes:      make(map[reflect.Type]*IndexedType),
		byIndex:      make(map[string]*IndexedType),
		resolvers:    make(map[reflect.Type]*reindex.Resolver),
	}
}

func (m *Mapping) addIndex(idx *IndexedType) {
	m.indexes[idx.typ.Type()] = idx
	m.byIndex[idx.name] = idx
}

// Introspector returns the type model the mapping was built with
func (m *Mapping) Introspector() *model.Introspector { return m.introspector }

// Logger returns the mapping's logger
func (m *Mapping) Logger() *zap.Logger { return m.logger }

// Entities returns the entity types
func (m *Mapping) Entities() *model.EntityTypes { return m.entities }

// Indexes returns the indexed types sorted by index name
func (m *Mapping) Indexes() []*IndexedType {
	result := make([]*IndexedType, 0, len(m.byIndex))
	for _, idx := range m.byIndex {
		result = append(result, idx)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result
}

// IndexOf returns the indexed type of entity's dynamic type
func (m *Mapping) IndexOf(entity interface{}) (*IndexedType, bool) {
	if entity == nil {
		return nil, false
	}
	idx, ok := m.indexes[reflect.TypeOf(entity)]
	return idx, ok
}

// IndexOfType returns the indexed type of t
func (m *Mapping) IndexOfType(t *model.TypeModel) (*IndexedType, bool) {
	idx, ok := m.indexes[t.Type()]
	return idx, ok
}

// Index returns the indexed type registered under name
func (m *Mapping) Index(name string) (*IndexedType, bool) {
	idx, ok := m.byIndex[name]
	return idx, ok
}

// Document builds the document of an indexed entity
func (m *Mapping) Document(entity interface{}) (Document, error) {
	idx, ok := m.IndexOf(entity)
	if !ok {
		return Document{}, fmt.Errorf("%w: %T", ErrNotIndexed, entity)
	}
	return idx.Document(entity)
}

// Resolver returns the reindexing resolver of the concrete entity type rt. Types whose
// changes never affect any index have none.
func (m *Mapping) Resolver(rt reflect.Type) (*reindex.Resolver, bool) {
	r, ok := m.resolvers[rt]
	return r, ok
}

// ResolverFor returns the resolver of entity's dynamic type
func (m *Mapping) ResolverFor(entity interface{}) (*reindex.Resolver, bool) {
	if entity == nil {
		return nil, false
	}
	return m.Resolver(reflect.TypeOf(entity))
}

// TypeByName returns the entity type with the given name, e.g. "*shop.Order"
func (m *Mapping) TypeByName(name string) (*model.TypeModel, bool) {
	for _, t := range m.entities.All() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Explain describes how the entity type named name is indexed and what its changes
// cause to be reindexed
func (m *Mapping) Explain(name string) (string, error) {
	t, ok := m.TypeByName(name)
	if !ok {
		if idx, found := m.byIndex[name]; found {
			t = idx.typ
		} else {
			return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
		}
	}

	var b strings.Builder
	if idx, ok := m.indexes[t.Type()]; ok {
		fmt.Fprintf(&b, "index %s\n", idx.name)
		fmt.Fprintf(&b, "  id %s\n", idx.id.Name())
		for _, f := range idx.Fields() {
			fmt.Fprintf(&b, "  field %s\n", f)
		}
	}
	concrete := m.entities.ConcreteSubTypes(t)
	for _, c := range concrete {
		if r, ok := m.resolvers[c.Type()]; ok {
			b.WriteString(r.String())
		} else {
			fmt.Fprintf(&b, "resolver %s\n  none\n", c.Name())
		}
	}
	return b.String(), nil
}
