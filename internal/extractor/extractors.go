package extractor

import (
	"reflect"
)

// Names of the built-in extractors
const (
	Collection = "collection"
	MapValue   = "map-value"
	MapKey     = "map-key"
	Optional   = "optional"
)

// Extractor obtains the values held by a container
type Extractor interface {
	// Name identifies the extractor in paths
	Name() string
	// ElementType returns the static type of extracted values, or false when
	// the extractor does not apply to containers of type t
	ElementType(t reflect.Type) (reflect.Type, bool)
	// Extract calls fn for every value held by container
	Extract(container reflect.Value, fn func(reflect.Value))
}

type collectionExtractor struct{}

func (collectionExtractor) Name() string { return Collection }

func (collectionExtractor) ElementType(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	}
	return nil, false
}

func (collectionExtractor) Extract(container reflect.Value, fn func(reflect.Value)) {
	if container.Kind() != reflect.Slice && container.Kind() != reflect.Array {
		return
	}
	for i := 0; i < container.Len(); i++ {
		fn(container.Index(i))
	}
}

type mapValueExtractor struct{}

func (mapValueExtractor) Name() string { return MapValue }

func (mapValueExtractor) ElementType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Map {
		return t.Elem(), true
	}
	return nil, false
}

func (mapValueExtractor) Extract(container reflect.Value, fn func(reflect.Value)) {
	if container.Kind() != reflect.Map {
		return
	}
	iter := container.MapRange()
	for iter.Next() {
		fn(iter.Value())
	}
}

type mapKeyExtractor struct{}

func (mapKeyExtractor) Name() string { return MapKey }

func (mapKeyExtractor) ElementType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Map {
		return t.Key(), true
	}
	return nil, false
}

func (mapKeyExtractor) Extract(container reflect.Value, fn func(reflect.Value)) {
	if container.Kind() != reflect.Map {
		return
	}
	iter := container.MapRange()
	for iter.Next() {
		fn(iter.Key())
	}
}

// optionalExtractor unwraps any type with a Get() (T, bool) method
type optionalExtractor struct{}

func (optionalExtractor) Name() string { return Optional }

func (optionalExtractor) ElementType(t reflect.Type) (reflect.Type, bool) {
	m, ok := t.MethodByName("Get")
	if !ok {
		return nil, false
	}
	mt := m.Type
	in := mt.NumIn()
	if t.Kind() != reflect.Interface {
		in--
	}
	if in != 0 || mt.NumOut() != 2 || mt.Out(1).Kind() != reflect.Bool {
		return nil, false
	}
	return mt.Out(0), true
}

func (optionalExtractor) Extract(container reflect.Value, fn func(reflect.Value)) {
	m := container.MethodByName("Get")
	if !m.IsValid() {
		return
	}
	out := m.Call(nil)
	if out[1].Bool() {
		fn(out[0])
	}
}
