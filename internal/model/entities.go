package model

import (
	"fmt"
	"reflect"
)

// EntityTypes is the set of declared entity types together with the index from
// each entity type to its concrete entity subtypes.
type EntityTypes struct {
	all      []*TypeModel
	byType   map[reflect.Type]*TypeModel
	concrete map[reflect.Type][]*TypeModel
}

// NewEntityTypes validates the declared types and computes the concrete-subtype index.
// Concrete entity types must be pointers to structs; abstract ones must be interfaces.
func NewEntityTypes(types []*TypeModel) (*EntityTypes, error) {
	e := &EntityTypes{
		byType:   make(map[reflect.Type]*TypeModel, len(types)),
		concrete: make(map[reflect.Type][]*TypeModel),
	}
	for _, t := range types {
		if _, dup := e.byType[t.rtype]; dup {
			continue
		}
		switch {
		case t.rtype.Kind() == reflect.Interface:
		case t.rtype.Kind() == reflect.Ptr && t.rtype.Elem().Kind() == reflect.Struct:
		default:
			return nil, fmt.Errorf("%w: %s must be a pointer to a struct or an interface", ErrInvalidEntityType, t.Name())
		}
		e.all = append(e.all, t)
		e.byType[t.rtype] = t
	}

	for _, super := range e.all {
		var subs []*TypeModel
		for _, t := range e.all {
			if !t.IsAbstract() && t.IsSubTypeOf(super) {
				subs = append(subs, t)
			}
		}
		e.concrete[super.rtype] = subs
	}
	return e, nil
}

// All returns the declared entity types in declaration order
func (e *EntityTypes) All() []*TypeModel {
	result := make([]*TypeModel, len(e.all))
	copy(result, e.all)
	return result
}

// IsEntity reports whether t was declared as an entity type
func (e *EntityTypes) IsEntity(t *TypeModel) bool {
	_, ok := e.byType[t.rtype]
	return ok
}

// Lookup returns the declared entity type for rt
func (e *EntityTypes) Lookup(rt reflect.Type) (*TypeModel, bool) {
	t, ok := e.byType[rt]
	return t, ok
}

// ConcreteSubTypes returns the concrete entity types assignable to t, including t itself
// when t is concrete. Types that are not declared entities yield the concrete entities
// implementing them, if any.
func (e *EntityTypes) ConcreteSubTypes(t *TypeModel) []*TypeModel {
	if subs, ok := e.concrete[t.rtype]; ok {
		return subs
	}
	var subs []*TypeModel
	for _, c := range e.all {
		if !c.IsAbstract() && c.IsSubTypeOf(t) {
			subs = append(subs, c)
		}
	}
	return subs
}
