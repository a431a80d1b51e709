// Package model provides the reflection-based type model used by the search mapping.
// It exposes Go types as TypeModels with named properties, subtype checks and the
// concrete-subtype index needed to fan out dependencies declared on abstract types.
//
// An Introspector is populated during bootstrap and is not safe for concurrent
// mutation. Property handles obtained from it are immutable and may be shared freely.
package model

import (
	"reflect"
	"sort"
)

// Introspector memoizes TypeModels by reflect.Type
type Introspector struct {
	types map[reflect.Type]*TypeModel
	order []*TypeModel
}

// NewIntrospector creates an empty introspector
func NewIntrospector() *Introspector {
	return &Introspector{
		types: make(map[reflect.Type]*TypeModel),
	}
}

// TypeModel returns the model for t, creating it on first request.
// The same *TypeModel is returned for every request of the same type.
func (i *Introspector) TypeModel(t reflect.Type) *TypeModel {
	if tm, ok := i.types[t]; ok {
		return tm
	}
	tm := &TypeModel{
		introspector: i,
		rtype:        t,
	}
	i.types[t] = tm
	i.order = append(i.order, tm)
	return tm
}

// TypeOf returns the model for the dynamic type of v.
// Passing a nil pointer to an interface, such as (*Pet)(nil), yields the interface type.
func (i *Introspector) TypeOf(v interface{}) *TypeModel {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return i.TypeModel(t)
}

// knownInterfaces returns every interface type seen so far, sorted by name
func (i *Introspector) knownInterfaces() []*TypeModel {
	var result []*TypeModel
	for _, tm := range i.order {
		if tm.rtype.Kind() == reflect.Interface {
			result = append(result, tm)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].Name() < result[b].Name()
	})
	return result
}
