package model

import (
	"reflect"
)

// Handle reads a property value from an instance of its declaring type
type Handle interface {
	Get(instance reflect.Value) reflect.Value
}

// Property is a named, typed accessor on a TypeModel
type Property struct {
	name      string
	declaring *TypeModel
	rtype     reflect.Type
	tag       reflect.StructTag
	handle    Handle
}

// Name returns the property name
func (p *Property) Name() string { return p.name }

// DeclaringType returns the type holding the property
func (p *Property) DeclaringType() *TypeModel { return p.declaring }

// Type returns the model of the property's static value type
func (p *Property) Type() *TypeModel {
	return p.declaring.introspector.TypeModel(p.rtype)
}

// Tag returns the struct tag of a field property; getters have an empty tag
func (p *Property) Tag() reflect.StructTag { return p.tag }

// IsField reports whether the property is a struct field rather than a getter method
func (p *Property) IsField() bool {
	_, ok := p.handle.(fieldHandle)
	return ok
}

// Handle returns the value accessor
func (p *Property) Handle() Handle { return p.handle }

// Get reads the property from instance. An invalid Value is returned when
// instance is nil.
func (p *Property) Get(instance reflect.Value) reflect.Value {
	return p.handle.Get(instance)
}

type fieldHandle struct {
	index []int
}

func (h fieldHandle) Get(instance reflect.Value) reflect.Value {
	v := unwrap(instance)
	if !v.IsValid() {
		return reflect.Value{}
	}
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	f, err := v.FieldByIndexErr(h.index)
	if err != nil {
		// nil embedded pointer on the way to a promoted field
		return reflect.Value{}
	}
	return f
}

type methodHandle struct {
	name string
}

func (h methodHandle) Get(instance reflect.Value) reflect.Value {
	v := unwrap(instance)
	if !v.IsValid() {
		return reflect.Value{}
	}
	m := v.MethodByName(h.name)
	if !m.IsValid() && v.Kind() != reflect.Ptr && v.CanAddr() {
		m = v.Addr().MethodByName(h.name)
	}
	if !m.IsValid() {
		return reflect.Value{}
	}
	return m.Call(nil)[0]
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	if v.IsValid() && v.Kind() == reflect.Ptr && v.IsNil() {
		return reflect.Value{}
	}
	return v
}
