package model

import (
	"fmt"
	"reflect"
)

// TypeModel describes a Go type as seen by the mapping: a name, a set of properties
// and its position in the subtype lattice.
type TypeModel struct {
	introspector *Introspector
	rtype        reflect.Type

	properties map[string]*Property
	propOrder  []*Property
	loaded     bool
}

// Name returns the Go name of the type, e.g. "*shop.Order"
func (t *TypeModel) Name() string {
	return t.rtype.String()
}

// String implements fmt.Stringer
func (t *TypeModel) String() string {
	return t.Name()
}

// Type returns the underlying reflect.Type
func (t *TypeModel) Type() reflect.Type {
	return t.rtype
}

// Introspector returns the introspector that owns this model
func (t *TypeModel) Introspector() *Introspector {
	return t.introspector
}

// IsAbstract reports whether instances of this exact type cannot exist at runtime
func (t *TypeModel) IsAbstract() bool {
	return t.rtype.Kind() == reflect.Interface
}

// IsSubTypeOf reports whether a value of this type can be used where other is expected
func (t *TypeModel) IsSubTypeOf(other *TypeModel) bool {
	if other == nil {
		return false
	}
	if t.rtype == other.rtype {
		return true
	}
	if other.rtype.Kind() == reflect.Interface {
		return t.rtype.Implements(other.rtype)
	}
	return false
}

// AscendingSuperTypes returns this type followed by every known interface it implements
func (t *TypeModel) AscendingSuperTypes() []*TypeModel {
	result := []*TypeModel{t}
	for _, iface := range t.introspector.knownInterfaces() {
		if iface != t && t.IsSubTypeOf(iface) {
			result = append(result, iface)
		}
	}
	return result
}

// Property returns the named property
func (t *TypeModel) Property(name string) (*Property, error) {
	t.load()
	p, ok := t.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: type %s has no property %q", ErrUnknownProperty, t.Name(), name)
	}
	return p, nil
}

// Properties returns all properties in declaration order: fields first, then getters
func (t *TypeModel) Properties() []*Property {
	t.load()
	result := make([]*Property, len(t.propOrder))
	copy(result, t.propOrder)
	return result
}

// Indirect unwraps interfaces and pointers of v until it reaches a value of
// this model's type. It returns false when v is nil or does not match.
func (t *TypeModel) Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

func (t *TypeModel) load() {
	if t.loaded {
		return
	}
	t.loaded = true
	t.properties = make(map[string]*Property)

	structType := t.rtype
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(structType) {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			if _, exists := t.properties[f.Name]; exists {
				continue
			}
			t.add(&Property{
				name:      f.Name,
				declaring: t,
				rtype:     f.Type,
				tag:       f.Tag,
				handle:    fieldHandle{index: f.Index},
			})
		}
	}

	for i := 0; i < t.rtype.NumMethod(); i++ {
		m := t.rtype.Method(i)
		if !m.IsExported() {
			continue
		}
		mt := m.Type
		in := mt.NumIn()
		if t.rtype.Kind() != reflect.Interface {
			in-- // receiver
		}
		if in != 0 || mt.NumOut() != 1 {
			continue
		}
		if _, exists := t.properties[m.Name]; exists {
			continue
		}
		t.add(&Property{
			name:      m.Name,
			declaring: t,
			rtype:     mt.Out(0),
			handle:    methodHandle{name: m.Name},
		})
	}
}

func (t *TypeModel) add(p *Property) {
	t.properties[p.name] = p
	t.propOrder = append(t.propOrder, p)
}
