package mapping

import (
	"reflect"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

// typeProcessor writes the indexed properties of one value into a document.
// A casted processor only applies to values whose runtime type is its type.
type typeProcessor struct {
	typ        *model.TypeModel
	casted     bool
	properties []*propertyProcessor
}

// propertyProcessor writes the values of one property, either as a field or by
// embedding their own indexed properties
type propertyProcessor struct {
	property *model.Property
	chain    extractor.Chain
	key      string
	embedded []*typeProcessor
}

func (p *typeProcessor) process(v reflect.Value, doc map[string]interface{}) {
	v, ok := p.typ.Indirect(v)
	if !ok {
		return
	}
	if p.casted && !v.Type().AssignableTo(p.typ.Type()) {
		return
	}
	for _, prop := range p.properties {
		prop.process(v, doc)
	}
}

func (p *propertyProcessor) process(v reflect.Value, doc map[string]interface{}) {
	value := p.property.Get(v)
	if !value.IsValid() {
		return
	}
	p.chain.Extract(value, func(elem reflect.Value) {
		if p.embedded == nil {
			put(doc, p.key, elem)
			return
		}
		for _, e := range p.embedded {
			e.process(elem, doc)
		}
	})
}

// put adds a field value, turning repeated keys into lists
func put(doc map[string]interface{}, key string, v reflect.Value) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if !v.CanInterface() {
		return
	}
	value := v.Interface()

	existing, ok := doc[key]
	if !ok {
		doc[key] = value
		return
	}
	if list, ok := existing.([]interface{}); ok {
		doc[key] = append(list, value)
		return
	}
	doc[key] = []interface{}{existing, value}
}

// fieldNames lists the document keys written by p, in walk order
func (p *typeProcessor) fieldNames(out []string, seen map[string]bool) []string {
	for _, prop := range p.properties {
		if prop.embedded == nil {
			if !seen[prop.key] {
				seen[prop.key] = true
				out = append(out, prop.key)
			}
			continue
		}
		for _, e := range prop.embedded {
			out = e.fieldNames(out, seen)
		}
	}
	return out
}
