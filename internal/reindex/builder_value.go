package reindex

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/searchmap/internal/model"
)

// ValueNodeBuilderDelegate holds the type builders applying to the values of a
// property or of a container element: one for the static value type, plus casted
// ones for narrower runtime types.
type ValueNodeBuilderDelegate struct {
	owner     *lifecycle
	helper    *BuildingHelper
	valueType *model.TypeModel

	original    *TypeNodeBuilder
	casted      map[reflect.Type]*TypeNodeBuilder
	castedOrder []*TypeNodeBuilder

	allPaths []string
}

func newValueNodeBuilderDelegate(helper *BuildingHelper, owner *lifecycle, valueType *model.TypeModel) *ValueNodeBuilderDelegate {
	return &ValueNodeBuilderDelegate{
		owner:     owner,
		helper:    helper,
		valueType: valueType,
		casted:    make(map[reflect.Type]*TypeNodeBuilder),
	}
}

// ValueType returns the static type of the values
func (d *ValueNodeBuilderDelegate) ValueType() *model.TypeModel { return d.valueType }

func (d *ValueNodeBuilderDelegate) String() string {
	return fmt.Sprintf("value node %s", d.valueType.Name())
}

// Type returns the builder for values viewed as expected. When every value is already
// an expected, the builder for the static type is returned; otherwise a casted builder
// that only applies to values of type expected at runtime.
func (d *ValueNodeBuilderDelegate) Type(expected *model.TypeModel) *TypeNodeBuilder {
	if expected == nil || d.valueType.IsSubTypeOf(expected) {
		if d.original == nil {
			d.owner.checkOpen("add type", d)
			d.original = newTypeNodeBuilder(d.helper, d.valueType, false)
		}
		return d.original
	}
	if b, ok := d.casted[expected.Type()]; ok {
		return b
	}
	d.owner.checkOpen("add casted type "+expected.Name(), d)
	b := newTypeNodeBuilder(d.helper, expected, true)
	d.casted[expected.Type()] = b
	d.castedOrder = append(d.castedOrder, b)
	return b
}

// MarkForReindexing marks the values themselves for reindexing when dirtyPath changes
func (d *ValueNodeBuilderDelegate) MarkForReindexing(dirtyPath string) {
	d.Type(d.valueType).MarkForReindexing(dirtyPath)
}

func (d *ValueNodeBuilderDelegate) typeBuilders() []*TypeNodeBuilder {
	var result []*TypeNodeBuilder
	if d.original != nil {
		result = append(result, d.original)
	}
	return append(result, d.castedOrder...)
}

func (d *ValueNodeBuilderDelegate) freeze() {
	all := make(pathSet)
	for _, t := range d.typeBuilders() {
		t.freeze()
		all.add(t.allPaths...)
	}
	d.allPaths = all.sorted()
}

func (d *ValueNodeBuilderDelegate) build() []node {
	var children []node
	for _, t := range d.typeBuilders() {
		if n := t.build(); n != nil {
			children = append(children, n)
		}
	}
	return children
}
