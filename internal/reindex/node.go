package reindex

import (
	"reflect"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

// node is a runtime resolver node. The set of implementations is closed:
// typeNode, castedTypeNode, propertyNode, containerElementNode and markingNode.
// Nodes are immutable and safe for concurrent use.
type node interface {
	resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet)
	describe(w *treeWriter)
}

// typeNode applies its children to values of its static type
type typeNode struct {
	typ      *model.TypeModel
	children []node
}

func (n *typeNode) resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet) {
	v, ok := n.typ.Indirect(v)
	if !ok {
		return
	}
	for _, c := range n.children {
		c.resolve(v, dirty, out)
	}
}

// castedTypeNode applies its children only to values whose runtime type is its type
type castedTypeNode struct {
	typ      *model.TypeModel
	children []node
}

func (n *castedTypeNode) resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet) {
	v, ok := n.typ.Indirect(v)
	if !ok || !v.Type().AssignableTo(n.typ.Type()) {
		return
	}
	for _, c := range n.children {
		c.resolve(v, dirty, out)
	}
}

// propertyNode reads a property and hands its value to its children, unless no
// dirty path below it can be dirty
type propertyNode struct {
	property *model.Property
	paths    []string
	children []node
}

func (n *propertyNode) resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet) {
	if !dirty.MatchesAny(n.paths) {
		return
	}
	value := n.property.Get(v)
	if !value.IsValid() {
		return
	}
	for _, c := range n.children {
		c.resolve(value, dirty, out)
	}
}

// containerElementNode hands each extracted element to its children
type containerElementNode struct {
	chain    extractor.Chain
	children []node
}

func (n *containerElementNode) resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet) {
	n.chain.Extract(v, func(elem reflect.Value) {
		for _, c := range n.children {
			c.resolve(elem, dirty, out)
		}
	})
}

// markingNode adds the current value to the result
type markingNode struct {
	paths []string
}

func (n *markingNode) resolve(v reflect.Value, dirty *DirtyPaths, out *EntitySet) {
	if !dirty.MatchesAny(n.paths) {
		return
	}
	if v.CanInterface() {
		out.Add(v.Interface())
	}
}
