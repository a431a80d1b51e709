package reindex

import (
	"strings"
)

type treeWriter struct {
	b     strings.Builder
	depth int
}

// line writes "kind label" indented by depth; the kind is the first word of every
// line so renderers can style it
func (w *treeWriter) line(depth int, kind, label string) {
	w.b.WriteString(strings.Repeat("  ", depth))
	w.b.WriteString(kind)
	if label != "" {
		w.b.WriteByte(' ')
		w.b.WriteString(label)
	}
	w.b.WriteByte('\n')
}

func (w *treeWriter) nested(children []node) {
	w.depth++
	for _, c := range children {
		c.describe(w)
	}
	w.depth--
}

func (w *treeWriter) String() string {
	return w.b.String()
}

func (n *typeNode) describe(w *treeWriter) {
	w.line(w.depth, "type", n.typ.Name())
	w.nested(n.children)
}

func (n *castedTypeNode) describe(w *treeWriter) {
	w.line(w.depth, "cast", n.typ.Name())
	w.nested(n.children)
}

func (n *propertyNode) describe(w *treeWriter) {
	w.line(w.depth, "property", n.property.Name())
	w.nested(n.children)
}

func (n *containerElementNode) describe(w *treeWriter) {
	w.line(w.depth, "elements", n.chain.String())
	w.nested(n.children)
}

func (n *markingNode) describe(w *treeWriter) {
	w.line(w.depth, "reindex", "["+strings.Join(n.paths, ", ")+"]")
}
