package mapping

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/reindex"
	"github.com/conduit-lang/searchmap/internal/searchtag"
)

// unlimited is the remaining depth of embeddings without a depth limit
const unlimited = -1

// walker maps one indexed type: it builds the document processors from the tags and
// reports every traversed value to the dependency collector
type walker struct {
	helper *reindex.BuildingHelper
	root   *model.TypeModel
	errs   error
}

func mapIndexedType(helper *reindex.BuildingHelper, d *entityDecl) (*IndexedType, error) {
	collector, err := helper.NewDependencyCollector(d.typ)
	if err != nil {
		return nil, err
	}

	w := &walker{helper: helper, root: d.typ}
	idx := &IndexedType{name: d.index, typ: d.typ}

	id, err := findID(d.typ)
	if err != nil {
		w.fail(err)
	}
	idx.id = id

	idx.root = w.walkType(d.typ, false, collector, "", []reflect.Type{d.typ.Type()}, unlimited)
	return idx, w.errs
}

func (w *walker) fail(err error) {
	w.errs = multierr.Append(w.errs, err)
}

func findID(t *model.TypeModel) (*model.Property, error) {
	var id *model.Property
	for _, p := range t.Properties() {
		d, ok, err := searchtag.Lookup(p.Tag())
		if err != nil || !ok || !d.ID {
			continue
		}
		if id != nil {
			return nil, fmt.Errorf("%s: both %s and %s are tagged id", t.Name(), id.Name(), p.Name())
		}
		id = p
	}
	if id == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingID, t.Name())
	}
	return id, nil
}

// walkType maps the tagged properties of t. chain holds the types embedding t, t included;
// remaining is the number of embedding levels still allowed below t.
func (w *walker) walkType(
	t *model.TypeModel,
	casted bool,
	node *reindex.CollectorTypeNode,
	prefix string,
	chain []reflect.Type,
	remaining int,
) *typeProcessor {
	proc := &typeProcessor{typ: t, casted: casted}
	for _, p := range t.Properties() {
		d, ok, err := searchtag.Lookup(p.Tag())
		if err != nil {
			w.fail(fmt.Errorf("%s.%s: %w", t.Name(), p.Name(), err))
			continue
		}
		if !ok || !(d.Field || d.Embedded) {
			continue
		}
		w.walkProperty(proc, t, node, p, d, prefix, chain, remaining)
	}
	return proc
}

// walkProperty maps one tagged property of t. Collector errors describe the
// association themselves; other errors are prefixed with the property.
func (w *walker) walkProperty(
	proc *typeProcessor,
	t *model.TypeModel,
	node *reindex.CollectorTypeNode,
	p *model.Property,
	d searchtag.Directives,
	prefix string,
	chain []reflect.Type,
	remaining int,
) {
	where := t.Name() + "." + p.Name()
	path, err := extractor.ParsePath(d.Extract)
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", where, err))
		return
	}
	bound, err := w.helper.Binder().Bind(p.Type(), path)
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", where, err))
		return
	}
	propNode, err := node.Property(p.Name())
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", where, err))
		return
	}
	value, err := propNode.Value(path)
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", where, err))
		return
	}
	chainRuntime := w.helper.Binder().Create(bound)

	if d.Field {
		name := d.Name
		if name == "" {
			name = p.Name()
		}
		proc.properties = append(proc.properties, &propertyProcessor{
			property: p,
			chain:    chainRuntime,
			key:      prefix + name,
		})
		w.fail(value.CollectDependency())
	}
	if !d.Embedded || remaining == 0 {
		return
	}

	next := remaining
	if d.Depth > 0 && (next == unlimited || d.Depth < next) {
		next = d.Depth
	}
	valueType := value.ExtractedType()
	if next == unlimited && containsType(chain, valueType.Type()) {
		w.fail(fmt.Errorf("%w: %s embeds %s again through %s", ErrCyclicEmbedding, w.root.Name(), valueType.Name(), where))
		return
	}
	childRemaining := unlimited
	if next != unlimited {
		childRemaining = next - 1
	}

	w.fail(value.CollectDependency())

	childPrefix := d.Prefix
	if childPrefix == "" {
		childPrefix = p.Name() + "."
	}
	childPrefix = prefix + childPrefix
	childChain := append(append([]reflect.Type(nil), chain...), valueType.Type())

	embedded := &propertyProcessor{property: p, chain: chainRuntime}
	if valueType.IsAbstract() {
		// interfaces carry no tags: map each concrete entity implementing them
		for _, c := range w.helper.Entities().ConcreteSubTypes(valueType) {
			castNode, err := value.CastedType(c)
			if err != nil {
				w.fail(err)
				continue
			}
			embedded.embedded = append(embedded.embedded,
				w.walkType(c, true, castNode, childPrefix, childChain, childRemaining))
		}
	} else {
		embedded.embedded = append(embedded.embedded,
			w.walkType(valueType, false, value.Type(), childPrefix, childChain, childRemaining))
	}
	if len(embedded.embedded) > 0 {
		proc.properties = append(proc.properties, embedded)
	}
}

func containsType(chain []reflect.Type, t reflect.Type) bool {
	for _, c := range chain {
		if c == t {
			return true
		}
	}
	return false
}
