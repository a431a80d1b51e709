// Package mapping turns `search:"..."` struct tags into index documents and, while doing
// so, declares to the reindex package every path an index depends on. Build produces an
// immutable Mapping holding the document processors and the reindexing resolvers.
package mapping

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
	"github.com/conduit-lang/searchmap/internal/reindex"
)

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the logger used during Build and by the resulting Mapping
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithExtractors replaces the extractor registry, e.g. to add custom container types
func WithExtractors(registry *extractor.Registry) Option {
	return func(b *Builder) {
		if registry != nil {
			b.registry = registry
		}
	}
}

// EntityOption configures an entity registration
type EntityOption func(*entityDecl)

// Indexed marks the entity as indexed under name. An empty name uses the lower-cased
// struct name.
func Indexed(name string) EntityOption {
	return func(d *entityDecl) {
		d.indexed = true
		d.index = name
	}
}

type entityDecl struct {
	typ     *model.TypeModel
	indexed bool
	index   string
}

// Builder collects entity registrations and metadata, then builds a Mapping.
// It is not safe for concurrent use.
type Builder struct {
	logger       *zap.Logger
	introspector *model.Introspector
	registry     *extractor.Registry
	metadata     *augment.Builder
	yaml         [][]byte

	entities []*entityDecl
	byType   map[reflect.Type]*entityDecl
	indexes  map[string]*entityDecl
}

// NewBuilder creates an empty mapping builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:       zap.NewNop(),
		introspector: model.NewIntrospector(),
		registry:     extractor.NewRegistry(),
		metadata:     augment.NewBuilder(),
		byType:       make(map[reflect.Type]*entityDecl),
		indexes:      make(map[string]*entityDecl),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Introspector returns the type model shared by the builder and the Mapping
func (b *Builder) Introspector() *model.Introspector {
	return b.introspector
}

// Entity registers the type of sample as an entity type. Concrete entities are pointers
// to structs; abstract ones are interfaces passed as a nil pointer, e.g. (*Pet)(nil).
// Registering a type again applies the new options.
func (b *Builder) Entity(sample interface{}, opts ...EntityOption) error {
	if sample == nil {
		return fmt.Errorf("%w: nil sample", model.ErrInvalidEntityType)
	}
	t := b.introspector.TypeOf(sample)
	rt := t.Type()
	if rt.Kind() != reflect.Interface && (rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct) {
		return fmt.Errorf("%w: %s must be a pointer to a struct or an interface", model.ErrInvalidEntityType, t.Name())
	}

	d, exists := b.byType[rt]
	if !exists {
		d = &entityDecl{typ: t}
	}
	next := *d
	for _, opt := range opts {
		opt(&next)
	}
	if next.indexed {
		if t.IsAbstract() {
			return fmt.Errorf("%w: abstract type %s cannot be indexed", model.ErrInvalidEntityType, t.Name())
		}
		if next.index == "" {
			next.index = strings.ToLower(rt.Elem().Name())
		}
		if other, taken := b.indexes[next.index]; taken && other != d {
			return fmt.Errorf("%w: %q is used by %s and %s", ErrDuplicateIndex, next.index, other.typ.Name(), t.Name())
		}
	}

	if d.indexed && d.index != next.index {
		delete(b.indexes, d.index)
	}
	*d = next
	if d.indexed {
		b.indexes[d.index] = d
	}
	if !exists {
		b.byType[rt] = d
		b.entities = append(b.entities, d)
	}
	return nil
}

// InverseSide declares that the values of property on the type of sample, under
// extractors, point back through inverse. It complements `search:"inverse=..."` tags
// for types that cannot carry them.
func (b *Builder) InverseSide(sample interface{}, property string, extractors extractor.Path, inverse string) error {
	path, err := modelpath.Parse(inverse)
	if err != nil {
		return err
	}
	t := b.introspector.TypeOf(sample)
	if _, err := t.Property(property); err != nil {
		return err
	}
	return b.metadata.Type(t.Type()).Property(property).Value(extractors).InverseSide(path)
}

// LoadMetadata reads a YAML inverse-side document. It is applied during Build, once
// every reachable type name is known.
func (b *Builder) LoadMetadata(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	b.yaml = append(b.yaml, data)
	return nil
}

// Build walks every indexed type and bootstraps the reindexing resolvers.
//
// The returned Mapping is usable even when err is non-nil: err is then a
// *reindex.BootstrapError and the failed types are left out of the Mapping.
// A nil Mapping is only returned when the registrations themselves are invalid.
func (b *Builder) Build() (*Mapping, error) {
	types := make([]*model.TypeModel, len(b.entities))
	for i, d := range b.entities {
		types[i] = d.typ
	}
	entities, err := model.NewEntityTypes(types)
	if err != nil {
		return nil, err
	}

	binder := extractor.NewBinder(b.introspector, b.registry)
	failures := reindex.NewFailureCollector(b.logger)

	reachable := reachableTypes(binder, types)
	for _, t := range reachable {
		failures.Add(t.Name(), b.metadata.AddStructTags(t))
	}
	if len(b.yaml) > 0 {
		names := make(map[string]reflect.Type, len(reachable))
		for _, t := range reachable {
			names[t.Name()] = t.Type()
		}
		for _, data := range b.yaml {
			failures.Add("metadata", b.metadata.LoadYAML(bytes.NewReader(data), names))
		}
	}
	metadata := b.metadata.Build()

	helper := reindex.NewBuildingHelper(b.introspector, binder, metadata, entities, reindex.WithLogger(b.logger))
	m := newMapping(b.introspector, entities, b.logger)

	for _, d := range b.entities {
		if !d.indexed {
			continue
		}
		idx, err := mapIndexedType(helper, d)
		failures.Add(d.typ.Name(), err)
		if failures.Failed(d.typ.Name()) {
			continue
		}
		m.addIndex(idx)
		b.logger.Debug("mapped indexed type",
			zap.String("type", d.typ.Name()),
			zap.String("index", d.index),
			zap.Int("fields", len(idx.Fields())))
	}

	for rt, r := range helper.BuildAll() {
		m.resolvers[rt] = r
	}
	b.logger.Debug("search mapping built",
		zap.Int("entities", len(b.entities)),
		zap.Int("indexes", len(m.indexes)),
		zap.Int("resolvers", len(m.resolvers)))

	return m, failures.Err()
}

// reachableTypes returns the struct types reachable from roots through properties,
// after default extraction
func reachableTypes(binder *extractor.Binder, roots []*model.TypeModel) []*model.TypeModel {
	var result []*model.TypeModel
	seen := make(map[reflect.Type]bool)
	var visit func(t *model.TypeModel)
	visit = func(t *model.TypeModel) {
		if seen[t.Type()] {
			return
		}
		seen[t.Type()] = true
		if !isStruct(t.Type()) {
			return
		}
		result = append(result, t)
		for _, p := range t.Properties() {
			if bound, ok := binder.TryBind(p.Type(), extractor.Default); ok {
				visit(bound.ExtractedType())
			}
		}
	}
	for _, t := range roots {
		visit(t)
	}
	return result
}

func isStruct(rt reflect.Type) bool {
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt.Kind() == reflect.Struct
}
