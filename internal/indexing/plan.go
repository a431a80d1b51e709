// Package indexing turns entity changes into index writes. A Plan collects additions,
// updates and deletions, resolves which indexed entities embed the changed ones, and
// writes the resulting documents to a backend.Sink in a single commit.
package indexing

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/backend"
	"github.com/conduit-lang/searchmap/internal/mapping"
	"github.com/conduit-lang/searchmap/internal/reindex"
	"github.com/conduit-lang/searchmap/internal/tracking"
)

type workKind int

const (
	workAdd workKind = iota
	workUpdate
	workDelete
	workDeleteDocument
)

func (k workKind) String() string {
	switch k {
	case workAdd:
		return "add"
	case workUpdate:
		return "update"
	case workDeleteDocument:
		return "delete document"
	default:
		return "delete"
	}
}

type docKey struct {
	index string
	id    string
}

type work struct {
	kind   workKind
	entity interface{}
	dirty  *reindex.DirtyPaths
	key    docKey
}

// Report summarizes an executed plan
type Report struct {
	PlanID  uuid.UUID
	Indexed int
	Deleted int
}

// Option configures a Plan
type Option func(*Plan)

// WithLogger sets the plan logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Plan) {
		p.logger = logger
	}
}

// Plan is a unit of indexing work. It is not safe for concurrent use.
type Plan struct {
	id      uuid.UUID
	mapping *mapping.Mapping
	sink    backend.Sink
	logger  *zap.Logger
	works   []work
}

// NewPlan creates an empty plan writing to sink
func NewPlan(m *mapping.Mapping, sink backend.Sink, opts ...Option) *Plan {
	p := &Plan{
		id:      uuid.New(),
		mapping: m,
		sink:    sink,
		logger:  m.Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("plan", p.id.String()))
	return p
}

// ID returns the plan id
func (p *Plan) ID() uuid.UUID { return p.id }

// Len returns the number of pending works
func (p *Plan) Len() int { return len(p.works) }

func (p *Plan) enqueue(kind workKind, entity interface{}, dirty *reindex.DirtyPaths) error {
	if entity == nil {
		return fmt.Errorf("cannot %s a nil entity", kind)
	}
	if _, ok := p.mapping.Entities().Lookup(reflect.TypeOf(entity)); !ok {
		return fmt.Errorf("%w: %T", mapping.ErrUnknownType, entity)
	}
	p.works = append(p.works, work{kind: kind, entity: entity, dirty: dirty})
	return nil
}

// Add records a new entity. Its own document is written when it is indexed, and every
// indexed entity embedding it is reindexed.
func (p *Plan) Add(entity interface{}) error {
	return p.enqueue(workAdd, entity, nil)
}

// Update records a change to entity. dirtyPaths names the changed properties, e.g.
// "Quantity" or "Address.City". With no paths every property is considered changed.
func (p *Plan) Update(entity interface{}, dirtyPaths ...string) error {
	var dirty *reindex.DirtyPaths
	if len(dirtyPaths) > 0 {
		dirty = reindex.NewDirtyPaths(dirtyPaths...)
	}
	return p.enqueue(workUpdate, entity, dirty)
}

// UpdateTracked records the changes observed by tracker. Nothing is recorded when the
// tracker saw no change.
func (p *Plan) UpdateTracked(entity interface{}, tracker *tracking.ChangeTracker) error {
	if !tracker.HasChanges() {
		return nil
	}
	return p.enqueue(workUpdate, entity, tracker.DirtyPaths())
}

// Delete records the removal of entity. Its document is deleted when it is indexed, and
// every indexed entity embedding it is reindexed.
func (p *Plan) Delete(entity interface{}) error {
	return p.enqueue(workDelete, entity, nil)
}

// DeleteDocument records the removal of a document whose entity is no longer available.
// Entities that embedded it are not resolved; record their updates separately.
func (p *Plan) DeleteDocument(index, id string) error {
	if _, ok := p.mapping.Index(index); !ok {
		return fmt.Errorf("%w: index %q", mapping.ErrUnknownType, index)
	}
	p.works = append(p.works, work{kind: workDeleteDocument, key: docKey{index: index, id: id}})
	return nil
}

type resolution struct {
	order   []docKey
	entries map[docKey]interface{}
	deleted map[docKey]bool
}

func (r *resolution) reindex(key docKey, entity interface{}) {
	if r.deleted[key] {
		return
	}
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = entity
}

func (r *resolution) remove(key docKey) {
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = nil
	r.deleted[key] = true
}

func (p *Plan) keyOf(entity interface{}) (docKey, bool, error) {
	idx, ok := p.mapping.IndexOf(entity)
	if !ok {
		return docKey{}, false, nil
	}
	id, err := idx.ID(entity)
	if err != nil {
		return docKey{}, false, err
	}
	return docKey{index: idx.Name(), id: id}, true, nil
}

func (p *Plan) resolve() (*resolution, error) {
	res := &resolution{
		entries: make(map[docKey]interface{}),
		deleted: make(map[docKey]bool),
	}

	var errs error
	for _, w := range p.works {
		if w.kind == workDeleteDocument {
			res.remove(w.key)
			continue
		}
		key, indexed, err := p.keyOf(w.entity)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		resolver, hasResolver := p.mapping.ResolverFor(w.entity)

		switch w.kind {
		case workAdd:
			if indexed {
				res.reindex(key, w.entity)
			}
		case workUpdate:
			if indexed && (w.dirty == nil || (hasResolver && resolver.RequiresSelfReindexing(w.dirty))) {
				res.reindex(key, w.entity)
			}
		case workDelete:
			if indexed {
				res.remove(key)
			}
		}

		if !hasResolver {
			continue
		}
		dirty := w.dirty
		if w.kind != workUpdate {
			dirty = nil
		}
		for _, containing := range resolver.ResolveContainingEntities(w.entity, dirty).Items() {
			ckey, ok, err := p.keyOf(containing)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if ok {
				res.reindex(ckey, containing)
			}
		}
	}
	return res, errs
}

// Execute resolves the pending works, writes the affected documents and commits the sink.
// The plan is emptied on success. Nothing is written when resolution or document building
// fails.
func (p *Plan) Execute(ctx context.Context) (*Report, error) {
	report := &Report{PlanID: p.id}
	if len(p.works) == 0 {
		return report, nil
	}

	res, err := p.resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	docs := make(map[docKey]mapping.Document, len(res.order))
	for _, key := range res.order {
		entity := res.entries[key]
		if entity == nil {
			continue
		}
		doc, docErr := p.mapping.Document(entity)
		if docErr != nil {
			err = multierr.Append(err, docErr)
			continue
		}
		docs[key] = doc
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build documents: %w", err)
	}

	for _, key := range res.order {
		if res.deleted[key] {
			if err := p.sink.Delete(ctx, key.index, key.id); err != nil {
				return nil, fmt.Errorf("failed to delete %s/%s: %w", key.index, key.id, err)
			}
			report.Deleted++
			p.logger.Debug("deleted document", zap.String("index", key.index), zap.String("id", key.id))
			continue
		}
		if err := p.sink.Index(ctx, docs[key]); err != nil {
			return nil, fmt.Errorf("failed to index %s/%s: %w", key.index, key.id, err)
		}
		report.Indexed++
		p.logger.Debug("indexed document", zap.String("index", key.index), zap.String("id", key.id))
	}

	if report.Indexed+report.Deleted > 0 {
		if err := p.sink.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit plan: %w", err)
		}
	}

	p.logger.Debug("executed indexing plan",
		zap.Int("works", len(p.works)),
		zap.Int("indexed", report.Indexed),
		zap.Int("deleted", report.Deleted))
	p.works = nil
	return report, nil
}
