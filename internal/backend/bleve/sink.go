// Package bleve writes index documents to embedded bleve indexes, one per index name
package bleve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	blevesearch "github.com/blevesearch/bleve/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/backend"
	"github.com/conduit-lang/searchmap/internal/mapping"
)

// Config holds the sink configuration
type Config struct {
	// Path is the directory holding one <index>.bleve directory per index.
	// Empty keeps every index in memory.
	Path   string
	Logger *zap.Logger
}

// Sink is a backend.Sink over bleve indexes, opened on first use
type Sink struct {
	mu      sync.Mutex
	config  Config
	logger  *zap.Logger
	indexes map[string]blevesearch.Index
	pending map[string]*blevesearch.Batch
	order   []string
	closed  bool
}

var _ backend.Sink = (*Sink)(nil)

// New creates a sink. Nothing is opened until the first write or search.
func New(config Config) *Sink {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		config:  config,
		logger:  logger,
		indexes: make(map[string]blevesearch.Index),
		pending: make(map[string]*blevesearch.Batch),
	}
}

// open returns the named index, creating it when missing. Callers hold mu.
func (s *Sink) open(name string) (blevesearch.Index, error) {
	if s.closed {
		return nil, backend.ErrClosed
	}
	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}

	var (
		idx blevesearch.Index
		err error
	)
	if s.config.Path == "" {
		idx, err = blevesearch.NewMemOnly(blevesearch.NewIndexMapping())
	} else {
		path := filepath.Join(s.config.Path, name+".bleve")
		if _, statErr := os.Stat(path); statErr == nil {
			idx, err = blevesearch.Open(path)
		} else {
			if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", err)
			}
			idx, err = blevesearch.New(path, blevesearch.NewIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", name, err)
	}
	s.indexes[name] = idx
	s.logger.Debug("opened bleve index", zap.String("index", name), zap.String("path", s.config.Path))
	return idx, nil
}

func (s *Sink) batch(name string) (*blevesearch.Batch, error) {
	if b, ok := s.pending[name]; ok {
		return b, nil
	}
	idx, err := s.open(name)
	if err != nil {
		return nil, err
	}
	b := idx.NewBatch()
	s.pending[name] = b
	s.order = append(s.order, name)
	return b, nil
}

// Index buffers a document
func (s *Sink) Index(ctx context.Context, doc mapping.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.batch(doc.Index)
	if err != nil {
		return err
	}
	if err := b.Index(doc.ID, doc.Fields); err != nil {
		return fmt.Errorf("failed to index %s/%s: %w", doc.Index, doc.ID, err)
	}
	return nil
}

// Delete buffers a deletion
func (s *Sink) Delete(ctx context.Context, index, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.batch(index)
	if err != nil {
		return err
	}
	b.Delete(id)
	return nil
}

// Commit executes the pending batch of every index
func (s *Sink) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrClosed
	}

	var errs []error
	for _, name := range s.order {
		b := s.pending[name]
		size := b.Size()
		if err := s.indexes[name].Batch(b); err != nil {
			errs = append(errs, fmt.Errorf("failed to commit index %s: %w", name, err))
			continue
		}
		s.logger.Debug("committed bleve batch", zap.String("index", name), zap.Int("operations", size))
	}
	s.pending = make(map[string]*blevesearch.Batch)
	s.order = nil
	return multierr.Combine(errs...)
}

// Search runs a query string query against index and returns the matching ids,
// best match first
func (s *Sink) Search(ctx context.Context, index, query string, size int) ([]string, error) {
	s.mu.Lock()
	idx, err := s.open(index)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequestOptions(blevesearch.NewQueryStringQuery(query), size, 0, false)
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of documents in index
func (s *Sink) Count(index string) (uint64, error) {
	s.mu.Lock()
	idx, err := s.open(index)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return idx.DocCount()
}

// Close closes every index. Uncommitted writes are dropped.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index %s: %w", name, err))
		}
	}
	s.indexes = nil
	s.pending = nil
	return multierr.Combine(errs...)
}
