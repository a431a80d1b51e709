package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/backend"
	"github.com/conduit-lang/searchmap/internal/indexing"
	"github.com/conduit-lang/searchmap/internal/mapping"
)

// ErrEntityNotFound is returned by an EntityLoader for entities that no longer exist
var ErrEntityNotFound = errors.New("entity not found")

// EntityLoader loads the current state of an entity named by an event
type EntityLoader interface {
	// Load returns the entity of type entityType identified by id, with the associations
	// needed for indexing reachable from it
	Load(ctx context.Context, entityType, id string) (interface{}, error)
}

// LoaderFunc adapts a function to EntityLoader
type LoaderFunc func(ctx context.Context, entityType, id string) (interface{}, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context, entityType, id string) (interface{}, error) {
	return f(ctx, entityType, id)
}

// WorkerConfig holds worker settings
type WorkerConfig struct {
	ID           string
	PollInterval time.Duration
	BatchSize    int
	Logger       *zap.Logger
}

// DefaultWorkerConfig returns the default worker settings
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		ID:           "searchmap-worker",
		PollInterval: time.Second,
		BatchSize:    100,
	}
}

// Worker drains the outbox into indexing plans
type Worker struct {
	ID      string
	queue   *Queue
	mapping *mapping.Mapping
	sink    backend.Sink
	loader  EntityLoader
	config  WorkerConfig
	logger  *zap.Logger
}

// NewWorker creates a worker. Zero config fields take their defaults.
func NewWorker(queue *Queue, m *mapping.Mapping, sink backend.Sink, loader EntityLoader, config WorkerConfig) *Worker {
	defaults := DefaultWorkerConfig()
	if config.ID == "" {
		config.ID = defaults.ID
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		ID:      config.ID,
		queue:   queue,
		mapping: m,
		sink:    sink,
		loader:  loader,
		config:  config,
		logger:  logger.With(zap.String("worker", config.ID)),
	}
}

// Run processes batches until ctx is done. It sleeps for the poll interval whenever
// the outbox is empty.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("outbox worker started", zap.String("table", w.queue.Table()))
	for {
		n, err := w.ProcessBatch(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("outbox batch failed", zap.Error(err))
		}
		if n > 0 && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return ctx.Err()
		case <-time.After(w.config.PollInterval):
		}
	}
}

// ProcessBatch dequeues up to BatchSize events, indexes them in one plan and completes
// them. Events that cannot be loaded or recorded are retried or failed individually.
// It returns the number of dequeued events.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	var events []*Event
	for len(events) < w.config.BatchSize {
		event, err := w.queue.Dequeue(ctx, w.ID)
		if errors.Is(err, ErrNoEvents) {
			break
		}
		if err != nil {
			w.releaseAll(ctx, events, err)
			return len(events), err
		}
		events = append(events, event)
	}
	if len(events) == 0 {
		return 0, nil
	}

	plan := indexing.NewPlan(w.mapping, w.sink, indexing.WithLogger(w.logger))
	var planned []*Event
	for _, event := range events {
		if err := w.record(ctx, plan, event); err != nil {
			w.handleFailure(ctx, event, err)
			continue
		}
		planned = append(planned, event)
	}

	report, err := plan.Execute(ctx)
	if err != nil {
		w.releaseAll(ctx, planned, err)
		return len(events), err
	}

	for _, event := range planned {
		if err := w.queue.Complete(ctx, event.ID); err != nil {
			w.logger.Error("failed to complete event", zap.String("event", event.ID.String()), zap.Error(err))
		}
	}
	w.logger.Info("processed outbox batch",
		zap.Int("events", len(events)),
		zap.Int("indexed", report.Indexed),
		zap.Int("deleted", report.Deleted))
	return len(events), nil
}

func (w *Worker) record(ctx context.Context, plan *indexing.Plan, event *Event) error {
	entity, err := w.loader.Load(ctx, event.EntityType, event.EntityID)
	if errors.Is(err, ErrEntityNotFound) && event.Operation == OpDelete {
		t, ok := w.mapping.TypeByName(event.EntityType)
		if !ok {
			return fmt.Errorf("%w: %q", mapping.ErrUnknownType, event.EntityType)
		}
		idx, ok := w.mapping.IndexOfType(t)
		if !ok {
			return nil
		}
		return plan.DeleteDocument(idx.Name(), event.EntityID)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", event.EntityType, event.EntityID, err)
	}

	switch event.Operation {
	case OpAdd:
		return plan.Add(entity)
	case OpUpdate:
		return plan.Update(entity, event.Paths...)
	case OpDelete:
		return plan.Delete(entity)
	default:
		return fmt.Errorf("unknown operation %q", event.Operation)
	}
}

func (w *Worker) releaseAll(ctx context.Context, events []*Event, err error) {
	for _, event := range events {
		w.handleFailure(ctx, event, err)
	}
}

// handleFailure retries the event while attempts remain, then fails it
func (w *Worker) handleFailure(ctx context.Context, event *Event, err error) {
	errMsg := err.Error()
	log := w.logger.With(
		zap.String("event", event.ID.String()),
		zap.Int("attempt", event.Attempts),
		zap.Int("max_attempts", event.MaxAttempts))

	if event.IsRetryable() {
		retryErr := w.queue.Retry(ctx, event.ID)
		if retryErr == nil {
			log.Warn("event scheduled for retry", zap.Error(err))
			return
		}
		log.Error("failed to retry event", zap.Error(retryErr))
	}

	if failErr := w.queue.Fail(ctx, event.ID, errMsg); failErr != nil {
		log.Error("failed to mark event as failed", zap.Error(failErr))
		return
	}
	log.Error("event failed", zap.Error(err))
}
