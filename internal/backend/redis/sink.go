// Package redis writes index operations to Redis for a remote search cluster to consume.
// Each committed operation is appended as JSON to the list <prefix><index>:ops, and the
// latest document body is kept under <prefix><index>:doc:<id>.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/backend"
	"github.com/conduit-lang/searchmap/internal/mapping"
)

// Config holds Redis-specific configuration
type Config struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// KeyPrefix is prepended to every key
	KeyPrefix string
	Logger    *zap.Logger
}

// DefaultConfig returns a default Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "searchmap:",
	}
}

// Sink is a backend.Sink over a Redis client
type Sink struct {
	client *goredis.Client
	prefix string
	logger *zap.Logger

	mu      sync.Mutex
	pending []backend.Operation
	closed  bool
}

var _ backend.Sink = (*Sink)(nil)

// New connects to Redis and checks the connection
func New(config Config) (*Sink, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}
	return NewWithClient(client, config), nil
}

// NewWithClient creates a sink with an existing client. Addr, Password and DB are ignored.
func NewWithClient(client *goredis.Client, config Config) *Sink {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{client: client, prefix: config.KeyPrefix, logger: logger}
}

// OpsKey returns the key of the operation list of index
func (s *Sink) OpsKey(index string) string {
	return s.prefix + index + ":ops"
}

// DocKey returns the key holding the latest body of a document
func (s *Sink) DocKey(index, id string) string {
	return s.prefix + index + ":doc:" + id
}

func (s *Sink) add(ctx context.Context, op backend.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrClosed
	}
	s.pending = append(s.pending, op)
	return nil
}

// Index buffers a document
func (s *Sink) Index(ctx context.Context, doc mapping.Document) error {
	return s.add(ctx, backend.Operation{Kind: backend.OpIndex, Index: doc.Index, ID: doc.ID, Fields: doc.Fields})
}

// Delete buffers a deletion
func (s *Sink) Delete(ctx context.Context, index, id string) error {
	return s.add(ctx, backend.Operation{Kind: backend.OpDelete, Index: index, ID: id})
}

// Commit writes every buffered operation in a single transaction. On failure the
// operations stay buffered so a later Commit retries them.
func (s *Sink) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrClosed
	}
	if len(s.pending) == 0 {
		return nil
	}

	payloads := make([][]byte, len(s.pending))
	for i, op := range s.pending {
		data, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to encode %s/%s: %w", op.Index, op.ID, err)
		}
		payloads[i] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, op := range s.pending {
			switch op.Kind {
			case backend.OpIndex:
				body, err := json.Marshal(op.Fields)
				if err != nil {
					return err
				}
				pipe.Set(ctx, s.DocKey(op.Index, op.ID), body, 0)
			case backend.OpDelete:
				pipe.Del(ctx, s.DocKey(op.Index, op.ID))
			}
			pipe.RPush(ctx, s.OpsKey(op.Index), payloads[i])
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit %d operations: %w", len(s.pending), err)
	}

	s.logger.Debug("committed redis operations", zap.Int("operations", len(s.pending)))
	s.pending = nil
	return nil
}

// Document returns the committed body of a document
func (s *Sink) Document(ctx context.Context, index, id string) (map[string]interface{}, bool, error) {
	data, err := s.client.Get(ctx, s.DocKey(index, id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s/%s: %w", index, id, err)
	}
	return fields, true, nil
}

// Operations returns the committed operations of index, oldest first
func (s *Sink) Operations(ctx context.Context, index string) ([]backend.Operation, error) {
	raw, err := s.client.LRange(ctx, s.OpsKey(index), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ops := make([]backend.Operation, 0, len(raw))
	for _, r := range raw {
		var op backend.Operation
		if err := json.Unmarshal([]byte(r), &op); err != nil {
			return nil, fmt.Errorf("failed to decode operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Close closes the client. Uncommitted operations are dropped.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	return s.client.Close()
}
