// Package backend defines where index documents are written. Implementations live in
// subpackages: bleve for an embedded engine, redis for a remote store.
package backend

import (
	"context"
	"errors"

	"github.com/conduit-lang/searchmap/internal/mapping"
)

// ErrClosed is returned when a sink is used after Close
var ErrClosed = errors.New("sink is closed")

// Sink receives document writes. Writes are buffered until Commit, which applies them
// in order. Sinks are safe for concurrent use.
type Sink interface {
	// Index adds or replaces a document
	Index(ctx context.Context, doc mapping.Document) error
	// Delete removes the document id from index
	Delete(ctx context.Context, index, id string) error
	// Commit applies every buffered write
	Commit(ctx context.Context) error
	// Close releases the sink, discarding uncommitted writes
	Close() error
}

// Operation kinds
const (
	OpIndex  = "index"
	OpDelete = "delete"
)

// Operation is a buffered write
type Operation struct {
	Kind   string                 `json:"op"`
	Index  string                 `json:"index"`
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}
