package mapping

import "errors"

var (
	// ErrDuplicateIndex is returned when two entity types declare the same index name
	ErrDuplicateIndex = errors.New("duplicate index name")

	// ErrCyclicEmbedding is returned when a type embeds itself without a depth limit
	ErrCyclicEmbedding = errors.New("cyclic embedding without depth limit")

	// ErrMissingID is returned when an indexed type has no id property
	ErrMissingID = errors.New("indexed type has no id property")

	// ErrNotIndexed is returned when a document is requested for a type that is not indexed
	ErrNotIndexed = errors.New("type is not indexed")

	// ErrUnknownType is returned when a type name does not match any entity type
	ErrUnknownType = errors.New("unknown entity type")
)
