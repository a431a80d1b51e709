package extractor

import "errors"

var (
	// ErrInvalidPath is returned when an extractor path cannot be parsed or applied
	ErrInvalidPath = errors.New("invalid container extractor path")

	// ErrUnknownExtractor is returned when a path names an extractor that is not registered
	ErrUnknownExtractor = errors.New("unknown container extractor")

	// ErrDuplicateExtractor is returned when two extractors are registered under the same name
	ErrDuplicateExtractor = errors.New("duplicate container extractor")
)
