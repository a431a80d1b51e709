package model

import "errors"

var (
	// ErrUnknownProperty is returned when a property cannot be found on a type
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidEntityType is returned when a type cannot be registered as an entity
	ErrInvalidEntityType = errors.New("invalid entity type")
)
