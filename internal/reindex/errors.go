package reindex

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCannotInvertAssociation is returned when no inverse side can be found for an association
	ErrCannotInvertAssociation = errors.New("cannot invert association")

	// ErrAmbiguousInverseAssociation is returned when several associations qualify as inverse side
	ErrAmbiguousInverseAssociation = errors.New("ambiguous inverse association")

	// ErrIncompatibleInverseType is returned when an inverse path leads to a type unrelated
	// to the entity it is supposed to lead back to
	ErrIncompatibleInverseType = errors.New("incompatible inverse association type")

	// ErrBuilderFrozen is the panic value cause when a builder is mutated after freeze
	ErrBuilderFrozen = errors.New("resolver builder is frozen")

	// ErrNotAnEntity is returned when a dependency collector is requested for a non-entity type
	ErrNotAnEntity = errors.New("type is not an entity")
)

// InversionError reports an association whose inverse side could not be determined
type InversionError struct {
	// InverseSideType is the type searched for the inverse side
	InverseSideType string
	// Path is the association path being inverted, rooted at its entity type
	Path string
	// Candidates lists the matching inverse paths when the inversion is ambiguous
	Candidates []string
	// Cause is set when a declared inverse path could not be applied
	Cause error
}

func (e *InversionError) Error() string {
	var b strings.Builder
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, "%s: association %s has several inverse sides on %s: %s",
			ErrAmbiguousInverseAssociation, e.Path, e.InverseSideType, strings.Join(e.Candidates, ", "))
	} else {
		fmt.Fprintf(&b, "%s: association %s has no inverse side on %s",
			ErrCannotInvertAssociation, e.Path, e.InverseSideType)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *InversionError) Unwrap() []error {
	sentinel := ErrCannotInvertAssociation
	if len(e.Candidates) > 0 {
		sentinel = ErrAmbiguousInverseAssociation
	}
	if e.Cause != nil {
		return []error{sentinel, e.Cause}
	}
	return []error{sentinel}
}

// IncompatibleTypeError reports an inverse path whose values cannot be the expected entity
type IncompatibleTypeError struct {
	// Path is the association path being inverted
	Path string
	// InversePath is the inverse path applied on InverseSideType
	InversePath     string
	InverseSideType string
	// ActualType is the static type the inverse path leads to
	ActualType string
	// ExpectedType is the entity type the inverse path should lead back to
	ExpectedType string
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("%s: inverse path %s on %s of association %s leads to %s, expected %s",
		ErrIncompatibleInverseType, e.InversePath, e.InverseSideType, e.Path, e.ActualType, e.ExpectedType)
}

func (e *IncompatibleTypeError) Unwrap() error {
	return ErrIncompatibleInverseType
}
