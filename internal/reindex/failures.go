package reindex

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FailureCollector accumulates bootstrap failures per type so that every problem of a
// mapping is reported in one pass
type FailureCollector struct {
	logger *zap.Logger
	byType map[string][]error
	order  []string
}

// NewFailureCollector creates an empty collector
func NewFailureCollector(logger *zap.Logger) *FailureCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureCollector{
		logger: logger,
		byType: make(map[string][]error),
	}
}

// Add records err against typeName. Nil errors are ignored; combined errors are split.
func (c *FailureCollector) Add(typeName string, err error) {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return
	}
	if _, ok := c.byType[typeName]; !ok {
		c.order = append(c.order, typeName)
	}
	for _, e := range errs {
		c.logger.Warn("search mapping failure", zap.String("type", typeName), zap.Error(e))
	}
	c.byType[typeName] = append(c.byType[typeName], errs...)
}

// HasFailures reports whether anything was recorded
func (c *FailureCollector) HasFailures() bool {
	return len(c.order) > 0
}

// Failed reports whether typeName has failures
func (c *FailureCollector) Failed(typeName string) bool {
	_, ok := c.byType[typeName]
	return ok
}

// Err returns nil or a *BootstrapError describing every failure
func (c *FailureCollector) Err() error {
	if !c.HasFailures() {
		return nil
	}
	e := &BootstrapError{Types: make([]string, len(c.order)), Failures: make(map[string][]error, len(c.order))}
	copy(e.Types, c.order)
	for _, t := range c.order {
		e.Failures[t] = append([]error(nil), c.byType[t]...)
	}
	return e
}

// BootstrapError lists the failures of a mapping build, grouped by type
type BootstrapError struct {
	// Types lists the failing types in the order failures were first reported
	Types    []string
	Failures map[string][]error
}

func (e *BootstrapError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "search mapping failed for %d type(s):", len(e.Types))
	for _, t := range e.Types {
		fmt.Fprintf(&b, "\n  %s:", t)
		for _, err := range e.Failures[t] {
			fmt.Fprintf(&b, "\n    - %v", err)
		}
	}
	return b.String()
}

// Unwrap exposes every underlying failure to errors.Is and errors.As
func (e *BootstrapError) Unwrap() []error {
	var all []error
	for _, t := range e.Types {
		all = append(all, e.Failures[t]...)
	}
	return all
}

// Combined returns the failures as a single multierr error
func (e *BootstrapError) Combined() error {
	return multierr.Combine(e.Unwrap()...)
}
