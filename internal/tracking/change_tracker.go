// Package tracking turns two snapshots of an entity into the dirty paths the
// reindexing resolvers filter on.
package tracking

import (
	"reflect"
	"sort"
	"sync"

	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/reindex"
)

// FieldChange represents a change to a single path
type FieldChange struct {
	Path     string
	OldValue interface{}
	NewValue interface{}
}

// ChangeTracker compares two snapshots of the same entity
type ChangeTracker struct {
	mu       sync.RWMutex
	original map[string]interface{}
	current  map[string]interface{}
	changes  map[string]*FieldChange
}

// NewChangeTracker creates a tracker from the state before and after a change
func NewChangeTracker(original, current map[string]interface{}) *ChangeTracker {
	ct := &ChangeTracker{
		original: copySnapshot(original),
		current:  copySnapshot(current),
		changes:  make(map[string]*FieldChange),
	}
	ct.computeChanges()
	return ct
}

func copySnapshot(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[k] = copyValue(v)
	}
	return result
}

// copyValue copies containers so that later mutation of the entity does not leak into
// the snapshot. Pointers are kept: associations compare by identity.
func copyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		slice := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			slice[i] = copyValue(val.Index(i).Interface())
		}
		return slice
	case reflect.Map:
		if val.IsNil() {
			return nil
		}
		m := make(map[interface{}]interface{}, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			m[iter.Key().Interface()] = copyValue(iter.Value().Interface())
		}
		return m
	default:
		return v
	}
}

// sameValue compares snapshot values. Pointers are equal only when identical, so that
// replacing an association is a change even when both entities look alike.
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[interface{}]interface{}:
		bv, ok := b.(map[interface{}]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !sameValue(v, w) {
				return false
			}
		}
		return true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Ptr && vb.Kind() == reflect.Ptr {
		return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

func (ct *ChangeTracker) computeChanges() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	for path, newValue := range ct.current {
		oldValue, hadOldValue := ct.original[path]
		if !hadOldValue || !sameValue(oldValue, newValue) {
			ct.changes[path] = &FieldChange{Path: path, OldValue: oldValue, NewValue: newValue}
		}
	}
	for path, oldValue := range ct.original {
		if _, exists := ct.current[path]; !exists {
			ct.changes[path] = &FieldChange{Path: path, OldValue: oldValue}
		}
	}
}

// Changed reports whether path changed
func (ct *ChangeTracker) Changed(path string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, ok := ct.changes[path]
	return ok
}

// ChangedFields returns the changed paths, sorted
func (ct *ChangeTracker) ChangedFields() []string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	fields := make([]string, 0, len(ct.changes))
	for path := range ct.changes {
		fields = append(fields, path)
	}
	sort.Strings(fields)
	return fields
}

// GetChange returns the change of path, or nil if unchanged
func (ct *ChangeTracker) GetChange(path string) *FieldChange {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.changes[path]
}

// HasChanges reports whether anything changed
func (ct *ChangeTracker) HasChanges() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.changes) > 0
}

// DirtyPaths returns the changed paths as a resolver filter
func (ct *ChangeTracker) DirtyPaths() *reindex.DirtyPaths {
	return reindex.NewDirtyPaths(ct.ChangedFields()...)
}

// Reset makes the current state the new original, after the change has been indexed
func (ct *ChangeTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.original = copySnapshot(ct.current)
	ct.changes = make(map[string]*FieldChange)
}

// SetFieldValue updates one path of the current state and recomputes its change
func (ct *ChangeTracker) SetFieldValue(path string, value interface{}) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	value = copyValue(value)
	ct.current[path] = value
	oldValue, hadOldValue := ct.original[path]
	if !hadOldValue || !sameValue(oldValue, value) {
		ct.changes[path] = &FieldChange{Path: path, OldValue: oldValue, NewValue: value}
	} else {
		delete(ct.changes, path)
	}
}

// Snapshot captures the exported fields of entity. Fields of embedded value structs
// (components) are captured under dotted paths such as "Address.City"; everything
// else, associations included, is captured as is.
func Snapshot(introspector *model.Introspector, entity interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	if entity == nil {
		return result
	}
	snapshot(introspector, reflect.ValueOf(entity), "", result, 0)
	return result
}

// maxComponentDepth bounds recursion into nested value structs
const maxComponentDepth = 8

func snapshot(introspector *model.Introspector, v reflect.Value, prefix string, out map[string]interface{}, depth int) {
	t := introspector.TypeModel(v.Type())
	v, ok := t.Indirect(v)
	if !ok {
		return
	}
	for _, p := range t.Properties() {
		if !p.IsField() {
			continue
		}
		value := p.Get(v)
		if !value.IsValid() || !value.CanInterface() {
			continue
		}
		path := prefix + p.Name()
		if value.Kind() == reflect.Struct && depth < maxComponentDepth && hasFields(introspector, value.Type()) {
			snapshot(introspector, value, path+".", out, depth+1)
			continue
		}
		out[path] = copyValue(value.Interface())
	}
}

func hasFields(introspector *model.Introspector, rt reflect.Type) bool {
	for _, p := range introspector.TypeModel(rt).Properties() {
		if p.IsField() {
			return true
		}
	}
	return false
}
