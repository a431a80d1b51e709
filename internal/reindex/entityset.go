package reindex

import "reflect"

// EntitySet is an insertion-ordered set of entities, compared by identity
type EntitySet struct {
	seen  map[interface{}]struct{}
	items []interface{}
}

// NewEntitySet creates an empty set
func NewEntitySet() *EntitySet {
	return &EntitySet{seen: make(map[interface{}]struct{})}
}

// Add inserts e, returning false if it was already present.
// Non-comparable values are appended without deduplication.
func (s *EntitySet) Add(e interface{}) bool {
	if e == nil {
		return false
	}
	if !reflect.TypeOf(e).Comparable() {
		s.items = append(s.items, e)
		return true
	}
	if _, ok := s.seen[e]; ok {
		return false
	}
	s.seen[e] = struct{}{}
	s.items = append(s.items, e)
	return true
}

// Contains reports whether e is in the set
func (s *EntitySet) Contains(e interface{}) bool {
	if e == nil || !reflect.TypeOf(e).Comparable() {
		return false
	}
	_, ok := s.seen[e]
	return ok
}

// Len returns the number of entities
func (s *EntitySet) Len() int {
	return len(s.items)
}

// Items returns the entities in insertion order
func (s *EntitySet) Items() []interface{} {
	result := make([]interface{}, len(s.items))
	copy(result, s.items)
	return result
}

// AddAll inserts every entity of other
func (s *EntitySet) AddAll(other *EntitySet) {
	for _, e := range other.items {
		s.Add(e)
	}
}
