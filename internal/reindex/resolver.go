package reindex

import (
	"reflect"
	"strings"

	"github.com/conduit-lang/searchmap/internal/model"
)

// Resolver determines, for a changed entity of one concrete type, which entities
// must be reindexed. It is immutable and safe for concurrent use.
type Resolver struct {
	typ       *model.TypeModel
	root      node
	selfPaths []string
}

// Type returns the entity type this resolver applies to
func (r *Resolver) Type() *model.TypeModel { return r.typ }

// SelfDirtyPaths returns the paths whose change requires reindexing the entity itself
func (r *Resolver) SelfDirtyPaths() []string {
	result := make([]string, len(r.selfPaths))
	copy(result, r.selfPaths)
	return result
}

// RequiresSelfReindexing reports whether the entity itself must be reindexed.
// A nil dirty set means everything changed. Types that are not indexed never
// require it.
func (r *Resolver) RequiresSelfReindexing(dirty *DirtyPaths) bool {
	if len(r.selfPaths) == 0 {
		return false
	}
	return dirty.MatchesAny(r.selfPaths)
}

// ResolveEntitiesToReindex returns every entity whose document may be stale after
// entity changed: entity itself when its own document depends on a dirty path, then
// the entities embedding it. A nil dirty set means every path is considered dirty.
func (r *Resolver) ResolveEntitiesToReindex(entity interface{}, dirty *DirtyPaths) *EntitySet {
	out := NewEntitySet()
	if entity == nil {
		return out
	}
	if r.RequiresSelfReindexing(dirty) {
		out.Add(entity)
	}
	if r.root != nil {
		r.root.resolve(reflect.ValueOf(entity), dirty, out)
	}
	return out
}

// ResolveContainingEntities is ResolveEntitiesToReindex without entity itself
func (r *Resolver) ResolveContainingEntities(entity interface{}, dirty *DirtyPaths) *EntitySet {
	out := NewEntitySet()
	if r.root == nil || entity == nil {
		return out
	}
	r.root.resolve(reflect.ValueOf(entity), dirty, out)
	return out
}

// String renders the resolver tree
func (r *Resolver) String() string {
	w := &treeWriter{}
	w.line(0, "resolver", r.typ.Name())
	if len(r.selfPaths) > 0 {
		w.line(1, "self", "["+strings.Join(r.selfPaths, ", ")+"]")
	}
	if r.root != nil {
		w.depth = 1
		r.root.describe(w)
	}
	return w.String()
}
