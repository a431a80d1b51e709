package reindex

import (
	"reflect"

	"github.com/conduit-lang/searchmap/internal/augment"
	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

// PathInverter finds, for a path from entity A to entity B, the path from B back to A
type PathInverter struct {
	binder   *extractor.Binder
	metadata *augment.Metadata
	entities *model.EntityTypes
}

// NewPathInverter creates an inverter reading inverse-side declarations from metadata
func NewPathInverter(binder *extractor.Binder, metadata *augment.Metadata, entities *model.EntityTypes) *PathInverter {
	return &PathInverter{binder: binder, metadata: metadata, entities: entities}
}

// InvertPath returns the path from inverseSideType back to the root entity of pathToInvert.
//
// The inverse side declared on the association itself is used when present. Otherwise
// every association declared on inverseSideType (and on embedded components reachable
// from it) whose own inverse side is pathToInvert, in any equivalent spelling, and whose
// values can hold the original entity, qualifies. More than one qualifying association
// is an error rather than an arbitrary pick.
func (inv *PathInverter) InvertPath(inverseSideType *model.TypeModel, pathToInvert *modelpath.BoundValue) (*modelpath.Path, error) {
	if explicit := inv.declaredInverse(pathToInvert); explicit != nil {
		return explicit, nil
	}

	candidates := make(map[string]struct{})
	for _, form := range inv.equivalentForms(pathToInvert) {
		candidates[form.Key()] = struct{}{}
	}

	var matches []*modelpath.Path
	inv.search(inverseSideType, nil, candidates, pathToInvert.RootType(), map[reflect.Type]bool{}, &matches)

	switch len(matches) {
	case 0:
		return nil, &InversionError{
			InverseSideType: inverseSideType.Name(),
			Path:            pathToInvert.String(),
		}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return nil, &InversionError{
			InverseSideType: inverseSideType.Name(),
			Path:            pathToInvert.String(),
			Candidates:      names,
		}
	}
}

// declaredInverse looks up the inverse side declared on the last hop of the path,
// first under the resolved extractor path, then under the default spelling when the
// resolved path is what the default resolves to
func (inv *PathInverter) declaredInverse(path *modelpath.BoundValue) *modelpath.Path {
	declaring := path.Parent().Parent().Type()
	propertyName := path.Parent().Property().Name()

	keys := []extractor.Path{path.BoundExtractors().Path()}
	if path.RequestedExtractors().IsDefault() || path.IsDefaultEquivalent() {
		keys = append(keys, extractor.Default)
	}

	for _, t := range declaring.AscendingSuperTypes() {
		pm := inv.metadata.Type(t.Type()).Property(propertyName)
		if pm == nil {
			continue
		}
		for _, key := range keys {
			if inverse := pm.Value(key).InverseSidePath(); inverse != nil {
				return inverse
			}
		}
	}
	return nil
}

// equivalentForms returns every spelling of path obtained by writing each hop either
// with its resolved extractors or, when equivalent, with the default path
func (inv *PathInverter) equivalentForms(path *modelpath.BoundValue) []*modelpath.Path {
	var prefixes []*modelpath.Path
	if parent := path.Parent().Parent().Parent(); parent != nil {
		prefixes = inv.equivalentForms(parent)
	} else {
		prefixes = []*modelpath.Path{nil}
	}

	name := path.Parent().Property().Name()
	hopForms := []extractor.Path{path.BoundExtractors().Path()}
	if path.IsDefaultEquivalent() {
		hopForms = append(hopForms, extractor.Default)
	}

	result := make([]*modelpath.Path, 0, len(prefixes)*len(hopForms))
	for _, prefix := range prefixes {
		for _, form := range hopForms {
			result = append(result, prefix.Value(name, form))
		}
	}
	return result
}

func (inv *PathInverter) search(
	t *model.TypeModel,
	prefix *modelpath.Path,
	candidates map[string]struct{},
	originalType *model.TypeModel,
	visited map[reflect.Type]bool,
	matches *[]*modelpath.Path,
) {
	if visited[t.Type()] {
		return
	}
	visited[t.Type()] = true
	defer delete(visited, t.Type())

	seen := make(map[string]bool)
	for _, super := range t.AscendingSuperTypes() {
		for _, pm := range inv.metadata.Type(super.Type()).Properties() {
			for _, vm := range pm.Values() {
				inverse := vm.InverseSidePath()
				if inverse == nil {
					continue
				}
				if _, ok := candidates[inverse.Key()]; !ok {
					continue
				}
				prop, err := t.Property(pm.Name())
				if err != nil {
					continue
				}
				bound, ok := inv.binder.TryBind(prop.Type(), vm.Extractors())
				if !ok || !originalType.IsSubTypeOf(bound.ExtractedType()) {
					continue
				}
				match := prefix.Value(pm.Name(), vm.Extractors())
				if !seen[bound.Path().Key()+pm.Name()] {
					seen[bound.Path().Key()+pm.Name()] = true
					*matches = append(*matches, match)
				}
			}
		}
	}

	// Associations held by embedded components belong to the entity holding them
	for _, prop := range t.Properties() {
		bound, ok := inv.binder.TryBind(prop.Type(), extractor.Default)
		if !ok {
			continue
		}
		valueType := bound.ExtractedType()
		if inv.entities.IsEntity(valueType) || !inv.hasMetadata(valueType) {
			continue
		}
		inv.search(valueType, prefix.Value(prop.Name(), extractor.Default), candidates, originalType, visited, matches)
	}
}

func (inv *PathInverter) hasMetadata(t *model.TypeModel) bool {
	for _, super := range t.AscendingSuperTypes() {
		if inv.metadata.Type(super.Type()) != nil {
			return true
		}
	}
	return false
}
