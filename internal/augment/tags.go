package augment

import (
	"fmt"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
	"github.com/conduit-lang/searchmap/internal/modelpath"
	"github.com/conduit-lang/searchmap/internal/searchtag"
)

// AddStructTags records the inverse sides declared with `search:"inverse=..."` on the
// fields of t. The declaration applies to the values under the tag's extract path.
// Types without any inverse tag are left undeclared.
func (b *Builder) AddStructTags(t *model.TypeModel) error {
	var tb *TypeBuilder
	for _, p := range t.Properties() {
		d, ok, err := searchtag.Lookup(p.Tag())
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), p.Name(), err)
		}
		if !ok || d.Inverse == "" {
			continue
		}
		extractors, err := extractor.ParsePath(d.Extract)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), p.Name(), err)
		}
		inverse, err := modelpath.Parse(d.Inverse)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), p.Name(), err)
		}
		if tb == nil {
			tb = b.Type(t.Type())
		}
		if err := tb.Property(p.Name()).Value(extractors).InverseSide(inverse); err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), p.Name(), err)
		}
	}
	return nil
}
