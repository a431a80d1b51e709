package augment

import (
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/modelpath"
)

// yamlDocument is the file layout:
//
//	types:
//	  "*shop.Order":
//	    Lines:
//	      - extract: "[collection]"
//	        inverse: Order
type yamlDocument struct {
	Types map[string]map[string][]yamlValue `yaml:"types"`
}

type yamlValue struct {
	Extract string `yaml:"extract"`
	Inverse string `yaml:"inverse"`
}

// LoadYAML reads inverse-side declarations from r. Type names are resolved through
// types, keyed by reflect.Type.String().
func (b *Builder) LoadYAML(r io.Reader, types map[string]reflect.Type) error {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode metadata: %w", err)
	}

	for typeName, props := range doc.Types {
		rt, ok := types[typeName]
		if !ok {
			return fmt.Errorf("metadata declared for unknown type %q", typeName)
		}
		tb := b.Type(rt)
		for propName, values := range props {
			for _, v := range values {
				extractors, err := extractor.ParsePath(v.Extract)
				if err != nil {
					return fmt.Errorf("%s.%s: %w", typeName, propName, err)
				}
				if v.Inverse == "" {
					continue
				}
				inverse, err := modelpath.Parse(v.Inverse)
				if err != nil {
					return fmt.Errorf("%s.%s: %w", typeName, propName, err)
				}
				if err := tb.Property(propName).Value(extractors).InverseSide(inverse); err != nil {
					return fmt.Errorf("%s.%s: %w", typeName, propName, err)
				}
			}
		}
	}
	return nil
}
