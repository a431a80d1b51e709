package extractor_test

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/searchmap/internal/extractor"
	"github.com/conduit-lang/searchmap/internal/model"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    extractor.Path
		wantErr bool
	}{
		{in: "", want: extractor.Default},
		{in: "default", want: extractor.Default},
		{in: "[]", want: extractor.None},
		{in: "none", want: extractor.None},
		{in: "[collection]", want: extractor.Explicit("collection")},
		{in: "[map-value / optional]", want: extractor.Explicit("map-value", "optional")},
		{in: "collection", wantErr: true},
		{in: "[a//b]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := extractor.ParsePath(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, extractor.ErrInvalidPath))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got.Key())
		})
	}
}

func TestPath_Spelling(t *testing.T) {
	assert.True(t, extractor.Default.IsDefault())
	assert.False(t, extractor.Default.IsEmpty())
	assert.True(t, extractor.None.IsEmpty())
	assert.Equal(t, "default", extractor.Default.Key())
	assert.Equal(t, "", extractor.Default.String())
	assert.Equal(t, "[]", extractor.None.String())
	assert.Equal(t, "[collection/optional]", extractor.Explicit("collection").Append("optional").String())
	assert.False(t, extractor.Default.Equal(extractor.None))
}

func TestRegistry_Duplicate(t *testing.T) {
	r := extractor.NewRegistry()
	_, ok := r.Get(extractor.MapKey)
	assert.True(t, ok)

	err := r.Register(upperExtractor{name: extractor.Collection}, false)
	assert.True(t, errors.Is(err, extractor.ErrDuplicateExtractor))
}

type order struct {
	Lines   []*line
	ByCode  map[string][]*line
	Gift    model.Optional[*line]
	Matrix  [][]int
	Comment string
}

type line struct{ Product string }

func bind(t *testing.T, b *extractor.Binder, intro *model.Introspector, property string, path extractor.Path) extractor.BoundPath {
	t.Helper()
	prop, err := intro.TypeOf(&order{}).Property(property)
	require.NoError(t, err)
	bound, err := b.Bind(prop.Type(), path)
	require.NoError(t, err)
	return bound
}

func TestBinder_Default(t *testing.T) {
	intro := model.NewIntrospector()
	b := extractor.NewBinder(intro, extractor.NewRegistry())

	tests := []struct {
		property string
		path     string
		typ      string
	}{
		{"Lines", "[collection]", "*extractor_test.line"},
		{"ByCode", "[map-value/collection]", "*extractor_test.line"},
		{"Gift", "[optional]", "*extractor_test.line"},
		{"Matrix", "[collection/collection]", "int"},
		{"Comment", "[]", "string"},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			bound := bind(t, b, intro, tt.property, extractor.Default)
			assert.Equal(t, tt.path, bound.Path().String())
			assert.Equal(t, tt.typ, bound.ExtractedType().Name())

			prop, _ := intro.TypeOf(&order{}).Property(tt.property)
			assert.True(t, b.IsDefaultPath(prop.Type(), bound.Path()))
		})
	}
}

func TestBinder_Explicit(t *testing.T) {
	intro := model.NewIntrospector()
	b := extractor.NewBinder(intro, extractor.NewRegistry())

	keys := bind(t, b, intro, "ByCode", extractor.Explicit(extractor.MapKey))
	assert.Equal(t, "string", keys.ExtractedType().Name())

	prop, _ := intro.TypeOf(&order{}).Property("ByCode")
	assert.False(t, b.IsDefaultPath(prop.Type(), keys.Path()))

	_, err := b.Bind(prop.Type(), extractor.Explicit(extractor.Optional))
	assert.True(t, errors.Is(err, extractor.ErrInvalidPath))
	_, err = b.Bind(prop.Type(), extractor.Explicit("nope"))
	assert.True(t, errors.Is(err, extractor.ErrUnknownExtractor))
	_, ok := b.TryBind(prop.Type(), extractor.Explicit("nope"))
	assert.False(t, ok)
}

func TestChain_Extract(t *testing.T) {
	intro := model.NewIntrospector()
	b := extractor.NewBinder(intro, extractor.NewRegistry())
	a, c := &line{Product: "a"}, &line{Product: "c"}
	o := &order{
		Lines:  []*line{a, nil, c},
		ByCode: map[string][]*line{"x": {a}, "y": nil},
		Gift:   model.Some(c),
	}
	v := reflect.ValueOf(o).Elem()

	collect := func(property string, path extractor.Path) []string {
		chain := b.Create(bind(t, b, intro, property, path))
		var out []string
		chain.Extract(v.FieldByName(property), func(e reflect.Value) {
			out = append(out, e.Interface().(*line).Product)
		})
		sort.Strings(out)
		return out
	}

	assert.Equal(t, []string{"a", "c"}, collect("Lines", extractor.Default))
	assert.Equal(t, []string{"a"}, collect("ByCode", extractor.Default))
	assert.Equal(t, []string{"c"}, collect("Gift", extractor.Default))

	o.Gift = model.None[*line]()
	assert.Empty(t, collect("Gift", extractor.Default))
}

func TestRegistry_CustomDefault(t *testing.T) {
	intro := model.NewIntrospector()
	r := extractor.NewRegistry()
	require.NoError(t, r.Register(upperExtractor{name: "upper"}, false))
	b := extractor.NewBinder(intro, r)

	prop, err := intro.TypeOf(&order{}).Property("Comment")
	require.NoError(t, err)
	bound, err := b.Bind(prop.Type(), extractor.Explicit("upper"))
	require.NoError(t, err)

	var out []string
	b.Create(bound).Extract(reflect.ValueOf("go"), func(v reflect.Value) { out = append(out, v.String()) })
	assert.Equal(t, []string{"GO"}, out)
	assert.Equal(t, "[upper]", b.Create(bound).String())
}

// upperExtractor yields the upper-cased string
type upperExtractor struct{ name string }

func (u upperExtractor) Name() string { return u.name }

func (upperExtractor) ElementType(t reflect.Type) (reflect.Type, bool) {
	return t, t.Kind() == reflect.String
}

func (upperExtractor) Extract(container reflect.Value, fn func(reflect.Value)) {
	b := []byte(container.String())
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	fn(reflect.ValueOf(string(b)))
}
