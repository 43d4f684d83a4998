package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointSource = "struct Point {\n    p: vec3<f32>,\n};\n"

func newTestPreProcessor() PreProcessor {
	return NewPreProcessor(WithStruct("point", pointSource, "Point"))
}

func TestProcessIncludesAndDeclares(t *testing.T) {
	src := "// @oxy:include point\n// @oxy:include point\n// @oxy:group 1 2 storage_read points array<point>\nfn main() {}"

	p := newTestPreProcessor()
	out, err := p.Process(src)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct Point"), "a struct is included once")
	assert.Contains(t, out, "@group(1) @binding(2) var<storage, read> points: array<Point>;")
	assert.Contains(t, out, "fn main() {}")
	assert.NotContains(t, out, "@oxy:")

	decls := p.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, 1, decls[0].Group)
	assert.Equal(t, 2, decls[0].Binding)
	assert.Equal(t, 3, decls[0].Line)
	assert.Equal(t, AnnotationArgStorageTypeRead, decls[0].AddressSpace())
	assert.Equal(t, "points", decls[0].Name())
	assert.Equal(t, AnnotationArg("point"), decls[0].StructType())
}

func TestProcessResetsDeclarations(t *testing.T) {
	p := newTestPreProcessor()
	_, err := p.Process("// @oxy:group 0 0 storage_uniform u point")
	require.NoError(t, err)
	_, err = p.Process("fn main() {}")
	require.NoError(t, err)

	assert.Empty(t, p.Declarations())
}

func TestProcessErrors(t *testing.T) {
	tests := map[string]string{
		"empty":           "// @oxy:",
		"unknown type":    "// @oxy:define X 1",
		"unknown include": "// @oxy:include nope",
		"include arity":   "// @oxy:include point extra",
		"group arity":     "// @oxy:group 0 0 storage_uniform u",
		"bad group":       "// @oxy:group a 0 storage_uniform u point",
		"negative":        "// @oxy:group 0 -1 storage_uniform u point",
		"address space":   "// @oxy:group 0 0 private u point",
		"unknown struct":  "// @oxy:group 0 0 storage_uniform u nope",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestPreProcessor().Process("fn a() {}\n" + src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}
