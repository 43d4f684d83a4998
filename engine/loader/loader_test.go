package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBin holds three float positions (0,0,0) (3,0,0) (0,4,0) followed by uint16 indices 0 1 2.
func triangleBin() []byte {
	var buf bytes.Buffer
	for _, f := range []float32{0, 0, 0, 3, 0, 0, 0, 4, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}
	for _, i := range []uint16{0, 1, 2} {
		_ = binary.Write(&buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

func triangleDoc(node map[string]any, bufferURI string) map[string]any {
	node["mesh"] = 0
	buffer := map[string]any{"byteLength": 42}
	if bufferURI != "" {
		buffer["uri"] = bufferURI
	}
	return map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes":  []any{node},
		"meshes": []any{map[string]any{"primitives": []any{
			map[string]any{"attributes": map[string]int{"POSITION": 0}, "indices": 1},
		}}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentTypeFloat, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentTypeUnsignedShort, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 6},
		},
		"buffers": []any{buffer},
	}
}

func buildGLB(t *testing.T, doc map[string]any, bin []byte) []byte {
	t.Helper()

	js, err := json.Marshal(doc)
	require.NoError(t, err)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	bin = append([]byte(nil), bin...)
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := uint32(12 + 8 + len(js) + 8 + len(bin))
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: 2, Length: total})
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
	out.Write(js)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadGLBAppliesNodeTranslation(t *testing.T) {
	glb := buildGLB(t, triangleDoc(map[string]any{"translation": []float32{5, 0, 0}}, ""), triangleBin())
	path := writeFile(t, "tri.glb", glb)

	m, err := NewLoader(WithRecenter(false)).Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, "tri", m.Name)
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, m.BoundsMin)
	assert.Equal(t, mgl32.Vec3{8, 4, 0}, m.BoundsMax)
	assert.InDelta(t, 5, m.Diagonal(), 1e-6)
}

func TestLoadGLTFDataURIGeneratesNormals(t *testing.T) {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(triangleBin())
	js, err := json.Marshal(triangleDoc(map[string]any{}, uri))
	require.NoError(t, err)

	m, err := NewLoader().LoadReader("tri.gltf", bytes.NewReader(js), false)
	require.NoError(t, err)

	require.Len(t, m.Normals, 3)
	for _, n := range m.Normals {
		assert.True(t, n.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6), "normal=%v", n)
	}
}

func TestMirroringNodeKeepsFrontFaces(t *testing.T) {
	glb := buildGLB(t, triangleDoc(map[string]any{"scale": []float32{-1, 1, 1}}, ""), triangleBin())

	m, err := NewLoader().LoadReader("mirrored", bytes.NewReader(glb), false)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 2, 1}, m.Indices)
	assert.True(t, m.Normals[0].ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6), "normal=%v", m.Normals[0])
}

func TestLoadRecentersByDefault(t *testing.T) {
	glb := buildGLB(t, triangleDoc(map[string]any{}, ""), triangleBin())

	m, err := NewLoader().LoadReader("tri.glb", bytes.NewReader(glb), false)
	require.NoError(t, err)

	assert.True(t, m.Center().ApproxEqualThreshold(mgl32.Vec3{}, 1e-6))
	assert.InDelta(t, 5, m.Diagonal(), 1e-6, "recentering keeps the size")
}

func TestFlipHandedness(t *testing.T) {
	m := &Mesh{
		Positions: []mgl32.Vec3{{0, 0, 1}, {1, 0, 2}, {0, 1, 3}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
	m.updateBounds()

	m.FlipHandedness()

	assert.Equal(t, mgl32.Vec3{1, 0, -2}, m.Positions[1])
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, m.Normals[0])
	assert.Equal(t, []uint32{0, 2, 1}, m.Indices)
	assert.Equal(t, float32(-3), m.BoundsMin.Z())
	assert.Equal(t, float32(-1), m.BoundsMax.Z())
}

func TestLoadCachesPerFlipFlag(t *testing.T) {
	path := writeFile(t, "tri.glb", buildGLB(t, triangleDoc(map[string]any{}, ""), triangleBin()))
	l := NewLoader()

	a, err := l.Load(path, false)
	require.NoError(t, err)
	b, err := l.Load(path, false)
	require.NoError(t, err)
	assert.Same(t, a, b)

	flipped, err := l.Load(path, true)
	require.NoError(t, err)
	assert.NotSame(t, a, flipped)

	assert.Same(t, a, l.Get(path))
	assert.Same(t, flipped, l.Get(CacheKey(path, true)))
	assert.Len(t, l.Meshes(), 2)
}

func TestLoadBinarySTL(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
	for _, f := range []float32{0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, f)
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	path := writeFile(t, "tri.stl", buf.Bytes())

	m, err := NewLoader(WithRecenter(false)).Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, mgl32.Vec3{2, 2, 0}, m.BoundsMax)
	assert.InDelta(t, 1, m.Normals[0].Len(), 1e-5)
	assert.InDelta(t, float32(math.Sqrt(8)), m.Diagonal(), 1e-5)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "notes.xyz", []byte("just some text"))

	_, err := NewLoader().Load(path, false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.glb"), false)
	assert.Error(t, err)
}

func TestParserRejectsAccessorPastBuffer(t *testing.T) {
	doc := triangleDoc(map[string]any{}, "")
	doc["accessors"].([]any)[0].(map[string]any)["count"] = 40
	glb := buildGLB(t, doc, triangleBin())

	_, err := NewLoader().LoadReader("broken.glb", bytes.NewReader(glb), false)
	assert.ErrorIs(t, err, errAccessorOutOfRange)
}

func TestParserRejectsWrongVersion(t *testing.T) {
	doc := triangleDoc(map[string]any{}, "")
	doc["asset"] = map[string]any{"version": "1.0"}
	glb := buildGLB(t, doc, triangleBin())

	_, err := NewLoader().LoadReader("old.glb", bytes.NewReader(glb), false)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		file string
		head string
		want Format
	}{
		{name: "glb magic beats extension", file: "model.bin", head: "glTF\x02\x00\x00\x00", want: FormatGLB},
		{name: "gltf json", file: "scene.json", head: "  {\"asset\":{\"version\":\"2.0\"}}", want: FormatGLTF},
		{name: "ply header", file: "scan.dat", head: "ply\nformat ascii 1.0\n", want: FormatPLY},
		{name: "ascii stl", file: "part", head: "solid part\n facet normal 0 0 1\n", want: FormatSTL},
		{name: "obj by extension", file: "Teapot.OBJ", head: "v 0 0 0\n", want: FormatOBJ},
		{name: "binary stl by extension", file: "part.stl", head: strings.Repeat("\x00", 84), want: FormatSTL},
		{name: "empty head uses extension", file: "a.glb", head: "", want: FormatGLB},
		{name: "unknown", file: "readme.txt", head: "hello", want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, []byte(tt.head)))
		})
	}
}

func TestGenerateNormalsDegenerate(t *testing.T) {
	normals := generateNormals([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {5, 5, 5}}, []uint32{0, 1, 2})
	for _, n := range normals {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, n)
	}
}
