package loader

import (
	"fmt"
	"os"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl32"
)

// fauxglLoaderBackendImpl is the loaderBackend for STL, OBJ and PLY files. It decodes through
// fauxgl's mesh readers and re-emits the triangle soup as an indexed Mesh.
type fauxglLoaderBackendImpl struct{}

var _ loaderBackend = &fauxglLoaderBackendImpl{}

func newFauxglLoaderBackend() loaderBackend {
	return &fauxglLoaderBackendImpl{}
}

func (b *fauxglLoaderBackendImpl) Load(path string, format Format) (*Mesh, error) {
	var (
		src *fauxgl.Mesh
		err error
	)
	switch format {
	case FormatSTL:
		src, err = fauxgl.LoadSTL(path)
	case FormatOBJ:
		src, err = fauxgl.LoadOBJ(path)
	case FormatPLY:
		src, err = fauxgl.LoadPLY(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return meshFromFauxgl(meshName(path), src)
}

// LoadBytes spills data to a temporary file because fauxgl only reads from paths.
func (b *fauxglLoaderBackendImpl) LoadBytes(name string, data []byte, format Format) (*Mesh, error) {
	tmp, err := os.CreateTemp("", "oxy-bench-*."+string(format))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	m, err := b.Load(tmp.Name(), format)
	if err != nil {
		return nil, err
	}
	m.Name = name
	return m, nil
}

func meshFromFauxgl(name string, src *fauxgl.Mesh) (*Mesh, error) {
	if src == nil || len(src.Triangles) == 0 {
		return nil, fmt.Errorf("mesh %q contains no triangles", name)
	}

	out := &Mesh{
		Name:      name,
		Positions: make([]mgl32.Vec3, 0, len(src.Triangles)*3),
		Normals:   make([]mgl32.Vec3, 0, len(src.Triangles)*3),
		Indices:   make([]uint32, 0, len(src.Triangles)*3),
	}

	for _, t := range src.Triangles {
		p1, p2, p3 := vec3(t.V1.Position), vec3(t.V2.Position), vec3(t.V3.Position)
		face := p2.Sub(p1).Cross(p3.Sub(p1))
		if face.Len() > 0 {
			face = face.Normalize()
		}

		base := uint32(len(out.Positions))
		for _, v := range []fauxgl.Vertex{t.V1, t.V2, t.V3} {
			n := vec3(v.Normal)
			if n.Len() < 1e-6 {
				n = face
			} else {
				n = n.Normalize()
			}
			out.Positions = append(out.Positions, vec3(v.Position))
			out.Normals = append(out.Normals, n)
		}
		out.Indices = append(out.Indices, base, base+1, base+2)
	}

	out.updateBounds()
	return out, nil
}

func vec3(v fauxgl.Vector) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
