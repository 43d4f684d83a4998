package loader

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle mesh ready for upload: one normal per position and three indices
// per triangle, counter-clockwise front faces.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	BoundsMin mgl32.Vec3
	BoundsMax mgl32.Vec3
}

// Diagonal returns the length of the bounding-box diagonal. The camera rig uses it to frame the mesh.
//
// Returns:
//   - float32: the diagonal length, 0 for an empty mesh
func (m *Mesh) Diagonal() float32 {
	return m.BoundsMax.Sub(m.BoundsMin).Len()
}

// Center returns the center of the bounding box.
//
// Returns:
//   - mgl32.Vec3: the bounding-box center
func (m *Mesh) Center() mgl32.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Mul(0.5)
}

// Recenter translates every position so the bounding box is centered on the origin, where the
// camera rig looks.
func (m *Mesh) Recenter() {
	c := m.Center()
	if c.LenSqr() == 0 {
		return
	}
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Sub(c)
	}
	m.BoundsMin = m.BoundsMin.Sub(c)
	m.BoundsMax = m.BoundsMax.Sub(c)
}

// FlipHandedness mirrors the mesh across the XY plane to convert between right- and left-handed
// coordinates. Z of positions and normals is negated and triangle winding is reversed so front
// faces stay front faces.
func (m *Mesh) FlipHandedness() {
	for i := range m.Positions {
		m.Positions[i][2] = -m.Positions[i][2]
	}
	for i := range m.Normals {
		m.Normals[i][2] = -m.Normals[i][2]
	}
	reverseWinding(m.Indices)
	m.BoundsMin[2], m.BoundsMax[2] = -m.BoundsMax[2], -m.BoundsMin[2]
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// appendGeometry merges a primitive into m, rebasing its indices.
func (m *Mesh) appendGeometry(positions, normals []mgl32.Vec3, indices []uint32) {
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, positions...)
	m.Normals = append(m.Normals, normals...)
	for _, idx := range indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

func (m *Mesh) updateBounds() {
	m.BoundsMin, m.BoundsMax = calculateBounds(m.Positions)
}

func calculateBounds(positions []mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if len(positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}

	bmin := mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	bmax := mgl32.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for _, p := range positions {
		for j := 0; j < 3; j++ {
			bmin[j] = math32.Min(bmin[j], p[j])
			bmax[j] = math32.Max(bmax[j], p[j])
		}
	}
	return bmin, bmax
}

func reverseWinding(indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
}

// generateNormals computes smooth vertex normals by accumulating area-weighted face normals onto
// every vertex of each triangle. Vertices touched by no triangle get +Y.
//
// Parameters:
//   - positions: vertex positions
//   - indices: the triangle index buffer
//
// Returns:
//   - []mgl32.Vec3: one unit normal per position
func generateNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	n := len(positions)
	accum := make([]mgl32.Vec3, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0 := positions[i0]
		face := positions[i1].Sub(p0).Cross(positions[i2].Sub(p0))
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	for i := range accum {
		if accum[i].Len() < 1e-12 {
			accum[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		accum[i] = accum[i].Normalize()
	}
	return accum
}

func sequentialIndices(n int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}
