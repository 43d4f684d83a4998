package loader

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// maxNodeDepth bounds the node walk so a cyclic hierarchy in a malformed file cannot recurse forever.
const maxNodeDepth = 64

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor flattens a parsed glTF document into a single world-space Mesh.
type gltfMeshExtractor interface {
	// ExtractScene walks the default scene (or the first scene, or every root node when the
	// document has no scenes), applies each node's world transform to its primitives and merges
	// them into one mesh.
	//
	// Parameters:
	//   - name: the name given to the merged mesh
	//
	// Returns:
	//   - *Mesh: the merged mesh with bounds computed
	//   - error: error if a primitive cannot be read or the document holds no triangles
	ExtractScene(name string) (*Mesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractScene(name string) (*Mesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}

	out := &Mesh{Name: name}
	identity := mgl32.Ident4()

	roots := e.rootNodes(doc)
	if len(roots) == 0 {
		// no scene graph at all: take meshes as-is
		for i := range doc.Meshes {
			if err := e.appendMesh(out, i, identity); err != nil {
				return nil, err
			}
		}
	}
	for _, root := range roots {
		if err := e.walkNode(out, root, identity, 0); err != nil {
			return nil, err
		}
	}

	if out.TriangleCount() == 0 {
		return nil, errors.New("glTF document contains no triangles")
	}
	out.updateBounds()
	return out, nil
}

// rootNodes picks the node list to walk: doc.scene, else scene 0, else every parentless node.
func (e *gltfMeshExtractorImpl) rootNodes(doc *gltfDocument) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, parented := range hasParent {
		if !parented {
			roots = append(roots, i)
		}
	}
	return roots
}

func (e *gltfMeshExtractorImpl) walkNode(out *Mesh, nodeIndex int, parent mgl32.Mat4, depth int) error {
	doc := e.parser.Document()
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", nodeIndex, maxNodeDepth)
	}

	node := &doc.Nodes[nodeIndex]
	world := parent.Mul4(nodeLocalMatrix(node))

	if node.Mesh != nil {
		if err := e.appendMesh(out, *node.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", nodeIndex, err)
		}
	}
	for _, child := range node.Children {
		if err := e.walkNode(out, child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) appendMesh(out *Mesh, meshIndex int, world mgl32.Mat4) error {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	for primIdx := range mesh.Primitives {
		if err := e.appendPrimitive(out, &mesh.Primitives[primIdx], world); err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) appendPrimitive(out *Mesh, prim *gltfPrimitive, world mgl32.Mat4) error {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return errors.New("primitive has no POSITION attribute")
	}
	raw, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	positions := make([]mgl32.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = world.Mul4x1(mgl32.Vec3(p).Vec4(1)).Vec3()
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= len(positions) {
				return fmt.Errorf("index %d exceeds vertex count %d", idx, len(positions))
			}
		}
	} else {
		indices = sequentialIndices(len(positions))
	}
	indices = indices[:len(indices)-len(indices)%3]

	// a mirroring transform flips winding
	if world.Det() < 0 {
		reverseWinding(indices)
	}

	var normals []mgl32.Vec3
	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		rawNormals, err := e.parser.ReadVec3Accessor(normalAccessor)
		if err != nil {
			return fmt.Errorf("failed to read normals: %w", err)
		}
		if len(rawNormals) != len(positions) {
			return fmt.Errorf("NORMAL count %d does not match POSITION count %d", len(rawNormals), len(positions))
		}
		normalMat := world.Mat3().Inv().Transpose()
		normals = make([]mgl32.Vec3, len(rawNormals))
		for i, n := range rawNormals {
			v := normalMat.Mul3x1(mgl32.Vec3(n))
			if v.Len() > 0 {
				v = v.Normalize()
			}
			normals[i] = v
		}
	} else {
		normals = generateNormals(positions, indices)
	}

	out.appendGeometry(positions, normals, indices)
	return nil
}

// nodeLocalMatrix returns the node's matrix, or T·R·S when it carries a decomposed transform.
func nodeLocalMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if node.Translation != nil {
		t := node.Translation
		m = m.Mul4(mgl32.Translate3D(t[0], t[1], t[2]))
	}
	if node.Rotation != nil {
		r := node.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if node.Scale != nil {
		s := node.Scale
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}
