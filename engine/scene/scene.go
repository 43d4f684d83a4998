package scene

import (
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-bench/engine/camera"
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the registry the benchmark renders from: meshes and point lights stored under opaque
// IDs, plus the camera that views them. It stores data only; the renderer reads it through
// Snapshot so both passes of a frame see one consistent state.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Background returns the clear color used by every render pass.
	//
	// Returns:
	//   - mgl32.Vec4: RGBA in linear [0, 1]
	Background() mgl32.Vec4

	// SetBackground sets the clear color.
	//
	// Parameters:
	//   - color: RGBA in linear [0, 1]
	SetBackground(color mgl32.Vec4)

	// AddMesh registers a mesh and returns its ID.
	//
	// Parameters:
	//   - mesh: the mesh to draw, must not be nil
	//
	// Returns:
	//   - uint64: the assigned ID, never 0
	AddMesh(mesh *loader.Mesh) uint64

	// Mesh looks up a mesh by ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the mesh ID returned by AddMesh
	//
	// Returns:
	//   - *loader.Mesh: the mesh or nil
	Mesh(id uint64) *loader.Mesh

	// RemoveMesh drops a mesh from the scene. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the mesh ID
	RemoveMesh(id uint64)

	// AddPointLight registers a point light and returns its ID.
	//
	// Parameters:
	//   - l: the light, must not be nil
	//
	// Returns:
	//   - uint64: the assigned ID, never 0
	AddPointLight(l light.Light) uint64

	// PointLight looks up a light by ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the light ID returned by AddPointLight
	//
	// Returns:
	//   - light.Light: the light or nil
	PointLight(id uint64) light.Light

	// RemovePointLight drops a light from the scene. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the light ID
	RemovePointLight(id uint64)

	// PointLights returns the registered lights in insertion order.
	//
	// Returns:
	//   - []light.Light: the lights
	PointLights() []light.Light

	// MeshCount returns the number of registered meshes.
	MeshCount() int

	// LightCount returns the number of registered point lights.
	LightCount() int

	// Snapshot captures the camera matrices, light state and mesh list at this instant. Renderers
	// draw from a snapshot, never from the live scene.
	//
	// Returns:
	//   - *Snapshot: an immutable copy of the state the renderer needs
	Snapshot() *Snapshot
}

// MeshEntry pairs a registered mesh with its ID.
type MeshEntry struct {
	ID   uint64
	Mesh *loader.Mesh
}

// Snapshot is the read-only view of a Scene the renderer consumes. Lights are capped at
// light.MaxGPULights and only enabled lights are included.
type Snapshot struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	Eye            mgl32.Vec3
	Background     mgl32.Vec4
	Lights         []light.GPULight
	Meshes         []MeshEntry
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	name       string
	cam        camera.Camera
	background mgl32.Vec4

	nextID uint64
	meshes map[uint64]*loader.Mesh
	lights map[uint64]light.Light
}

var _ Scene = &scene{}

// NewScene creates an empty scene viewed through cam.
//
// Parameters:
//   - name: the scene identifier
//   - cam: the camera, must not be nil
//   - options: a variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		name:       name,
		cam:        cam,
		background: mgl32.Vec4{0.02, 0.02, 0.03, 1},
		nextID:     1,
		meshes:     make(map[uint64]*loader.Mesh),
		lights:     make(map[uint64]light.Light),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Background() mgl32.Vec4 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *scene) SetBackground(color mgl32.Vec4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = color
}

func (s *scene) AddMesh(mesh *loader.Mesh) uint64 {
	if mesh == nil {
		panic("scene: AddMesh requires a non-nil mesh")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.meshes[id] = mesh
	return id
}

func (s *scene) Mesh(id uint64) *loader.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes[id]
}

func (s *scene) RemoveMesh(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meshes, id)
}

func (s *scene) AddPointLight(l light.Light) uint64 {
	if l == nil {
		panic("scene: AddPointLight requires a non-nil light")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.lights[id] = l
	return id
}

func (s *scene) PointLight(id uint64) light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lights[id]
}

func (s *scene) RemovePointLight(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lights, id)
}

func (s *scene) PointLights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]light.Light, 0, len(s.lights))
	for _, id := range sortedIDs(s.lights) {
		out = append(out, s.lights[id])
	}
	return out
}

func (s *scene) MeshCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

func (s *scene) LightCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lights)
}

func (s *scene) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		View:           s.cam.ViewMatrix(),
		Projection:     s.cam.ProjectionMatrix(),
		ViewProjection: s.cam.ViewProjectionMatrix(),
		Eye:            s.cam.Eye(),
		Background:     s.background,
		Lights:         make([]light.GPULight, 0, min(len(s.lights), light.MaxGPULights)),
		Meshes:         make([]MeshEntry, 0, len(s.meshes)),
	}

	for _, id := range sortedIDs(s.lights) {
		if len(snap.Lights) == light.MaxGPULights {
			break
		}
		g := s.lights[id].Snapshot()
		if g.Enabled == 0 {
			continue
		}
		snap.Lights = append(snap.Lights, g)
	}
	for _, id := range sortedIDs(s.meshes) {
		snap.Meshes = append(snap.Meshes, MeshEntry{ID: id, Mesh: s.meshes[id]})
	}
	return snap
}

// allocID must be called with the write lock held.
func (s *scene) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

func sortedIDs[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
