package scene

import (
	"github.com/Carmen-Shannon/oxy-bench/engine/light"
	"github.com/Carmen-Shannon/oxy-bench/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithBackground sets the clear color.
//
// Parameters:
//   - color: RGBA in linear [0, 1]
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(color mgl32.Vec4) SceneBuilderOption {
	return func(s *scene) {
		s.background = color
	}
}

// WithMeshes registers initial meshes. They receive IDs in argument order.
//
// Parameters:
//   - meshes: the meshes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMeshes(meshes ...*loader.Mesh) SceneBuilderOption {
	return func(s *scene) {
		for _, m := range meshes {
			if m != nil {
				s.meshes[s.allocID()] = m
			}
		}
	}
}

// WithPointLights registers initial point lights. They receive IDs in argument order.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights[s.allocID()] = l
			}
		}
	}
}
