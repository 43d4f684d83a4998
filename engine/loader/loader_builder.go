package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithMesh is an option builder that pre-populates the mesh cache.
//
// Parameters:
//   - key: the cache key for the mesh, see CacheKey
//   - mesh: the mesh to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the mesh option to a loader
func WithMesh(key string, mesh *Mesh) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = mesh
	}
}

// WithRecenter is an option builder that controls whether loaded meshes are translated so their
// bounding box is centered on the origin. Enabled by default.
//
// Parameters:
//   - recenter: false to keep the file's coordinates
//
// Returns:
//   - LoaderBuilderOption: a function that applies the recenter option to a loader
func WithRecenter(recenter bool) LoaderBuilderOption {
	return func(l *loader) {
		l.recenter = recenter
	}
}
