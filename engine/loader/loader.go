package loader

import (
	"fmt"
	"io"
	"sync"

	"github.com/Carmen-Shannon/oxy-bench/internal/logger"
	"go.uber.org/zap"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string]*Mesh
	backends  map[Format]loaderBackend
	recenter  bool
}

// Loader defines the public-facing interface for loading and caching meshes.
// It hides the file format behind per-format backends, chosen by sniffing the file content,
// and caches every mesh it produces.
type Loader interface {
	// Load imports a mesh file and caches the result. A second call with the same path and flag
	// returns the cached mesh.
	//
	// Parameters:
	//   - path: the file path to the mesh
	//   - flipHandedness: mirror Z and reverse winding to convert between handedness conventions
	//
	// Returns:
	//   - *Mesh: the loaded mesh, recentered on the origin unless disabled with WithRecenter
	//   - error: ErrUnsupportedFormat for unknown formats, or the backend's decoding error
	Load(path string, flipHandedness bool) (*Mesh, error)

	// LoadReader imports a mesh from a stream and caches it by name. The format is sniffed from
	// the content, falling back to the extension of name.
	//
	// Parameters:
	//   - name: the cache key for the mesh
	//   - r: the reader providing the file contents
	//   - flipHandedness: mirror Z and reverse winding
	//
	// Returns:
	//   - *Mesh: the loaded mesh
	//   - error: error if reading or decoding fails
	LoadReader(name string, r io.Reader, flipHandedness bool) (*Mesh, error)

	// Get retrieves a cached mesh by cache key. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key, see CacheKey
	//
	// Returns:
	//   - *Mesh: the cached mesh or nil
	Get(name string) *Mesh

	// Meshes returns a copy of the mesh cache.
	//
	// Returns:
	//   - map[string]*Mesh: all cached meshes keyed by cache key
	Meshes() map[string]*Mesh
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the glTF and fauxgl backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader instance
func NewLoader(options ...LoaderBuilderOption) Loader {
	gltf := newGLTFLoaderBackend()
	fauxgl := newFauxglLoaderBackend()

	l := &loader{
		meshCache: make(map[string]*Mesh),
		backends: map[Format]loaderBackend{
			FormatGLTF: gltf,
			FormatGLB:  gltf,
			FormatSTL:  fauxgl,
			FormatOBJ:  fauxgl,
			FormatPLY:  fauxgl,
		},
		recenter: true,
	}

	for _, option := range options {
		option(l)
	}
	return l
}

// CacheKey returns the key under which Load caches a mesh.
//
// Parameters:
//   - path: the mesh path or reader name
//   - flipHandedness: the flag passed to Load
//
// Returns:
//   - string: the cache key
func CacheKey(path string, flipHandedness bool) string {
	if flipHandedness {
		return path + "#flipped"
	}
	return path
}

func (l *loader) Load(path string, flipHandedness bool) (*Mesh, error) {
	key := CacheKey(path, flipHandedness)
	if cached := l.Get(key); cached != nil {
		return cached, nil
	}

	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	backend, err := l.resolveBackend(format, path)
	if err != nil {
		return nil, err
	}

	m, err := backend.Load(path, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.finish(key, m, format, flipHandedness), nil
}

func (l *loader) LoadReader(name string, r io.Reader, flipHandedness bool) (*Mesh, error) {
	key := CacheKey(name, flipHandedness)
	if cached := l.Get(key); cached != nil {
		return cached, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}

	format := DetectFormat(name, data)
	backend, err := l.resolveBackend(format, name)
	if err != nil {
		return nil, err
	}

	m, err := backend.LoadBytes(name, data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.finish(key, m, format, flipHandedness), nil
}

func (l *loader) Get(name string) *Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Meshes() map[string]*Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Mesh, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

func (l *loader) resolveBackend(format Format, name string) (loaderBackend, error) {
	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return backend, nil
}

// finish applies the post-load transforms and stores the mesh under key.
func (l *loader) finish(key string, m *Mesh, format Format, flipHandedness bool) *Mesh {
	if flipHandedness {
		m.FlipHandedness()
	}
	if l.recenter {
		m.Recenter()
	}

	logger.Debug("mesh loaded",
		zap.String("key", key),
		zap.String("format", string(format)),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", m.TriangleCount()),
		zap.Float32("diagonal", m.Diagonal()),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.meshCache[key]; ok {
		return existing
	}
	l.meshCache[key] = m
	return m
}
