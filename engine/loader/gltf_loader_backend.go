package loader

import (
	"path/filepath"
	"strings"
)

// gltfLoaderBackendImpl is the loaderBackend for glTF JSON and GLB files.
type gltfLoaderBackendImpl struct{}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string, _ Format) (*Mesh, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}
	return newGLTFMeshExtractor(parser).ExtractScene(meshName(path))
}

func (b *gltfLoaderBackendImpl) LoadBytes(name string, data []byte, format Format) (*Mesh, error) {
	parser := newGLTFParser()
	if err := parser.ParseBytes(data, format == FormatGLB, ""); err != nil {
		return nil, err
	}
	return newGLTFMeshExtractor(parser).ExtractScene(name)
}

// meshName strips directory and extension from path.
func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
