package loader

// loaderBackend decodes one family of mesh formats into a world-space Mesh.
// Concrete implementations are gltfLoaderBackend and fauxglLoaderBackend.
type loaderBackend interface {
	// Load decodes the mesh file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//   - format: the detected format of the file
	//
	// Returns:
	//   - *Mesh: the decoded mesh with bounds computed
	//   - error: error if loading fails
	Load(path string, format Format) (*Mesh, error)

	// LoadBytes decodes an in-memory mesh.
	//
	// Parameters:
	//   - name: the name given to the mesh
	//   - data: the file contents
	//   - format: the detected format of data
	//
	// Returns:
	//   - *Mesh: the decoded mesh with bounds computed
	//   - error: error if decoding fails
	LoadBytes(name string, data []byte, format Format) (*Mesh, error)
}
