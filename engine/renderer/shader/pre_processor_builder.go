package shader

// PreProcessorOption is a functional option for configuring a PreProcessor during construction.
type PreProcessorOption func(*preProcessor)

// WithStruct registers a WGSL struct source under a directive argument.
//
// Parameters:
//   - key: the name used in @oxy:include and @oxy:group directives
//   - source: the WGSL struct definition
//   - typeName: the WGSL type name the source declares
//
// Returns:
//   - PreProcessorOption: a function that registers the struct
func WithStruct(key AnnotationArg, source, typeName string) PreProcessorOption {
	return func(p *preProcessor) {
		p.structRegistry[key] = registryEntry{Source: source, Type: typeName}
	}
}
