// Package shader implements the WGSL pre-processor. It scans shader source for @oxy: directives,
// replaces them with registered struct sources or generated binding declarations, and collects the
// declarations so the renderer can build matching bind group layouts without string lookups.
package shader

import (
	"fmt"
	"strings"
)

// registryEntry pairs a WGSL struct source with the type name it declares.
type registryEntry struct {
	// Source is the WGSL struct definition injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations.
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]registryEntry
	declarations   []Annotation
}

// PreProcessor expands @oxy: directives in WGSL source.
type PreProcessor interface {
	// Process replaces every directive in source. @oxy:include lines become the registered struct
	// source, each struct included at most once. @oxy:group lines become @group/@binding variable
	// declarations and are recorded.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error naming the line of a malformed directive or unknown struct
	Process(source string) (string, error)

	// Declarations returns the @oxy:group directives of the most recent Process call, in source
	// order. Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor with the given struct registrations.
//
// Parameters:
//   - options: a variadic list of PreProcessorOption functions, typically WithStruct
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(options ...PreProcessorOption) PreProcessor {
	p := &preProcessor{
		structRegistry: make(map[AnnotationArg]registryEntry),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", a.Line, a.Args[0])
			}
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, strings.TrimRight(entry.Source, "\n"))
		case AnnotationTypeBindingGroup:
			inner, isArray := unwrapArray(a.Args[2])
			entry, ok := p.structRegistry[inner]
			if !ok {
				return "", fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", a.Line, inner)
			}
			wgslType := entry.Type
			if isArray {
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				a.Group, a.Binding, addressSpaces[a.Args[0]], a.Name(), wgslType))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
