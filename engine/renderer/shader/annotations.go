package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix marks a pre-processor directive. Directives usually sit in a WGSL line comment
// so the unprocessed source still parses.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of directive.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered struct source in place of the directive.
	// Syntax: @oxy:include <struct>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup emits a @group/@binding variable declaration and records it.
	// Syntax: @oxy:group <group> <binding> <address space> <name> <struct | array<struct>>
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// AnnotationArg is a single directive argument.
type AnnotationArg string

// Address spaces accepted by @oxy:group.
const (
	AnnotationArgStorageTypeUniform   AnnotationArg = "storage_uniform"
	AnnotationArgStorageTypeRead      AnnotationArg = "storage_read"
	AnnotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// addressSpaces maps address space arguments to WGSL var<> syntax.
var addressSpaces = map[AnnotationArg]string{
	AnnotationArgStorageTypeUniform:   "var<uniform>",
	AnnotationArgStorageTypeRead:      "var<storage, read>",
	AnnotationArgStorageTypeReadWrite: "var<storage, read_write>",
}

// Annotation is one parsed directive.
type Annotation struct {
	// Type is the directive kind.
	Type AnnotationType

	// Args holds the positional arguments. For include: [struct]. For group: [address space, name, type].
	Args []AnnotationArg

	// Line is the 1-based source line of the directive.
	Line int

	// Group and Binding are set for AnnotationTypeBindingGroup.
	Group   int
	Binding int
}

// AddressSpace returns the address space argument of a group declaration.
func (a Annotation) AddressSpace() AnnotationArg {
	if a.Type != AnnotationTypeBindingGroup {
		return ""
	}
	return a.Args[0]
}

// Name returns the variable name of a group declaration.
func (a Annotation) Name() string {
	if a.Type != AnnotationTypeBindingGroup {
		return ""
	}
	return string(a.Args[1])
}

// StructType returns the struct argument of a group declaration with any array<> wrapper removed.
func (a Annotation) StructType() AnnotationArg {
	if a.Type != AnnotationTypeBindingGroup {
		return ""
	}
	inner, _ := unwrapArray(a.Args[2])
	return inner
}

func unwrapArray(arg AnnotationArg) (AnnotationArg, bool) {
	inner, ok := strings.CutPrefix(string(arg), "array<")
	if !ok {
		return arg, false
	}
	return AnnotationArg(strings.TrimSuffix(inner, ">")), true
}

// parseAnnotation parses a single source line. It returns nil for lines without a directive.
// Struct names are checked against the registry by the pre-processor, not here.
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, name, type)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation", lineNum, args[2])
		}
		if _, ok := addressSpaces[AnnotationArg(args[3])]; !ok {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   group,
			Binding: binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
