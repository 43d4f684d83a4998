package loader

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// ErrUnsupportedFormat is returned when neither the file content nor its extension names a mesh
// format the loader has a backend for.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Format identifies a mesh file format.
type Format string

const (
	FormatUnknown Format = ""
	FormatGLTF    Format = "gltf"
	FormatGLB     Format = "glb"
	FormatSTL     Format = "stl"
	FormatOBJ     Format = "obj"
	FormatPLY     Format = "ply"
)

// sniffLength is how much of a file is read for content detection.
const sniffLength = 4096

var (
	typeGLB      = filetype.NewType("glb", "model/gltf-binary")
	typeGLTF     = filetype.NewType("gltf", "model/gltf+json")
	typePLY      = filetype.NewType("ply", "model/ply")
	typeASCIISTL = filetype.NewType("stl", "model/stl")
)

func init() {
	filetype.AddMatcher(typeGLB, matchGLB)
	filetype.AddMatcher(typeGLTF, matchGLTF)
	filetype.AddMatcher(typePLY, matchPLY)
	filetype.AddMatcher(typeASCIISTL, matchASCIISTL)
}

func matchGLB(buf []byte) bool {
	return len(buf) >= 4 && bytes.Equal(buf[:4], []byte("glTF"))
}

func matchGLTF(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, " \t\r\n\xef\xbb\xbf")
	return len(trimmed) > 0 && trimmed[0] == '{' && bytes.Contains(buf, []byte(`"asset"`))
}

func matchPLY(buf []byte) bool {
	return len(buf) >= 4 && bytes.Equal(buf[:4], []byte("ply\n")) ||
		len(buf) >= 5 && bytes.Equal(buf[:5], []byte("ply\r\n"))
}

func matchASCIISTL(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("solid")) && bytes.Contains(buf, []byte("facet"))
}

// DetectFormat identifies a mesh format from the leading bytes of a file, falling back to the
// extension of name for formats without a signature (binary STL, OBJ).
//
// Parameters:
//   - name: file name or path, used for the extension fallback
//   - head: the first bytes of the file, may be empty
//
// Returns:
//   - Format: the detected format, FormatUnknown if nothing matched
func DetectFormat(name string, head []byte) Format {
	if len(head) > 0 {
		kind, err := filetype.Match(head)
		if err == nil && kind != filetype.Unknown {
			if f := formatForType(kind); f != FormatUnknown {
				return f
			}
		}
	}
	return formatForExtension(filepath.Ext(name))
}

// DetectFileFormat reads the head of the file at path and calls DetectFormat.
//
// Parameters:
//   - path: the mesh file
//
// Returns:
//   - Format: the detected format
//   - error: error if the file cannot be read
func DetectFileFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	return DetectFormat(path, head[:n]), nil
}

func formatForType(kind types.Type) Format {
	switch kind {
	case typeGLB:
		return FormatGLB
	case typeGLTF:
		return FormatGLTF
	case typePLY:
		return FormatPLY
	case typeASCIISTL:
		return FormatSTL
	}
	return FormatUnknown
}

func formatForExtension(ext string) Format {
	switch strings.ToLower(ext) {
	case ".gltf":
		return FormatGLTF
	case ".glb":
		return FormatGLB
	case ".stl":
		return FormatSTL
	case ".obj":
		return FormatOBJ
	case ".ply":
		return FormatPLY
	}
	return FormatUnknown
}
