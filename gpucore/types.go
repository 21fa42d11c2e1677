package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU objects created through a Context. Each
// Context implementation maintains a mapping between IDs and the actual
// backend resources.

// ShaderID is an opaque handle to a shader stage object.
type ShaderID uint64

// ProgramID is an opaque handle to a program object.
type ProgramID uint64

// BufferID is an opaque handle to a vertex buffer.
type BufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// NotFound is returned by Context.AttribLocation when the linked program
// has no vertex input with the requested name.
const NotFound = -1

// ShaderStage identifies one of the two programmable stages.
type ShaderStage uint8

// Shader stages.
const (
	// StageVertex is the vertex stage.
	StageVertex ShaderStage = iota + 1

	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the lower-case stage name.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", uint8(s))
	}
}

// Valid reports whether s is a known stage.
func (s ShaderStage) Valid() bool {
	return s == StageVertex || s == StageFragment
}
