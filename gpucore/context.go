package gpucore

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// ErrContextUnavailable is matched by every ContextUnavailableError.
var ErrContextUnavailable = errors.New("gpucore: graphics context unavailable")

// ContextUnavailableError reports that no usable graphics context exists,
// either because none was provided or because the device was lost.
type ContextUnavailableError struct {
	// Reason describes why the context cannot be used. May be nil.
	Reason error
}

func (e *ContextUnavailableError) Error() string {
	if e.Reason == nil {
		return ErrContextUnavailable.Error()
	}
	return ErrContextUnavailable.Error() + ": " + e.Reason.Error()
}

// Unwrap returns the underlying reason.
func (e *ContextUnavailableError) Unwrap() error { return e.Reason }

// Is makes errors.Is(err, ErrContextUnavailable) hold for every
// ContextUnavailableError.
func (e *ContextUnavailableError) Is(target error) bool {
	return target == ErrContextUnavailable
}

// Context is the graphics context a drawable surface exposes.
//
// The method set follows the compile/link/bind/draw model: shader stages
// are compiled independently, attached to a program and linked, vertex
// data is uploaded to a buffer and bound to an attribute location resolved
// by name, and draw calls render into the surface.
//
// Status queries never fail: a compile or link problem is reported through
// ShaderCompiled/ProgramLinked and the matching info log. Methods that
// allocate return an error when the context cannot satisfy the request.
//
// Contexts are not safe for concurrent use. Callers serialize access.
type Context interface {
	// Available returns nil when the context can accept commands, or a
	// *ContextUnavailableError otherwise.
	Available() error

	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// === Shader stages ===

	// CreateShader creates an empty shader object for the given stage.
	CreateShader(stage ShaderStage) (ShaderID, error)

	// ShaderSource replaces the source text of a shader object.
	ShaderSource(id ShaderID, source string)

	// CompileShader compiles the current source of a shader object.
	CompileShader(id ShaderID)

	// ShaderCompiled reports the status of the last compilation.
	ShaderCompiled(id ShaderID) bool

	// ShaderInfoLog returns the diagnostic log of the last compilation.
	ShaderInfoLog(id ShaderID) string

	// DeleteShader releases a shader object.
	DeleteShader(id ShaderID)

	// === Programs ===

	// CreateProgram creates an empty program object.
	CreateProgram() (ProgramID, error)

	// AttachShader attaches a shader object to a program.
	AttachShader(program ProgramID, shader ShaderID)

	// DetachShader detaches a shader object from a program.
	DetachShader(program ProgramID, shader ShaderID)

	// LinkProgram links the attached stages.
	LinkProgram(program ProgramID)

	// ProgramLinked reports the status of the last link.
	ProgramLinked(program ProgramID) bool

	// ProgramInfoLog returns the diagnostic log of the last link.
	ProgramInfoLog(program ProgramID) string

	// AttribLocation returns the location of the named vertex input of a
	// linked program, or NotFound.
	AttribLocation(program ProgramID, name string) int

	// UseProgram makes a linked program current for draw calls.
	UseProgram(program ProgramID)

	// DeleteProgram releases a program object.
	DeleteProgram(program ProgramID)

	// === Vertex data ===

	// CreateBuffer creates an empty vertex buffer.
	CreateBuffer() (BufferID, error)

	// BufferData uploads vertex data, replacing previous contents.
	BufferData(buffer BufferID, data []float32) error

	// VertexAttrib binds a buffer to an attribute location; each vertex
	// consumes components float32 values.
	VertexAttrib(location int, buffer BufferID, components int)

	// DeleteBuffer releases a vertex buffer.
	DeleteBuffer(buffer BufferID)

	// === Drawing ===

	// Viewport sets the viewport rectangle in pixels.
	Viewport(x, y, width, height int)

	// ClearColor sets the color used by Clear.
	ClearColor(c gputypes.Color)

	// Clear clears the color buffer.
	Clear()

	// DrawArrays draws count vertices starting at first with the current
	// program and attribute bindings.
	DrawArrays(topology gputypes.PrimitiveTopology, first, count int) error
}
