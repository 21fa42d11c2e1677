// Package geometry uploads the vertex data a generated program draws with.
//
// Every program is drawn with the same canonical geometry: one triangle
// whose corners lie at (-1,-1), (3,-1) and (-1,3) in clip space. Its
// interior covers the whole [-1,1] square, so a fragment shader runs for
// every pixel of the surface with a single draw call.
package geometry

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/gpucore"
	"github.com/gogpu/shadergen/shader"
)

// DefaultAttribute is the vertex input the canonical geometry is bound to.
const DefaultAttribute = "position"

// Components is the number of float32 values per vertex.
const Components = 2

// Topology is the primitive topology of the canonical geometry.
const Topology = gputypes.PrimitiveTopologyTriangleList

// Triangle returns a copy of the canonical vertex data.
func Triangle() []float32 {
	return []float32{
		-1, -1,
		3, -1,
		-1, 3,
	}
}

// MissingAttributeError reports that the linked program has no vertex
// input with the expected name.
type MissingAttributeError struct {
	Name string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("program has no vertex attribute %q", e.Name)
}

// Buffer is uploaded vertex data bound to an attribute location.
type Buffer struct {
	ctx gpucore.Context

	ID         gpucore.BufferID
	Vertices   []float32
	Components int
	Location   int
	Topology   gputypes.PrimitiveTopology

	released bool
}

// Count returns the number of vertices in the buffer.
func (b *Buffer) Count() int {
	if b.Components == 0 {
		return 0
	}
	return len(b.Vertices) / b.Components
}

// Release deletes the buffer. It is safe to call more than once and on a
// nil Buffer.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.ctx.DeleteBuffer(b.ID)
}

// Option configures a Binder.
type Option func(*Binder)

// WithAttribute sets the name of the vertex input to bind. Empty names are
// ignored.
func WithAttribute(name string) Option {
	return func(b *Binder) {
		if name != "" {
			b.attribute = name
		}
	}
}

// Binder uploads the canonical geometry for linked programs.
type Binder struct {
	ctx       gpucore.Context
	attribute string
}

// NewBinder returns a Binder that creates buffers on ctx.
func NewBinder(ctx gpucore.Context, opts ...Option) *Binder {
	b := &Binder{ctx: ctx, attribute: DefaultAttribute}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attribute returns the vertex input name the Binder resolves.
func (b *Binder) Attribute() string {
	return b.attribute
}

// Bind uploads the canonical geometry and resolves the attribute location
// on program. When the program lacks the attribute the buffer is deleted
// and a *MissingAttributeError is returned.
func (b *Binder) Bind(program *shader.Program) (*Buffer, error) {
	if program == nil {
		return nil, fmt.Errorf("geometry: bind: nil program")
	}

	id, err := b.ctx.CreateBuffer()
	if err != nil {
		return nil, fmt.Errorf("geometry: create buffer: %w", err)
	}
	vertices := Triangle()
	if err := b.ctx.BufferData(id, vertices); err != nil {
		b.ctx.DeleteBuffer(id)
		return nil, fmt.Errorf("geometry: upload vertices: %w", err)
	}

	loc := b.ctx.AttribLocation(program.ID, b.attribute)
	if loc == gpucore.NotFound {
		b.ctx.DeleteBuffer(id)
		return nil, &MissingAttributeError{Name: b.attribute}
	}

	return &Buffer{
		ctx:        b.ctx,
		ID:         id,
		Vertices:   vertices,
		Components: Components,
		Location:   loc,
		Topology:   Topology,
	}, nil
}
