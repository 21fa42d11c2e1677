// Package gputest provides a recording gpucore.Context for tests.
//
// The Context never touches a GPU. It keeps the object bookkeeping a real
// driver would (attachments, compile and link status, current program,
// attribute bindings), records every call in order, and lets a test script
// failures: compile logs per stage, a link log, missing attributes, failing
// allocations or an unavailable context.
//
//	ctx := gputest.New(300, 300)
//	ctx.FailCompile[gpucore.StageFragment] = "0:3: syntax error"
//	// run the code under test ...
//	if n := ctx.Count("DrawArrays"); n != 0 { ... }
package gputest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/gpucore"
)

// Call is one recorded Context method invocation.
type Call struct {
	// Op is the method name, e.g. "CompileShader".
	Op string

	// Detail is a short rendering of the arguments.
	Detail string
}

func (c Call) String() string { return c.Op + "(" + c.Detail + ")" }

// Draw captures the state observed by one DrawArrays call.
type Draw struct {
	Program    gpucore.ProgramID
	Topology   gputypes.PrimitiveTopology
	First      int
	Count      int
	Location   int
	Buffer     gpucore.BufferID
	Components int
	Vertices   []float32
	Clear      gputypes.Color
	Viewport   [4]int
}

type shaderObject struct {
	stage    gpucore.ShaderStage
	source   string
	compiled bool
	log      string
}

type programObject struct {
	attached []gpucore.ShaderID
	linked   bool
	log      string
}

type binding struct {
	buffer     gpucore.BufferID
	components int
}

// Context is a recording gpucore.Context.
type Context struct {
	mu sync.Mutex

	// Width and Height are returned by Size.
	Width, Height int

	// Unavailable, when non-nil, makes Available fail with it as reason.
	Unavailable error

	// FailCompile maps a stage to the info log its compilation produces.
	// Stages absent from the map compile successfully.
	FailCompile map[gpucore.ShaderStage]string

	// FailLink, when non-empty, is the info log of every link.
	FailLink string

	// Attributes lists the vertex inputs every linked program exposes.
	Attributes map[string]int

	// FailOp makes the named allocating method ("CreateShader",
	// "CreateProgram", "CreateBuffer", "BufferData", "DrawArrays") return
	// the given error.
	FailOp map[string]error

	calls    []Call
	draws    []Draw
	nextID   uint64
	shaders  map[gpucore.ShaderID]*shaderObject
	programs map[gpucore.ProgramID]*programObject
	buffers  map[gpucore.BufferID][]float32
	bindings map[int]binding
	current  gpucore.ProgramID
	clear    gputypes.Color
	viewport [4]int
}

var _ gpucore.Context = (*Context)(nil)

// New returns a Context for a surface of the given size whose programs
// expose a single "position" attribute at location 0.
func New(width, height int) *Context {
	return &Context{
		Width:       width,
		Height:      height,
		FailCompile: make(map[gpucore.ShaderStage]string),
		Attributes:  map[string]int{"position": 0},
		FailOp:      make(map[string]error),
		nextID:      1,
		shaders:     make(map[gpucore.ShaderID]*shaderObject),
		programs:    make(map[gpucore.ProgramID]*programObject),
		buffers:     make(map[gpucore.BufferID][]float32),
		bindings:    make(map[int]binding),
	}
}

func (c *Context) record(op, format string, args ...any) {
	c.calls = append(c.calls, Call{Op: op, Detail: fmt.Sprintf(format, args...)})
}

func (c *Context) newID() uint64 {
	id := c.nextID
	c.nextID++
	return id
}

// Calls returns a copy of the recorded calls in order.
func (c *Context) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many times op was called.
func (c *Context) Count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded method names joined by spaces.
func (c *Context) Ops() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]string, len(c.calls))
	for i, call := range c.calls {
		ops[i] = call.Op
	}
	return strings.Join(ops, " ")
}

// Draws returns the captured draw calls.
func (c *Context) Draws() []Draw {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Draw(nil), c.draws...)
}

// Reset forgets recorded calls and draws but keeps live objects.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.draws = nil
}

// Live returns the number of shader, program and buffer objects that have
// been created and not deleted.
func (c *Context) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shaders) + len(c.programs) + len(c.buffers)
}

// Available implements gpucore.Context.
func (c *Context) Available() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable != nil {
		return &gpucore.ContextUnavailableError{Reason: c.Unavailable}
	}
	return nil
}

// Size implements gpucore.Context.
func (c *Context) Size() (int, int) {
	return c.Width, c.Height
}

// CreateShader implements gpucore.Context.
func (c *Context) CreateShader(stage gpucore.ShaderStage) (gpucore.ShaderID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailOp["CreateShader"]; err != nil {
		c.record("CreateShader", "%s", stage)
		return gpucore.InvalidID, err
	}
	id := gpucore.ShaderID(c.newID())
	c.shaders[id] = &shaderObject{stage: stage}
	c.record("CreateShader", "%s=%d", stage, id)
	return id, nil
}

// ShaderSource implements gpucore.Context.
func (c *Context) ShaderSource(id gpucore.ShaderID, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ShaderSource", "%d", id)
	if s, ok := c.shaders[id]; ok {
		s.source = source
	}
}

// CompileShader implements gpucore.Context.
func (c *Context) CompileShader(id gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("CompileShader", "%d", id)
	s, ok := c.shaders[id]
	if !ok {
		return
	}
	if log, fail := c.FailCompile[s.stage]; fail {
		s.compiled = false
		s.log = log
		return
	}
	if s.source == "" {
		s.compiled = false
		s.log = "empty source"
		return
	}
	s.compiled = true
	s.log = ""
}

// ShaderCompiled implements gpucore.Context.
func (c *Context) ShaderCompiled(id gpucore.ShaderID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ShaderCompiled", "%d", id)
	s, ok := c.shaders[id]
	return ok && s.compiled
}

// ShaderInfoLog implements gpucore.Context.
func (c *Context) ShaderInfoLog(id gpucore.ShaderID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ShaderInfoLog", "%d", id)
	if s, ok := c.shaders[id]; ok {
		return s.log
	}
	return ""
}

// DeleteShader implements gpucore.Context.
func (c *Context) DeleteShader(id gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteShader", "%d", id)
	delete(c.shaders, id)
}

// CreateProgram implements gpucore.Context.
func (c *Context) CreateProgram() (gpucore.ProgramID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailOp["CreateProgram"]; err != nil {
		c.record("CreateProgram", "")
		return gpucore.InvalidID, err
	}
	id := gpucore.ProgramID(c.newID())
	c.programs[id] = &programObject{}
	c.record("CreateProgram", "%d", id)
	return id, nil
}

// AttachShader implements gpucore.Context.
func (c *Context) AttachShader(program gpucore.ProgramID, shader gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("AttachShader", "%d,%d", program, shader)
	if p, ok := c.programs[program]; ok {
		p.attached = append(p.attached, shader)
	}
}

// DetachShader implements gpucore.Context.
func (c *Context) DetachShader(program gpucore.ProgramID, shader gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DetachShader", "%d,%d", program, shader)
	p, ok := c.programs[program]
	if !ok {
		return
	}
	for i, id := range p.attached {
		if id == shader {
			p.attached = append(p.attached[:i], p.attached[i+1:]...)
			return
		}
	}
}

// LinkProgram implements gpucore.Context.
func (c *Context) LinkProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("LinkProgram", "%d", program)
	p, ok := c.programs[program]
	if !ok {
		return
	}
	p.linked = false
	if c.FailLink != "" {
		p.log = c.FailLink
		return
	}
	var vertex, fragment bool
	for _, id := range p.attached {
		s, ok := c.shaders[id]
		if !ok || !s.compiled {
			p.log = fmt.Sprintf("shader %d is not compiled", id)
			return
		}
		switch s.stage {
		case gpucore.StageVertex:
			vertex = true
		case gpucore.StageFragment:
			fragment = true
		}
	}
	if !vertex || !fragment {
		p.log = "program needs one vertex and one fragment stage"
		return
	}
	p.linked = true
	p.log = ""
}

// ProgramLinked implements gpucore.Context.
func (c *Context) ProgramLinked(program gpucore.ProgramID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ProgramLinked", "%d", program)
	p, ok := c.programs[program]
	return ok && p.linked
}

// ProgramInfoLog implements gpucore.Context.
func (c *Context) ProgramInfoLog(program gpucore.ProgramID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ProgramInfoLog", "%d", program)
	if p, ok := c.programs[program]; ok {
		return p.log
	}
	return ""
}

// AttribLocation implements gpucore.Context.
func (c *Context) AttribLocation(program gpucore.ProgramID, name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("AttribLocation", "%d,%s", program, name)
	p, ok := c.programs[program]
	if !ok || !p.linked {
		return gpucore.NotFound
	}
	if loc, ok := c.Attributes[name]; ok {
		return loc
	}
	return gpucore.NotFound
}

// UseProgram implements gpucore.Context.
func (c *Context) UseProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("UseProgram", "%d", program)
	c.current = program
}

// DeleteProgram implements gpucore.Context.
func (c *Context) DeleteProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteProgram", "%d", program)
	delete(c.programs, program)
	if c.current == program {
		c.current = gpucore.InvalidID
	}
}

// CreateBuffer implements gpucore.Context.
func (c *Context) CreateBuffer() (gpucore.BufferID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailOp["CreateBuffer"]; err != nil {
		c.record("CreateBuffer", "")
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(c.newID())
	c.buffers[id] = nil
	c.record("CreateBuffer", "%d", id)
	return id, nil
}

// BufferData implements gpucore.Context.
func (c *Context) BufferData(buffer gpucore.BufferID, data []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("BufferData", "%d,%d", buffer, len(data))
	if err := c.FailOp["BufferData"]; err != nil {
		return err
	}
	if _, ok := c.buffers[buffer]; !ok {
		return fmt.Errorf("gputest: buffer %d not found", buffer)
	}
	c.buffers[buffer] = append([]float32(nil), data...)
	return nil
}

// VertexAttrib implements gpucore.Context.
func (c *Context) VertexAttrib(location int, buffer gpucore.BufferID, components int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("VertexAttrib", "%d,%d,%d", location, buffer, components)
	c.bindings[location] = binding{buffer: buffer, components: components}
}

// DeleteBuffer implements gpucore.Context.
func (c *Context) DeleteBuffer(buffer gpucore.BufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteBuffer", "%d", buffer)
	delete(c.buffers, buffer)
	for loc, b := range c.bindings {
		if b.buffer == buffer {
			delete(c.bindings, loc)
		}
	}
}

// Viewport implements gpucore.Context.
func (c *Context) Viewport(x, y, width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Viewport", "%d,%d,%d,%d", x, y, width, height)
	c.viewport = [4]int{x, y, width, height}
}

// ClearColor implements gpucore.Context.
func (c *Context) ClearColor(col gputypes.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ClearColor", "%g,%g,%g,%g", col.R, col.G, col.B, col.A)
	c.clear = col
}

// Clear implements gpucore.Context.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Clear", "")
}

// DrawArrays implements gpucore.Context.
func (c *Context) DrawArrays(topology gputypes.PrimitiveTopology, first, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DrawArrays", "%d,%d,%d", topology, first, count)
	if err := c.FailOp["DrawArrays"]; err != nil {
		return err
	}
	p, ok := c.programs[c.current]
	if !ok || !p.linked {
		return fmt.Errorf("gputest: no linked program in use")
	}
	if len(c.bindings) == 0 {
		return fmt.Errorf("gputest: no vertex attribute bound")
	}
	d := Draw{
		Program:  c.current,
		Topology: topology,
		First:    first,
		Count:    count,
		Clear:    c.clear,
		Viewport: c.viewport,
		Location: gpucore.NotFound,
	}
	for loc, b := range c.bindings {
		data, ok := c.buffers[b.buffer]
		if !ok {
			return fmt.Errorf("gputest: attribute %d bound to deleted buffer %d", loc, b.buffer)
		}
		if b.components <= 0 || (first+count)*b.components > len(data) {
			return fmt.Errorf("gputest: draw of %d vertices overruns buffer %d", first+count, b.buffer)
		}
		d.Location = loc
		d.Buffer = b.buffer
		d.Components = b.components
		d.Vertices = append([]float32(nil), data...)
	}
	c.draws = append(c.draws, d)
	return nil
}
