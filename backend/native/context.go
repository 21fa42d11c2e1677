package native

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shadergen/gpucore"
	"github.com/gogpu/shadergen/render"
)

// module is a compiled HAL shader module shared by a shader object and the
// programs linked from it. It is destroyed when the last reference goes.
type module struct {
	mod  hal.ShaderModule
	refs int
}

type shaderObject struct {
	stage    gpucore.ShaderStage
	source   string
	compiled bool
	log      string
	module   *module
	entry    *entryPoint
}

type programObject struct {
	attached []gpucore.ShaderID
	linked   bool
	log      string

	vertex, fragment *module
	vertexEntry      *entryPoint
	fragmentEntry    *entryPoint
	attributes       map[string]int

	pipelines map[string]*pipelineObject
}

type pipelineObject struct {
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

type bufferObject struct {
	buf  hal.Buffer
	size uint64
	data []float32
}

type binding struct {
	buffer     gpucore.BufferID
	components int
}

// Context implements gpucore.Context on a HAL device.
//
// Thread Safety: Context is safe for concurrent use from multiple
// goroutines. All object operations are protected by a mutex.
type Context struct {
	mu sync.Mutex

	instance   hal.Instance
	device     hal.Device
	queue      hal.Queue
	ownsDevice bool

	target *render.PixmapTarget

	// frontEnd compiles WGSL source to validated IR; every CompileShader
	// call runs it.
	frontEnd func(source string) (*ir.Module, error)

	// lost is the unavailability reason; nil while the device is usable.
	lost error

	nextID atomic.Uint64

	shaders  map[gpucore.ShaderID]*shaderObject
	programs map[gpucore.ProgramID]*programObject
	buffers  map[gpucore.BufferID]*bufferObject
	bindings map[int]binding
	current  gpucore.ProgramID

	viewport     [4]int
	clearColor   gputypes.Color
	pendingClear bool

	// Offscreen color attachment, recreated when the target is resized.
	frameTex  hal.Texture
	frameView hal.TextureView
	frameW    uint32
	frameH    uint32
}

var _ gpucore.Context = (*Context)(nil)

func newContext(device hal.Device, queue hal.Queue, target *render.PixmapTarget) *Context {
	c := &Context{
		device:   device,
		queue:    queue,
		target:   target,
		frontEnd: compileModule,
		shaders:  make(map[gpucore.ShaderID]*shaderObject),
		programs: make(map[gpucore.ProgramID]*programObject),
		buffers:  make(map[gpucore.BufferID]*bufferObject),
		bindings: make(map[int]binding),
		viewport: [4]int{0, 0, target.Width(), target.Height()},
	}
	// Start ID generation at 1 (0 is invalid)
	c.nextID.Store(1)
	return c
}

// newID generates a unique object ID.
func (c *Context) newID() uint64 {
	return c.nextID.Add(1) - 1
}

// Target returns the render target frames are read back into.
func (c *Context) Target() *render.PixmapTarget {
	return c.target
}

// Lose marks the device as lost. Every later Available call fails with
// reason (ErrDeviceLost when nil) until the Context is closed.
func (c *Context) Lose(reason error) {
	if reason == nil {
		reason = ErrDeviceLost
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost == nil {
		c.lost = reason
		slogger().Warn("native: device lost", "reason", reason)
	}
}

// Close destroys every object the Context created and, when it owns the
// device, the device and instance. The Context is unavailable afterwards.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return
	}

	for id, p := range c.programs {
		c.destroyProgram(p)
		delete(c.programs, id)
	}
	for id, s := range c.shaders {
		c.release(s.module)
		delete(c.shaders, id)
	}
	for id, b := range c.buffers {
		if b.buf != nil {
			c.device.DestroyBuffer(b.buf)
		}
		delete(c.buffers, id)
	}
	c.destroyFrame()

	if c.ownsDevice {
		c.device.Destroy()
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
	c.lost = ErrClosed
}

// Available implements gpucore.Context.
func (c *Context) Available() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availableLocked()
}

func (c *Context) availableLocked() error {
	if c.lost != nil {
		return &gpucore.ContextUnavailableError{Reason: c.lost}
	}
	if c.device == nil {
		return &gpucore.ContextUnavailableError{Reason: ErrClosed}
	}
	return nil
}

// Size implements gpucore.Context.
func (c *Context) Size() (int, int) {
	return c.target.Width(), c.target.Height()
}

// === Shader stages ===

// CreateShader implements gpucore.Context.
func (c *Context) CreateShader(stage gpucore.ShaderStage) (gpucore.ShaderID, error) {
	if !stage.Valid() {
		return gpucore.InvalidID, fmt.Errorf("native: invalid shader stage %v", stage)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.availableLocked(); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.ShaderID(c.newID())
	c.shaders[id] = &shaderObject{stage: stage}
	return id, nil
}

// ShaderSource implements gpucore.Context.
func (c *Context) ShaderSource(id gpucore.ShaderID, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.shaders[id]; ok {
		s.source = source
	}
}

// CompileShader implements gpucore.Context.
//
// The source is parsed, lowered and validated with naga. On success a
// shader module is created from the WGSL text and the entry point for the
// shader's stage is reflected from the IR for linking.
func (c *Context) CompileShader(id gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.shaders[id]
	if !ok {
		return
	}
	c.release(s.module)
	s.module, s.entry, s.compiled = nil, nil, false

	if err := c.availableLocked(); err != nil {
		s.log = err.Error()
		return
	}
	if strings.TrimSpace(s.source) == "" {
		s.log = "empty shader source"
		return
	}
	irMod, err := c.frontEnd(s.source)
	if err != nil {
		s.log = err.Error()
		slogger().Debug("native: shader compile failed", "id", id, "stage", s.stage, "log", s.log)
		return
	}
	entry := reflectEntry(irMod, s.stage)
	mod, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("shadergen_%s_%d", s.stage, id),
		Source: hal.ShaderSource{WGSL: s.source},
	})
	if err != nil {
		s.log = fmt.Sprintf("create shader module: %v", err)
		return
	}
	s.module = &module{mod: mod, refs: 1}
	s.entry = entry
	s.compiled = true
	s.log = ""
	slogger().Debug("native: shader compiled", "id", id, "stage", s.stage)
}

// ShaderCompiled implements gpucore.Context.
func (c *Context) ShaderCompiled(id gpucore.ShaderID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.shaders[id]
	return ok && s.compiled
}

// ShaderInfoLog implements gpucore.Context.
func (c *Context) ShaderInfoLog(id gpucore.ShaderID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.shaders[id]; ok {
		return s.log
	}
	return ""
}

// DeleteShader implements gpucore.Context. A module still used by a linked
// program stays alive until that program is deleted.
func (c *Context) DeleteShader(id gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.shaders[id]
	if !ok {
		return
	}
	delete(c.shaders, id)
	c.release(s.module)
}

// release drops one reference to m, destroying it with the last one.
func (c *Context) release(m *module) {
	if m == nil {
		return
	}
	m.refs--
	if m.refs == 0 && c.device != nil {
		c.device.DestroyShaderModule(m.mod)
	}
}

// === Programs ===

// CreateProgram implements gpucore.Context.
func (c *Context) CreateProgram() (gpucore.ProgramID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.availableLocked(); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.ProgramID(c.newID())
	c.programs[id] = &programObject{}
	return id, nil
}

// AttachShader implements gpucore.Context.
func (c *Context) AttachShader(program gpucore.ProgramID, shader gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[program]
	if !ok {
		return
	}
	if _, ok := c.shaders[shader]; !ok {
		return
	}
	for _, id := range p.attached {
		if id == shader {
			return
		}
	}
	p.attached = append(p.attached, shader)
}

// DetachShader implements gpucore.Context.
func (c *Context) DetachShader(program gpucore.ProgramID, shader gpucore.ShaderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
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
//
// Linking requires exactly one compiled vertex and one compiled fragment
// shader, each declaring an entry point for its stage, and every fragment
// input location must be written by the vertex entry point with the same
// type. The vertex inputs become the program's attributes.
func (c *Context) LinkProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[program]
	if !ok {
		return
	}
	c.unlink(p)

	var vs, fs *shaderObject
	for _, id := range p.attached {
		s, ok := c.shaders[id]
		if !ok {
			continue
		}
		if !s.compiled {
			p.log = fmt.Sprintf("attached %s shader %d is not compiled", s.stage, id)
			return
		}
		switch s.stage {
		case gpucore.StageVertex:
			if vs != nil {
				p.log = "more than one vertex shader attached"
				return
			}
			vs = s
		case gpucore.StageFragment:
			if fs != nil {
				p.log = "more than one fragment shader attached"
				return
			}
			fs = s
		}
	}
	switch {
	case vs == nil:
		p.log = "no vertex shader attached"
		return
	case fs == nil:
		p.log = "no fragment shader attached"
		return
	case vs.entry == nil:
		p.log = "vertex shader has no @vertex entry point"
		return
	case fs.entry == nil:
		p.log = "fragment shader has no @fragment entry point"
		return
	}
	if msg := matchInterface(vs.entry, fs.entry); msg != "" {
		p.log = msg
		return
	}

	p.vertex, p.fragment = vs.module, fs.module
	p.vertex.refs++
	p.fragment.refs++
	p.vertexEntry, p.fragmentEntry = vs.entry, fs.entry
	p.attributes = make(map[string]int, len(vs.entry.Inputs))
	for _, in := range vs.entry.Inputs {
		p.attributes[in.Name] = in.Location
	}
	p.pipelines = make(map[string]*pipelineObject)
	p.linked = true
	p.log = ""
	slogger().Debug("native: program linked", "id", program,
		"vertex", vs.entry.Name, "fragment", fs.entry.Name, "attributes", len(p.attributes))
}

// matchInterface checks that every fragment input is a vertex output.
func matchInterface(vs, fs *entryPoint) string {
	for _, in := range fs.Inputs {
		out, ok := vs.output(in.Location)
		if !ok {
			return fmt.Sprintf("fragment input @location(%d) %s is not written by vertex entry point %s",
				in.Location, in.Name, vs.Name)
		}
		if in.Type != "" && out.Type != "" && in.Type != out.Type {
			return fmt.Sprintf("fragment input @location(%d) %s has type %s, vertex output has %s",
				in.Location, in.Name, in.Type, out.Type)
		}
	}
	return ""
}

// unlink drops link results and their GPU objects.
func (c *Context) unlink(p *programObject) {
	for _, po := range p.pipelines {
		c.destroyPipeline(po)
	}
	c.release(p.vertex)
	c.release(p.fragment)
	p.vertex, p.fragment = nil, nil
	p.vertexEntry, p.fragmentEntry = nil, nil
	p.attributes = nil
	p.pipelines = nil
	p.linked = false
}

func (c *Context) destroyProgram(p *programObject) {
	c.unlink(p)
	p.attached = nil
}

func (c *Context) destroyPipeline(po *pipelineObject) {
	if c.device == nil {
		return
	}
	if po.pipeline != nil {
		c.device.DestroyRenderPipeline(po.pipeline)
	}
	if po.layout != nil {
		c.device.DestroyPipelineLayout(po.layout)
	}
}

// ProgramLinked implements gpucore.Context.
func (c *Context) ProgramLinked(program gpucore.ProgramID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[program]
	return ok && p.linked
}

// ProgramInfoLog implements gpucore.Context.
func (c *Context) ProgramInfoLog(program gpucore.ProgramID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[program]; ok {
		return p.log
	}
	return ""
}

// AttribLocation implements gpucore.Context.
func (c *Context) AttribLocation(program gpucore.ProgramID, name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[program]
	if !ok || !p.linked {
		return gpucore.NotFound
	}
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	return gpucore.NotFound
}

// UseProgram implements gpucore.Context.
func (c *Context) UseProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = program
}

// DeleteProgram implements gpucore.Context.
func (c *Context) DeleteProgram(program gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[program]
	if !ok {
		return
	}
	delete(c.programs, program)
	c.destroyProgram(p)
	if c.current == program {
		c.current = gpucore.InvalidID
	}
}

// === Vertex data ===

// CreateBuffer implements gpucore.Context. The GPU buffer is allocated by
// the first BufferData call.
func (c *Context) CreateBuffer() (gpucore.BufferID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.availableLocked(); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(c.newID())
	c.buffers[id] = &bufferObject{}
	return id, nil
}

// BufferData implements gpucore.Context.
func (c *Context) BufferData(buffer gpucore.BufferID, data []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.availableLocked(); err != nil {
		return err
	}
	b, ok := c.buffers[buffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownObject, buffer)
	}
	if len(data) == 0 {
		return fmt.Errorf("native: buffer %d: empty vertex data", buffer)
	}

	raw := float32Bytes(data)
	size := uint64(len(raw))
	if b.buf == nil || b.size != size {
		if b.buf != nil {
			c.device.DestroyBuffer(b.buf)
			b.buf = nil
		}
		buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("shadergen_vertices_%d", buffer),
			Size:  size,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("native: create vertex buffer: %w", err)
		}
		b.buf, b.size = buf, size
	}
	if err := c.queue.WriteBuffer(b.buf, 0, raw); err != nil {
		return fmt.Errorf("native: upload vertex data: %w", err)
	}
	b.data = append(b.data[:0], data...)
	return nil
}

// float32Bytes encodes vertex data little-endian, as the GPU reads it.
func float32Bytes(data []float32) []byte {
	raw := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return raw
}

// VertexAttrib implements gpucore.Context.
func (c *Context) VertexAttrib(location int, buffer gpucore.BufferID, components int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if location < 0 {
		return
	}
	c.bindings[location] = binding{buffer: buffer, components: components}
}

// DeleteBuffer implements gpucore.Context.
func (c *Context) DeleteBuffer(buffer gpucore.BufferID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buffers[buffer]
	if !ok {
		return
	}
	delete(c.buffers, buffer)
	if b.buf != nil && c.device != nil {
		c.device.DestroyBuffer(b.buf)
	}
	for loc, bd := range c.bindings {
		if bd.buffer == buffer {
			delete(c.bindings, loc)
		}
	}
}

// === Drawing ===

// Viewport implements gpucore.Context. The rectangle is applied to every
// following render pass.
func (c *Context) Viewport(x, y, width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = [4]int{x, y, width, height}
}

// ClearColor implements gpucore.Context.
func (c *Context) ClearColor(col gputypes.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearColor = col
}

// Clear implements gpucore.Context. The clear is performed as the load
// operation of the next draw's render pass.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingClear = true
}

// vertexSlot is one vertex buffer bound for a draw.
type vertexSlot struct {
	location   int
	components int
	buf        hal.Buffer
	vertices   int
}

// DrawArrays implements gpucore.Context.
func (c *Context) DrawArrays(topology gputypes.PrimitiveTopology, first, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.availableLocked(); err != nil {
		return err
	}
	if first < 0 || count < 0 {
		return fmt.Errorf("native: invalid draw range first=%d count=%d", first, count)
	}
	p, ok := c.programs[c.current]
	if !ok || !p.linked {
		return ErrNoProgram
	}

	slots, err := c.vertexSlots(p, first+count)
	if err != nil {
		return err
	}
	po, err := c.pipelineFor(p, slots, topology)
	if err != nil {
		return err
	}
	if err := c.ensureFrame(); err != nil {
		return err
	}
	if err := c.encodeSubmitReadback(po, slots, first, count); err != nil {
		return err
	}
	c.pendingClear = false
	return nil
}

// vertexSlots resolves a buffer for every vertex input of p, ordered by
// location.
func (c *Context) vertexSlots(p *programObject, vertices int) ([]vertexSlot, error) {
	inputs := append([]ioVar(nil), p.vertexEntry.Inputs...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })

	slots := make([]vertexSlot, 0, len(inputs))
	for _, in := range inputs {
		bd, ok := c.bindings[in.Location]
		if !ok {
			return nil, fmt.Errorf("%w: @location(%d) %s", ErrUnboundInput, in.Location, in.Name)
		}
		b, ok := c.buffers[bd.buffer]
		if !ok || b.buf == nil {
			return nil, fmt.Errorf("%w: buffer %d at @location(%d)", ErrUnknownObject, bd.buffer, in.Location)
		}
		if bd.components < 1 || bd.components > 4 {
			return nil, fmt.Errorf("native: @location(%d): %d components per vertex", in.Location, bd.components)
		}
		n := len(b.data) / bd.components
		if vertices > n {
			return nil, fmt.Errorf("native: draw of %d vertices overruns buffer %d (%d vertices)", vertices, bd.buffer, n)
		}
		slots = append(slots, vertexSlot{location: in.Location, components: bd.components, buf: b.buf, vertices: n})
	}
	return slots, nil
}

func vertexFormat(components int) gputypes.VertexFormat {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32
	case 3:
		return gputypes.VertexFormatFloat32x3
	case 4:
		return gputypes.VertexFormatFloat32x4
	default:
		return gputypes.VertexFormatFloat32x2
	}
}

// pipelineFor returns the cached render pipeline for the program's vertex
// layout and topology, creating it on first use.
func (c *Context) pipelineFor(p *programObject, slots []vertexSlot, topology gputypes.PrimitiveTopology) (*pipelineObject, error) {
	var key strings.Builder
	fmt.Fprintf(&key, "t%d", topology)
	for _, s := range slots {
		fmt.Fprintf(&key, ":%d/%d", s.location, s.components)
	}
	if po, ok := p.pipelines[key.String()]; ok {
		return po, nil
	}

	layouts := make([]gputypes.VertexBufferLayout, len(slots))
	for i, s := range slots {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(s.components * 4),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: vertexFormat(s.components), Offset: 0, ShaderLocation: uint32(s.location)},
			},
		}
	}

	layout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "shadergen_pipe_layout",
	})
	if err != nil {
		return nil, fmt.Errorf("native: create pipeline layout: %w", err)
	}
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "shadergen_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     p.vertex.mod,
			EntryPoint: p.vertexEntry.Name,
			Buffers:    layouts,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment.mod,
			EntryPoint: p.fragmentEntry.Name,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		c.device.DestroyPipelineLayout(layout)
		return nil, fmt.Errorf("native: create render pipeline: %w", err)
	}

	po := &pipelineObject{layout: layout, pipeline: pipeline}
	p.pipelines[key.String()] = po
	slogger().Debug("native: render pipeline created", "layout", key.String())
	return po, nil
}
