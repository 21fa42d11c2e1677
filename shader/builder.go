package shader

import (
	"fmt"

	"github.com/gogpu/shadergen/gpucore"
)

// Program is a linked program together with the stage objects it was
// built from. Only Build creates Programs, and only in the Active state.
type Program struct {
	ctx gpucore.Context

	ID       gpucore.ProgramID
	Vertex   gpucore.ShaderID
	Fragment gpucore.ShaderID

	released bool
}

// Release deletes the program and then both of its shaders.
// It is safe to call more than once and on a nil Program.
func (p *Program) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.ctx.DeleteProgram(p.ID)
	p.ctx.DeleteShader(p.Vertex)
	p.ctx.DeleteShader(p.Fragment)
}

// Released reports whether Release has been called.
func (p *Program) Released() bool {
	return p == nil || p.released
}

// Builder compiles and links shader pairs on a Context.
//
// A Builder remembers the outcome of its last Build for diagnostics. It is
// not safe for concurrent use.
type Builder struct {
	ctx   gpucore.Context
	state State
	trace []State
}

// NewBuilder returns a Builder that creates objects on ctx.
func NewBuilder(ctx gpucore.Context) *Builder {
	return &Builder{ctx: ctx}
}

// State returns the state reached by the last Build.
func (b *Builder) State() State {
	return b.state
}

// Trace returns the states visited by the last Build, in order.
func (b *Builder) Trace() []State {
	return append([]State(nil), b.trace...)
}

func (b *Builder) enter(s State) {
	b.state = s
	b.trace = append(b.trace, s)
}

// Build compiles both stages of pair, links them and returns the Active
// program.
//
// On failure every object created during the call has been deleted and the
// returned error is a *CompileError, a *LinkError, ErrIncompletePair, or a
// context error wrapped with the state it occurred in.
func (b *Builder) Build(pair Pair) (*Program, error) {
	b.state = StateCreateVertex
	b.trace = b.trace[:0]

	if !pair.Complete() {
		return nil, ErrIncompletePair
	}

	vs, err := b.stage(gpucore.StageVertex, pair.Vertex)
	if err != nil {
		return nil, err
	}

	fs, err := b.stage(gpucore.StageFragment, pair.Fragment)
	if err != nil {
		b.ctx.DeleteShader(vs)
		return nil, err
	}

	b.enter(StateCreateProgram)
	prog, err := b.ctx.CreateProgram()
	if err != nil {
		b.ctx.DeleteShader(vs)
		b.ctx.DeleteShader(fs)
		return nil, fmt.Errorf("shader: %s: %w", StateCreateProgram, err)
	}

	b.enter(StateAttach)
	b.ctx.AttachShader(prog, vs)
	b.ctx.AttachShader(prog, fs)

	b.enter(StateLink)
	b.ctx.LinkProgram(prog)
	if !b.ctx.ProgramLinked(prog) {
		log := b.ctx.ProgramInfoLog(prog)
		b.ctx.DetachShader(prog, vs)
		b.ctx.DetachShader(prog, fs)
		b.ctx.DeleteShader(vs)
		b.ctx.DeleteShader(fs)
		b.ctx.DeleteProgram(prog)
		b.enter(StateLinkFailed)
		return nil, &LinkError{Log: log}
	}

	b.enter(StateActive)
	return &Program{ctx: b.ctx, ID: prog, Vertex: vs, Fragment: fs}, nil
}

// stage runs the create and compile steps of one shader stage.
func (b *Builder) stage(stage gpucore.ShaderStage, source string) (gpucore.ShaderID, error) {
	create, compile, failed := StateCreateVertex, StateCompileVertex, StateVertexCompileFailed
	if stage == gpucore.StageFragment {
		create, compile, failed = StateCreateFragment, StateCompileFragment, StateFragmentCompileFailed
	}

	b.enter(create)
	id, err := b.ctx.CreateShader(stage)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("shader: %s: %w", create, err)
	}
	b.ctx.ShaderSource(id, source)

	b.enter(compile)
	b.ctx.CompileShader(id)
	if !b.ctx.ShaderCompiled(id) {
		log := b.ctx.ShaderInfoLog(id)
		b.ctx.DeleteShader(id)
		b.enter(failed)
		return gpucore.InvalidID, &CompileError{Stage: stage, Log: log}
	}
	return id, nil
}
