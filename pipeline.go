package shadergen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/shadergen/geometry"
	"github.com/gogpu/shadergen/gpucore"
	"github.com/gogpu/shadergen/remote"
	"github.com/gogpu/shadergen/render"
	"github.com/gogpu/shadergen/shader"
)

// Generator produces shader code for a prompt. *remote.Client implements
// it. Implementations return a *remote.Error or a
// *remote.MalformedResponseError when no usable response exists.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*remote.Response, error)
}

var _ Generator = (*remote.Client)(nil)

// Pipeline drives submissions from prompt to rendered frame.
//
// Thread Safety: Pipeline is safe for concurrent use. Network calls of
// different submissions may overlap; GPU work is serialised.
type Pipeline struct {
	gen      Generator
	builder  *shader.Builder
	binder   *geometry.Binder
	renderer *render.Renderer
	log      *slog.Logger
	listener func(View)

	// token is the latest submission token.
	token atomic.Uint64

	// gpu admits one submission at a time to the graphics context.
	gpu *semaphore.Weighted

	mu      sync.Mutex
	view    View
	current *render.State
	closed  bool
}

// New creates a Pipeline that asks gen for shaders and renders them with
// ctx. ctx may be nil; submissions then fail at the build stage with a
// *gpucore.ContextUnavailableError.
func New(gen Generator, ctx gpucore.Context, opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return &Pipeline{
		gen:      gen,
		builder:  shader.NewBuilder(ctx),
		binder:   geometry.NewBinder(ctx, geometry.WithAttribute(o.attribute)),
		renderer: render.NewRenderer(ctx, o.background),
		log:      o.logger,
		listener: o.listener,
		gpu:      semaphore.NewWeighted(1),
	}
}

// Submit runs one submission for prompt.
//
// The prompt is trimmed and NFC-normalised; an empty prompt returns
// ErrEmptyPrompt without touching the view. Otherwise the view's shader
// text and error are cleared at once, the service is called, and the
// returned pair is built, bound and drawn. On success the new program
// replaces the active one, which is released. On failure everything the
// submission created is released, the view shows the error line and a
// *StageError is returned. A response overtaken by a newer submission is
// dropped with ErrSuperseded.
func (p *Pipeline) Submit(ctx context.Context, prompt string) error {
	prompt = norm.NFC.String(strings.TrimSpace(prompt))
	if prompt == "" {
		return ErrEmptyPrompt
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	tok := p.token.Add(1)
	p.view = View{Prompt: prompt, Token: tok, Busy: true}
	v := p.view
	p.mu.Unlock()
	p.notify(v)
	p.log.Info("shadergen: submission started", "token", tok, "prompt", prompt)

	resp, err := p.gen.Generate(ctx, prompt)
	if p.stale(tok) {
		p.log.Debug("shadergen: response discarded", "token", tok, "latest", p.token.Load())
		return ErrSuperseded
	}
	if err == nil && resp == nil {
		err = &remote.Error{Message: "no response"}
	}
	if err != nil {
		return p.fail(tok, StageRemote, err)
	}

	pair, err := remote.ParsePair(resp.ShaderCode)
	if err != nil {
		return p.fail(tok, StageParse, err)
	}
	p.update(tok, func(v *View) { v.ShaderText = pair.Text() })
	p.log.Debug("shadergen: shader pair received", "token", tok,
		"vertex_bytes", len(pair.Vertex), "fragment_bytes", len(pair.Fragment))

	if err := p.gpu.Acquire(ctx, 1); err != nil {
		return p.fail(tok, StageBuild, err)
	}
	defer p.gpu.Release(1)

	if p.stale(tok) {
		return ErrSuperseded
	}
	if p.isClosed() {
		return p.abandon(tok)
	}
	return p.render(tok, pair)
}

// render builds, binds and draws pair and swaps it in. The caller holds
// the gpu semaphore.
func (p *Pipeline) render(tok uint64, pair shader.Pair) error {
	if err := p.renderer.Available(); err != nil {
		return p.fail(tok, StageBuild, err)
	}

	prog, err := p.builder.Build(pair)
	if err != nil {
		p.log.Debug("shadergen: shader build failed", "token", tok, "state", p.builder.State())
		return p.fail(tok, StageBuild, err)
	}

	geo, err := p.binder.Bind(prog)
	if err != nil {
		prog.Release()
		return p.fail(tok, StageBind, err)
	}

	state := &render.State{Program: prog, Geometry: geo}
	if err := p.renderer.Draw(state); err != nil {
		state.Release()
		return p.fail(tok, StageDraw, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		state.Release()
		return p.abandon(tok)
	}
	prev := p.current
	p.current = state
	p.mu.Unlock()

	prev.Release()
	p.update(tok, func(v *View) {
		v.Error = ""
		v.Busy = false
	})
	p.log.Info("shadergen: shader active", "token", tok, "program", prog.ID)
	return nil
}

// fail wraps err for stage, records its line in the view when tok is
// still the latest submission and returns the wrapped error.
func (p *Pipeline) fail(tok uint64, stage Stage, err error) error {
	se := &StageError{Stage: stage, Err: err}
	p.update(tok, func(v *View) {
		v.Error = se.Error()
		v.Busy = false
	})
	p.log.Warn("shadergen: submission failed", "token", tok, "stage", string(stage), "error", err)
	return se
}

// abandon settles the view of a submission cut short by Close.
func (p *Pipeline) abandon(tok uint64) error {
	p.update(tok, func(v *View) { v.Busy = false })
	p.log.Debug("shadergen: submission abandoned", "token", tok)
	return ErrClosed
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// stale reports whether a submission newer than tok has started.
func (p *Pipeline) stale(tok uint64) bool {
	return p.token.Load() != tok
}

// update applies fn to the view if tok is still the latest submission and
// notifies the listener.
func (p *Pipeline) update(tok uint64, fn func(*View)) {
	p.mu.Lock()
	if p.view.Token != tok {
		p.mu.Unlock()
		return
	}
	fn(&p.view)
	v := p.view
	p.mu.Unlock()
	p.notify(v)
}

func (p *Pipeline) notify(v View) {
	if p.listener != nil {
		p.listener(v)
	}
}

// View returns a copy of the presentation state.
func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Current returns the active render state, or nil before the first
// successful submission. The state is owned by the Pipeline.
func (p *Pipeline) Current() *render.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Redraw draws the active state again, for example after the surface was
// exposed or resized.
func (p *Pipeline) Redraw(ctx context.Context) error {
	if err := p.gpu.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.gpu.Release(1)

	p.mu.Lock()
	closed, state := p.closed, p.current
	p.mu.Unlock()
	switch {
	case closed:
		return ErrClosed
	case state == nil:
		return ErrNothingToDraw
	}
	if err := p.renderer.Draw(state); err != nil {
		return &StageError{Stage: StageDraw, Err: err}
	}
	return nil
}

// Close releases the active state. Later submissions return ErrClosed.
// Close waits for GPU work in progress and is idempotent.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	// Acquire cannot fail with a background context.
	_ = p.gpu.Acquire(context.Background(), 1)
	defer p.gpu.Release(1)

	p.mu.Lock()
	state := p.current
	p.current = nil
	p.mu.Unlock()
	state.Release()
	p.log.Debug("shadergen: pipeline closed")
}

// IsStage reports whether err is a *StageError for stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
