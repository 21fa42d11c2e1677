// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/geometry"
	"github.com/gogpu/shadergen/gpucore"
	"github.com/gogpu/shadergen/shader"
)

// ErrIncompleteState is returned by Draw when the state lacks a program or
// geometry.
var ErrIncompleteState = errors.New("render: state has no program or geometry")

// errNoContext is the reason reported when a Renderer has no context.
var errNoContext = errors.New("no graphics context")

// DefaultBackground is the clear color used when none is configured (#1e1e2e).
var DefaultBackground = gputypes.Color{R: 0x1e / 255.0, G: 0x1e / 255.0, B: 0x2e / 255.0, A: 1}

// State is everything needed to draw one frame: an Active program and the
// geometry bound to it. The pipeline replaces a State wholesale, never
// field by field.
type State struct {
	Program  *shader.Program
	Geometry *geometry.Buffer
}

// Complete reports whether both the program and the geometry are set.
func (s *State) Complete() bool {
	return s != nil && s.Program != nil && s.Geometry != nil
}

// Release frees the geometry and then the program. Nil fields are skipped,
// and releasing twice is harmless.
func (s *State) Release() {
	if s == nil {
		return
	}
	s.Geometry.Release()
	s.Program.Release()
}

// Renderer executes the draw call for a State.
//
// Renderers are stateless between Draw calls apart from their background
// color, so the same State can be drawn again after the surface is exposed
// or resized.
type Renderer struct {
	ctx        gpucore.Context
	background gputypes.Color
}

// NewRenderer creates a renderer drawing on ctx with the given clear color.
// ctx may be nil; Draw then reports the context as unavailable.
func NewRenderer(ctx gpucore.Context, background gputypes.Color) *Renderer {
	return &Renderer{ctx: ctx, background: background}
}

// Background returns the clear color.
func (r *Renderer) Background() gputypes.Color {
	return r.background
}

// Available reports whether the context can accept commands.
func (r *Renderer) Available() error {
	if r.ctx == nil {
		return &gpucore.ContextUnavailableError{Reason: errNoContext}
	}
	return r.ctx.Available()
}

// Draw renders state onto the whole surface: it sets the viewport, clears
// to the background color, makes the program current, binds the geometry
// to its attribute and issues exactly one draw call.
//
// When the context is missing or unavailable Draw returns a
// *gpucore.ContextUnavailableError without issuing any GPU call.
func (r *Renderer) Draw(state *State) error {
	if err := r.Available(); err != nil {
		return err
	}
	if !state.Complete() {
		return ErrIncompleteState
	}

	w, h := r.ctx.Size()
	r.ctx.Viewport(0, 0, w, h)
	r.ctx.ClearColor(r.background)
	r.ctx.Clear()

	g := state.Geometry
	r.ctx.UseProgram(state.Program.ID)
	r.ctx.VertexAttrib(g.Location, g.ID, g.Components)
	if err := r.ctx.DrawArrays(g.Topology, 0, g.Count()); err != nil {
		return fmt.Errorf("render: draw: %w", err)
	}
	return nil
}
