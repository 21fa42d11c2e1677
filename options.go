package shadergen

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/geometry"
	"github.com/gogpu/shadergen/render"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	p := shadergen.New(client, gpu,
//	    shadergen.WithBackground(gputypes.Color{A: 1}),
//	    shadergen.WithViewListener(func(v shadergen.View) { ui.Update(v) }),
//	)
type Option func(*options)

// options holds optional configuration for Pipeline creation.
type options struct {
	logger     *slog.Logger
	background gputypes.Color
	listener   func(View)
	attribute  string
}

// defaultOptions returns the default pipeline options.
func defaultOptions() options {
	return options{
		logger:     nil, // Falls back to Logger() at creation
		background: render.DefaultBackground,
		attribute:  geometry.DefaultAttribute,
	}
}

// WithLogger sets the logger of one Pipeline, overriding SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBackground sets the color the surface is cleared to before drawing.
func WithBackground(c gputypes.Color) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithViewListener registers fn to receive a copy of the View after every
// change. fn is called synchronously from the submitting goroutine and
// must not call back into the Pipeline.
func WithViewListener(fn func(View)) Option {
	return func(o *options) {
		o.listener = fn
	}
}

// WithAttribute sets the vertex attribute the geometry is bound to.
// An empty name keeps the default "position".
func WithAttribute(name string) Option {
	return func(o *options) {
		if name != "" {
			o.attribute = name
		}
	}
}
