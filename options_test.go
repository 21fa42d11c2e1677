package shadergen

import (
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/geometry"
	"github.com/gogpu/shadergen/render"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.logger != nil {
		t.Error("default logger should be nil until New resolves it")
	}
	if o.background != render.DefaultBackground {
		t.Errorf("background = %v, want %v", o.background, render.DefaultBackground)
	}
	if o.attribute != geometry.DefaultAttribute {
		t.Errorf("attribute = %q, want %q", o.attribute, geometry.DefaultAttribute)
	}
	if o.listener != nil {
		t.Error("listener should be nil by default")
	}
}

func TestOptions(t *testing.T) {
	logger := slog.Default()
	bg := gputypes.Color{R: 0.5, G: 0.25, B: 0, A: 1}

	tests := []struct {
		name  string
		opt   Option
		check func(t *testing.T, o options)
	}{
		{"WithLogger", WithLogger(logger), func(t *testing.T, o options) {
			if o.logger != logger {
				t.Error("logger not applied")
			}
		}},
		{"WithBackground", WithBackground(bg), func(t *testing.T, o options) {
			if o.background != bg {
				t.Errorf("background = %v, want %v", o.background, bg)
			}
		}},
		{"WithViewListener", WithViewListener(func(View) {}), func(t *testing.T, o options) {
			if o.listener == nil {
				t.Error("listener not applied")
			}
		}},
		{"WithAttribute", WithAttribute("a_pos"), func(t *testing.T, o options) {
			if o.attribute != "a_pos" {
				t.Errorf("attribute = %q, want a_pos", o.attribute)
			}
		}},
		{"WithAttribute empty", WithAttribute(""), func(t *testing.T, o options) {
			if o.attribute != geometry.DefaultAttribute {
				t.Errorf("attribute = %q, want default", o.attribute)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			tt.check(t, o)
		})
	}
}

func TestNewResolvesLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	custom := slog.Default()
	SetLogger(custom)
	if p := New(nil, nil); p.log != custom {
		t.Error("New did not fall back to the package logger")
	}

	own := slog.New(nopHandler{})
	if p := New(nil, nil, WithLogger(own)); p.log != own {
		t.Error("WithLogger did not override the package logger")
	}
}
