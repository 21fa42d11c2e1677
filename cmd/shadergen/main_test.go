package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/gogpu/shadergen/internal/config"
)

const (
	okVertex   = "@vertex fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(position, 0.0, 1.0); }"
	okFragment = "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(0.0, 1.0, 0.0, 1.0); }"
)

// service answers with a valid pair unless the prompt contains "fail".
func service(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Prompt, "fail") {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "refused"})
			return
		}
		code, _ := json.Marshal(map[string]string{"vertexShader": okVertex, "fragmentShader": okFragment})
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "shader_code": string(code)})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, endpoint string) (*app, *bytes.Buffer, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Service.Endpoint = endpoint
	cfg.Render.Backend = config.BackendNoop
	cfg.Surface.Width, cfg.Surface.Height = 64, 48

	var term bytes.Buffer
	out := filepath.Join(t.TempDir(), "shader.png")
	a, err := newApp(cfg, out, termenv.NewOutput(&term, termenv.WithProfile(termenv.Ascii)))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.Close)
	return a, &term, out
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name        string
		endpoint    string
		backendName string
		verbose     bool
		wantErr     bool
	}{
		{"no overrides", "", "", false, false},
		{"endpoint", "http://127.0.0.1:9000/generate-shader", "", false, false},
		{"backend", "", "noop", true, false},
		{"bad endpoint", "ftp://example.com", "", false, true},
		{"bad backend", "", "metal", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := applyFlags(&cfg, tt.endpoint, tt.backendName, tt.verbose)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.endpoint != "" && cfg.Service.Endpoint != tt.endpoint {
				t.Errorf("Endpoint = %q", cfg.Service.Endpoint)
			}
			if tt.backendName != "" && cfg.Render.Backend != tt.backendName {
				t.Errorf("Backend = %q", cfg.Render.Backend)
			}
			if tt.verbose && cfg.Log.Level != "debug" {
				t.Errorf("Level = %q, want debug", cfg.Log.Level)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(config.Log{Level: "warn", Format: config.FormatJSON}, &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record logged at warn level")
	}
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("output is not JSON: %s", buf.String())
	}

	if _, err := newLogger(config.Log{Level: "loud"}, &buf); err == nil {
		t.Error("newLogger accepted an invalid level")
	}
}

func TestRunWritesPreview(t *testing.T) {
	a, term, out := testApp(t, service(t).URL)

	if !a.Run(context.Background(), "green field") {
		t.Fatalf("Run() failed: %s", term.String())
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() < 64 || b.Dy() <= 48 {
		t.Errorf("preview bounds = %v, want surface plus panel", b)
	}
	if !strings.Contains(term.String(), "written") {
		t.Errorf("terminal output = %q", term.String())
	}
}

func TestLoopReportsLastResult(t *testing.T) {
	srv := service(t)
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"all succeed", "red\nblue\n", true},
		{"last fails", "red\nplease fail\n", false},
		{"recovered", "please fail\nred\n", true},
		{"blank lines ignored", "red\n\n   \n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, term, _ := testApp(t, srv.URL)
			if got := a.Loop(context.Background(), strings.NewReader(tt.input)); got != tt.want {
				t.Errorf("Loop() = %v, want %v; output:\n%s", got, tt.want, term.String())
			}
			if !tt.want && !strings.Contains(term.String(), "error: generation failed: refused") {
				t.Errorf("error not printed: %q", term.String())
			}
		})
	}
}

func TestNewAppUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Backend = "metal"
	if _, err := newApp(cfg, "x.png", termenv.NewOutput(&bytes.Buffer{})); err == nil {
		t.Error("newApp accepted an unregistered backend")
	}
}
