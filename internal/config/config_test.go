package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shadergen.toml")
	data := `
[service]
endpoint = "https://shaders.example.com/generate-shader"
timeout = "5s"

[surface]
width = 640

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.Endpoint != "https://shaders.example.com/generate-shader" {
		t.Errorf("Endpoint = %q", cfg.Service.Endpoint)
	}
	if time.Duration(cfg.Service.Timeout) != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", time.Duration(cfg.Service.Timeout))
	}
	if cfg.Surface.Width != 640 || cfg.Surface.Height != 300 {
		t.Errorf("Surface = %dx%d, want 640x300", cfg.Surface.Width, cfg.Surface.Height)
	}
	if cfg.Render.Backend != BackendVulkan {
		t.Errorf("Backend = %q, want default", cfg.Render.Backend)
	}
	lvl, err := cfg.Log.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v", lvl, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"syntax", "[service\nendpoint = 1", "line"},
		{"unknown key", "[surface]\ndepth = 3", "strict mode"},
		{"bad duration", "[service]\ntimeout = \"soon\"", "soon"},
		{"bad backend", "[render]\nbackend = \"metal\"", "render.backend"},
		{"bad color", "[surface]\nbackground = \"#12\"", "surface.background"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative endpoint", func(c *Config) { c.Service.Endpoint = "/generate-shader" }},
		{"ftp endpoint", func(c *Config) { c.Service.Endpoint = "ftp://host/x" }},
		{"zero timeout", func(c *Config) { c.Service.Timeout = 0 }},
		{"zero width", func(c *Config) { c.Surface.Width = 0 }},
		{"blank attribute", func(c *Config) { c.Render.Attribute = "  " }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateBackends(t *testing.T) {
	for _, b := range []string{BackendAuto, BackendVulkan, BackendNoop} {
		cfg := Default()
		cfg.Render.Backend = b
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with backend %q = %v", b, err)
		}
	}
}

func TestBackgroundColor(t *testing.T) {
	c := Surface{Background: "#ff8000"}.BackgroundColor()
	if c.R != 1 || c.G < 0.5 || c.G > 0.51 || c.B != 0 || c.A != 1 {
		t.Errorf("BackgroundColor() = %+v", c)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `timeout = '30s'`) && !strings.Contains(string(data), `timeout = "30s"`) {
		t.Errorf("encoded config lacks timeout:\n%s", data)
	}
	var cfg Config
	if err := Decode(data, &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg != Default() {
		t.Errorf("round trip = %+v, want defaults", cfg)
	}
}
