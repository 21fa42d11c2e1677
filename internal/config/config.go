// Package config loads the shadergen command configuration from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

// Render backends.
const (
	BackendAuto   = "auto"
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the complete command configuration.
type Config struct {
	Service Service `toml:"service"`
	Surface Surface `toml:"surface"`
	Render  Render  `toml:"render"`
	Log     Log     `toml:"log"`
}

// Service locates the generation service.
type Service struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

// Surface describes the drawable surface.
type Surface struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// Render selects the graphics backend.
type Render struct {
	Backend   string `toml:"backend"`
	Attribute string `toml:"attribute"`
}

// Log configures the command's slog handler.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Service: Service{
			Endpoint: "http://localhost:4000/generate-shader",
			Timeout:  Duration(30 * time.Second),
		},
		Surface: Surface{Width: 300, Height: 300, Background: "#1e1e2e"},
		Render:  Render{Backend: BackendVulkan, Attribute: "position"},
		Log:     Log{Level: "info", Format: FormatText},
	}
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults; unknown keys are an error. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML data into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}

// Encode returns cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Service.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.endpoint %q is not an http(s) URL", c.Service.Endpoint)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout must be positive, got %s", time.Duration(c.Service.Timeout))
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface size %dx%d must be positive", c.Surface.Width, c.Surface.Height)
	}
	if _, err := gg.ParseHex(c.Surface.Background); err != nil {
		return fmt.Errorf("surface.background: %w", err)
	}
	switch c.Render.Backend {
	case BackendAuto, BackendVulkan, BackendNoop:
	default:
		return fmt.Errorf("render.backend %q: want %q, %q or %q", c.Render.Backend, BackendAuto, BackendVulkan, BackendNoop)
	}
	if strings.TrimSpace(c.Render.Attribute) == "" {
		return errors.New("render.attribute must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("log.format %q: want %q or %q", c.Log.Format, FormatText, FormatJSON)
	}
	return nil
}

// BackgroundColor returns the surface background as a clear color.
func (s Surface) BackgroundColor() gputypes.Color {
	c := gg.Hex(s.Background)
	return gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// SlogLevel parses the configured level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}
