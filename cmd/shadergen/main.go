// Command shadergen turns text prompts into rendered WGSL shaders.
//
// Each prompt is sent to the generation service; the returned vertex and
// fragment shaders are compiled, linked and drawn over a full-surface
// triangle, and a PNG preview of the surface, the prompt, the shader text
// and any error is written to the output path.
//
//	shadergen -prompt "a slowly pulsing red plasma"
//	echo "blue gradient" | shadergen -backend noop -out blue.png
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/muesli/termenv"

	"github.com/gogpu/shadergen"
	"github.com/gogpu/shadergen/backend"
	"github.com/gogpu/shadergen/backend/native"
	"github.com/gogpu/shadergen/internal/config"
	"github.com/gogpu/shadergen/preview"
	"github.com/gogpu/shadergen/remote"
	"github.com/gogpu/shadergen/render"
)

func main() {
	var (
		configPath  = flag.String("config", "shadergen.toml", "configuration file")
		prompt      = flag.String("prompt", "", "prompt to render; read prompts from stdin when empty")
		output      = flag.String("out", "shader.png", "output PNG file")
		endpoint    = flag.String("endpoint", "", "generation service URL (overrides config)")
		backendName = flag.String("backend", "", `render backend: "auto", "vulkan" or "noop" (overrides config)`)
		verbose     = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	out := termenv.NewOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = applyFlags(&cfg, *endpoint, *backendName, *verbose)
	}
	if err != nil {
		printError(out, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		printError(out, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)
	shadergen.SetLogger(logger)
	native.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := newApp(cfg, *output, out)
	if err != nil {
		printError(out, err)
		os.Exit(1)
	}
	defer app.Close()

	var ok bool
	if *prompt != "" {
		ok = app.Run(ctx, *prompt)
	} else {
		ok = app.Loop(ctx, os.Stdin)
	}
	if !ok {
		app.Close()
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags that were set.
func applyFlags(cfg *config.Config, endpoint, backendName string, verbose bool) error {
	if endpoint != "" {
		cfg.Service.Endpoint = endpoint
	}
	if backendName != "" {
		cfg.Render.Backend = backendName
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg.Validate()
}

// newLogger builds the slog handler the configuration asks for.
func newLogger(c config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func printError(out *termenv.Output, err error) {
	fmt.Fprintln(out, out.String("error: "+err.Error()).Foreground(out.Color("1")))
}

// app wires the pipeline to a graphics context and the preview writer.
type app struct {
	gpu      backend.Context
	pipeline *shadergen.Pipeline
	output   string
	term     *termenv.Output
}

func newApp(cfg config.Config, output string, term *termenv.Output) (*app, error) {
	target := render.NewPixmapTarget(cfg.Surface.Width, cfg.Surface.Height)

	var (
		gpu  backend.Context
		name = cfg.Render.Backend
		err  error
	)
	if name == config.BackendAuto {
		gpu, name, err = backend.OpenDefault(target)
	} else {
		gpu, err = backend.Open(name, target)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Render.Backend, err)
	}
	slog.Info("shadergen: backend opened", "backend", name,
		"width", cfg.Surface.Width, "height", cfg.Surface.Height)

	client := remote.NewClient(cfg.Service.Endpoint,
		remote.WithTimeout(time.Duration(cfg.Service.Timeout)),
		remote.WithUserAgent("shadergen"),
	)
	p := shadergen.New(client, gpu,
		shadergen.WithBackground(cfg.Surface.BackgroundColor()),
		shadergen.WithAttribute(cfg.Render.Attribute),
	)
	return &app{gpu: gpu, pipeline: p, output: output, term: term}, nil
}

// Run submits one prompt and writes the preview. It reports whether the
// submission succeeded.
func (a *app) Run(ctx context.Context, prompt string) bool {
	err := a.pipeline.Submit(ctx, prompt)
	if errors.Is(err, shadergen.ErrEmptyPrompt) {
		return true
	}
	if err != nil {
		printError(a.term, err)
	}

	v := a.pipeline.View()
	if werr := a.writePreview(v); werr != nil {
		printError(a.term, werr)
		return false
	}
	if err == nil {
		fmt.Fprintf(a.term, "%s written for %q\n", a.output, v.Prompt)
	}
	return err == nil
}

// Loop submits every line of r as a prompt until EOF or cancellation and
// reports whether the last submission succeeded.
func (a *app) Loop(ctx context.Context, r io.Reader) bool {
	ok := true
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}
		ok = a.Run(ctx, sc.Text())
	}
	if err := sc.Err(); err != nil {
		printError(a.term, fmt.Errorf("read prompts: %w", err))
		return false
	}
	return ok
}

func (a *app) writePreview(v shadergen.View) error {
	f, err := os.Create(a.output)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	panel := preview.Panel{Prompt: v.Prompt, ShaderText: v.ShaderText, Error: v.Error}
	if err := preview.WritePNG(f, a.gpu.Target().Image(), panel); err != nil {
		f.Close()
		return fmt.Errorf("write preview: %w", err)
	}
	return f.Close()
}

// Close releases the pipeline and the graphics context. It is safe to
// call more than once.
func (a *app) Close() {
	a.pipeline.Close()
	a.gpu.Close()
}
