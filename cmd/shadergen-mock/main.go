// Command shadergen-mock serves canned shaders in place of the generation
// service.
//
// POST /generate-shader accepts {"prompt": "..."} and answers with a WGSL
// pair chosen by keyword: red, green, blue and gradient render; broken
// fails to compile; noattr links without a "position" input; fail returns
// success=false. Any other prompt gets the gradient.
//
//	shadergen-mock -addr :4000 -delay 500ms
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"
)

func main() {
	var (
		addr    = flag.String("addr", ":4000", "listen address")
		delay   = flag.Duration("delay", 0, "artificial latency per request")
		jsonLog = flag.Bool("json", false, "log as JSON")
	)
	flag.Parse()

	var h slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if *jsonLog {
		h = slog.NewJSONHandler(os.Stderr, nil)
	}
	logger := slog.New(h)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(&handler{log: logger, delay: *delay}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("shadergen-mock: listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("shadergen-mock: serve", "error", err)
		os.Exit(1)
	}
}
