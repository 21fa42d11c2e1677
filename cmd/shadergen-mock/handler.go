package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxRequestSize bounds the request body.
const maxRequestSize = 64 << 10

type request struct {
	Prompt string `json:"prompt"`
}

type response struct {
	Success    bool   `json:"success"`
	ShaderCode string `json:"shader_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// handler answers generation requests from the catalog.
type handler struct {
	log   *slog.Logger
	delay time.Duration
}

func newMux(h *handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate-shader", h.generate)
	return logRequests(h.log, mux)
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	var req request
	body := http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, response{Error: "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, response{Error: "prompt is required"})
		return
	}

	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-r.Context().Done():
			return
		}
	}

	if strings.Contains(strings.ToLower(req.Prompt), "fail") {
		h.log.Info("shadergen-mock: refusing prompt", "prompt", req.Prompt)
		writeJSON(w, http.StatusOK, response{Error: "the model could not produce a shader"})
		return
	}

	keyword, p := lookup(req.Prompt)
	code, err := shaderCode(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
		return
	}
	h.log.Info("shadergen-mock: serving shader", "prompt", req.Prompt, "keyword", keyword)
	writeJSON(w, http.StatusOK, response{Success: true, ShaderCode: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request.
func logRequests(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("shadergen-mock: request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"duration", time.Since(start))
	})
}
