package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gogpu/shadergen"
	"github.com/gogpu/shadergen/backend/native"
	"github.com/gogpu/shadergen/geometry"
	"github.com/gogpu/shadergen/remote"
	"github.com/gogpu/shadergen/render"
	"github.com/gogpu/shadergen/shader"
)

func newTestServer(t *testing.T, logs *bytes.Buffer) *httptest.Server {
	t.Helper()
	h := &handler{log: slog.New(slog.NewTextHandler(logs, nil))}
	srv := httptest.NewServer(newMux(h))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, response) {
	t.Helper()
	resp, err := http.Post(url+"/generate-shader", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, r
}

func TestGenerate(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, &logs)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
		wantError   string
		wantPair    pair
	}{
		{"red", `{"prompt":"A RED square"}`, http.StatusOK, true, "", pair{flatVertex, solidFragment("1.0", "0.0", "0.0")}},
		{"default gradient", `{"prompt":"ocean waves"}`, http.StatusOK, true, "", pair{uvVertex, gradientFragment}},
		{"broken wins over colour", `{"prompt":"broken red"}`, http.StatusOK, true, "", pair{flatVertex, brokenFragment}},
		{"refused", `{"prompt":"please fail"}`, http.StatusOK, false, "could not produce", pair{}},
		{"empty prompt", `{"prompt":"  "}`, http.StatusBadRequest, false, "prompt is required", pair{}},
		{"invalid json", `{"prompt":`, http.StatusBadRequest, false, "invalid request", pair{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, r := post(t, srv.URL, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if r.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", r.Success, tt.wantSuccess)
			}
			if !strings.Contains(r.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", r.Error, tt.wantError)
			}
			if !tt.wantSuccess {
				return
			}
			var got pair
			if err := json.Unmarshal([]byte(r.ShaderCode), &got); err != nil {
				t.Fatalf("shader_code: %v", err)
			}
			if got != tt.wantPair {
				t.Errorf("pair = %+v, want %+v", got, tt.wantPair)
			}
		})
	}

	if !strings.Contains(logs.String(), "path=/generate-shader") {
		t.Errorf("request not logged:\n%s", logs.String())
	}
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, &logs)

	resp, err := http.Get(srv.URL + "/generate-shader")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

// TestCatalogThroughPipeline renders every canned pair on the noop device.
func TestCatalogThroughPipeline(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, &logs)

	tests := []struct {
		prompt string
		check  func(t *testing.T, err error)
	}{
		{"red", wantNoError},
		{"green", wantNoError},
		{"blue", wantNoError},
		{"gradient", wantNoError},
		{"broken", func(t *testing.T, err error) {
			var ce *shader.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *shader.CompileError", err)
			}
			if !strings.HasPrefix(err.Error(), "Failed to render shader: fragment shader failed to compile") {
				t.Errorf("error line = %q", err.Error())
			}
		}},
		{"noattr", func(t *testing.T, err error) {
			var me *geometry.MissingAttributeError
			if !errors.As(err, &me) {
				t.Fatalf("error = %v, want *geometry.MissingAttributeError", err)
			}
		}},
		{"fail", func(t *testing.T, err error) {
			var re *remote.Error
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want *remote.Error", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			gpu, err := native.OpenNoop(render.NewPixmapTarget(64, 64))
			if err != nil {
				t.Fatalf("OpenNoop: %v", err)
			}
			defer gpu.Close()

			p := shadergen.New(remote.NewClient(srv.URL+"/generate-shader"), gpu)
			defer p.Close()
			tt.check(t, p.Submit(context.Background(), tt.prompt))
		})
	}
}

func wantNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}
