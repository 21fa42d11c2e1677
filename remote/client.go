package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultEndpoint is the address of a locally running generation service.
const DefaultEndpoint = "http://localhost:4000/generate-shader"

// DefaultTimeout bounds a single Generate call.
const DefaultTimeout = 30 * time.Second

// maxBodySize is the largest response body Generate accepts.
const maxBodySize = 1 << 20

// Response is the decoded service envelope.
type Response struct {
	Success    bool   `json:"success"`
	ShaderCode string `json:"shader_code"`
	Error      string `json:"error,omitempty"`
}

type request struct {
	Prompt string `json:"prompt"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client calls the generation service. It is safe for concurrent use.
type Client struct {
	endpoint  string
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// NewClient returns a Client for the service at endpoint. An empty
// endpoint selects DefaultEndpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:  endpoint,
		http:      http.DefaultClient,
		timeout:   DefaultTimeout,
		userAgent: "shadergen",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate asks the service for shader code matching prompt.
//
// It returns a *Error when no shader code was produced and a
// *MalformedResponseError when the envelope cannot be decoded. A returned
// Response always has Success set and a non-empty ShaderCode.
func (c *Client) Generate(ctx context.Context, prompt string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(request{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize+1))
	if err != nil {
		return nil, &Error{StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{StatusCode: res.StatusCode, Message: serviceMessage(data)}
	}
	if len(data) > maxBodySize {
		return nil, &MalformedResponseError{Reason: "response body exceeds 1 MiB"}
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &MalformedResponseError{Reason: "response is not a JSON envelope", Err: err}
	}
	if !resp.Success {
		return nil, &Error{Message: resp.Error}
	}
	if strings.TrimSpace(resp.ShaderCode) == "" {
		return nil, &Error{Message: "no shader code returned"}
	}
	return &resp, nil
}

// serviceMessage extracts a short explanation from an error body.
func serviceMessage(data []byte) string {
	var resp Response
	if json.Unmarshal(data, &resp) == nil && resp.Error != "" {
		return resp.Error
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

// maxMessageLen bounds, in bytes, the body text quoted in an Error.
const maxMessageLen = 200
