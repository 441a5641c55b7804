// Package api is the HTTP client for the UniTrack backend.
//
// Every call goes through [Client.Call], which turns transport failures,
// rejected responses and permissive success detection into the error
// taxonomy of package core. Resource methods validate their input locally
// before any request is made.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/logging"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// TokenSource supplies the bearer token of the signed-in user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the UniTrack backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource sets where authenticated calls get their bearer token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallOptions describes one request.
type CallOptions struct {
	Method   string     // Defaults to GET
	Body     any        // JSON-encoded when non-nil
	Token    string     // Sent as a bearer token when set
	Query    url.Values // Appended to the path
	Resource Family     // Payload keys that signal success
}

// Response is a backend response that passed the success predicate.
type Response struct {
	Status  int
	Success bool
	Message string
	Raw     map[string]json.RawMessage
	Body    []byte
}

// ErrKeyNotFound is returned by Decode when the payload key is absent.
var ErrKeyNotFound = errors.New("payload key not found")

// Decode unmarshals the payload under key into v.
func (r *Response) Decode(key string, v any) error {
	raw, ok := r.Raw[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return fmt.Errorf("decode %q: %w", key, ErrKeyNotFound)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// DecodeFirst unmarshals the first of keys present in the payload into v.
func (r *Response) DecodeFirst(v any, keys ...string) error {
	for _, key := range keys {
		if raw, ok := r.Raw[key]; ok && string(bytes.TrimSpace(raw)) != "null" {
			if err := json.Unmarshal(raw, v); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			return nil
		}
	}
	return fmt.Errorf("decode %v: %w", keys, ErrKeyNotFound)
}

func (r *Response) decodeBody(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Call performs one request and classifies the result:
//
//   - transport failure: *core.NetworkError
//   - 401, or 403 that talks about the token: *core.AuthError
//   - any other non-2xx: *core.HTTPError with the server's message
//   - 2xx failing the success predicate: *core.HTTPError
func (c *Client) Call(ctx context.Context, path string, opts CallOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	reqID := logging.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api call failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, &core.NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &core.NetworkError{Method: method, URL: target, Err: err}
	}

	c.logger.Debug("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", reqID,
	)

	var raw map[string]json.RawMessage
	if len(bytes.TrimSpace(data)) > 0 {
		// Non-object bodies (arrays, HTML error pages) leave raw nil.
		_ = json.Unmarshal(data, &raw)
	}
	msg := serverMessage(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if isAuthFailure(resp.StatusCode, msg) {
			return nil, &core.AuthError{Status: resp.StatusCode, ServerMessage: msg}
		}
		return nil, &core.HTTPError{Status: resp.StatusCode, Path: path, ServerMessage: msg}
	}

	if !classify(raw, opts.Resource) {
		return nil, &core.HTTPError{Status: resp.StatusCode, Path: path, ServerMessage: msg}
	}

	return &Response{
		Status:  resp.StatusCode,
		Success: true,
		Message: msg,
		Raw:     raw,
		Body:    data,
	}, nil
}

func isAuthFailure(status int, msg string) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	if status != http.StatusForbidden {
		return false
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "token") || strings.Contains(msg, "unauthorized")
}

// authed performs a call with the stored bearer token.
func (c *Client) authed(ctx context.Context, path string, opts CallOptions) (*Response, error) {
	if c.tokens == nil {
		return nil, core.ErrNoToken
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, core.ErrNoToken
	}
	opts.Token = token
	return c.Call(ctx, path, opts)
}

// escape builds a path from segments, escaping each one.
func escape(segments ...string) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
