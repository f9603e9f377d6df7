// Package apitest provides test helpers for exercising a gateway pipeline
// over a real HTTP connection.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/gateway"
)

// Client wraps an httptest.Server for convenient pipeline testing. Its
// transport never asks for compression, so bodies arrive as written unless a
// request sets Accept-Encoding itself.
type Client struct {
	Server *httptest.Server
	http   *http.Client
}

// NewClient starts a test server for h and closes it when the test ends.
func NewClient(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tr := srv.Client().Transport.(*http.Transport).Clone() //nolint:forcetypeassert // httptest always uses *http.Transport
	tr.DisableCompression = true

	return &Client{
		Server: srv,
		http: &http.Client{
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response holds a completed response with its body read.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Error decodes the body as the pipeline's error shape.
func (r *Response) Error(t testing.TB) gateway.ErrorBody {
	t.Helper()
	return Decode[gateway.ErrorBody](t, r)
}

// Decode decodes the response body as JSON into a T.
func Decode[T any](t testing.TB, r *Response) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(r.Body, &v); err != nil {
		t.Fatalf("apitest: decode response body %q: %v", r.Body, err)
	}
	return v
}

// Get sends a GET request.
func (c *Client) Get(t testing.TB, path string) *Response {
	t.Helper()
	return c.Do(t, c.NewRequest(t, http.MethodGet, path, nil))
}

// PostJSON sends body as a JSON POST request.
func (c *Client) PostJSON(t testing.TB, path string, body any) *Response {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("apitest: marshal request body: %v", err)
	}
	req := c.NewRequest(t, http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return c.Do(t, req)
}

// NewRequest builds a request against the test server.
func (c *Client) NewRequest(t testing.TB, method, path string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, body)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}
	return req
}

// Do sends req and reads the whole response.
func (c *Client) Do(t testing.TB, req *http.Request) *Response {
	t.Helper()

	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("apitest: read response body: %v", err)
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
	}
}
