package gateway_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/gateway"
)

func TestBodyParser_Limit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		size          int
		chunked       bool
		wantStatus    int
		wantInvoked   bool
		wantBodyBytes int
	}{
		"under limit":        {size: 100, wantStatus: http.StatusOK, wantInvoked: true, wantBodyBytes: 100},
		"exactly at limit":   {size: 1024, wantStatus: http.StatusOK, wantInvoked: true, wantBodyBytes: 1024},
		"over limit":         {size: 1025, wantStatus: http.StatusRequestEntityTooLarge},
		"chunked over limit": {size: 4096, chunked: true, wantStatus: http.StatusRequestEntityTooLarge},
		"chunked under":      {size: 512, chunked: true, wantStatus: http.StatusOK, wantInvoked: true, wantBodyBytes: 512},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			invoked := false
			var got []byte
			h := func(w http.ResponseWriter, r *http.Request) error {
				invoked = true
				var err error
				got, err = io.ReadAll(r.Body)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
				return nil
			}

			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", tc.size)))
			req.Header.Set("Content-Type", "application/octet-stream")
			if tc.chunked {
				req.ContentLength = -1
			}

			rec := serve(gateway.BodyParser(1024), h, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantInvoked, invoked)
			assert.Len(t, got, tc.wantBodyBytes)
			if tc.wantStatus == http.StatusRequestEntityTooLarge {
				body := decodeError(t, rec)
				assert.Equal(t, "fail", body.Status)
				assert.Contains(t, body.Message, "request entity too large")
			}
		})
	}
}

func TestBodyParser_DefaultLimit(t *testing.T) {
	t.Parallel()

	body := `{"pad":"` + strings.Repeat("x", 11*1024) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(gateway.BodyParser(0), okHandler, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyParser_JSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		contentType string
		body        string
		wantStatus  int
		wantParsed  bool
	}{
		"object":             {contentType: "application/json", body: `{"email":"a@b.c","n":1}`, wantStatus: http.StatusOK, wantParsed: true},
		"with charset":       {contentType: "application/json; charset=utf-8", body: `[1,2,3]`, wantStatus: http.StatusOK, wantParsed: true},
		"vendor suffix":      {contentType: "application/vnd.api+json", body: `{"a":true}`, wantStatus: http.StatusOK, wantParsed: true},
		"malformed":          {contentType: "application/json", body: `{"email":`, wantStatus: http.StatusBadRequest},
		"empty":              {contentType: "application/json", body: "", wantStatus: http.StatusOK},
		"whitespace only":    {contentType: "application/json", body: "  \n", wantStatus: http.StatusOK},
		"plain text ignored": {contentType: "text/plain", body: `{"email":`, wantStatus: http.StatusOK},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			invoked := false
			var parsed bool
			h := func(w http.ResponseWriter, r *http.Request) error {
				invoked = true
				_, parsed = gateway.Body(r)
				w.WriteHeader(http.StatusOK)
				return nil
			}

			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rec := serve(gateway.BodyParser(gateway.DefaultBodyLimit), h, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantParsed, parsed)
			if tc.wantStatus == http.StatusBadRequest {
				assert.False(t, invoked)
				assert.Equal(t, "invalid request body: could not parse payload", decodeError(t, rec).Message)
			}
		})
	}
}

func TestBodyParser_KeepsRawBody(t *testing.T) {
	t.Parallel()

	raw := `{"b":1.50,"a":"x"}`
	var got string
	h := func(w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = string(b)
		assert.Equal(t, int64(len(raw)), r.ContentLength)
		return okHandler(w, r)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	serve(gateway.BodyParser(gateway.DefaultBodyLimit), h, req)

	assert.Equal(t, raw, got)
}

func TestBodyParser_Form(t *testing.T) {
	t.Parallel()

	var body any
	h := func(w http.ResponseWriter, r *http.Request) error {
		body, _ = gateway.Body(r)
		return okHandler(w, r)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=Ana&tag=a&tag=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(gateway.BodyParser(gateway.DefaultBodyLimit), h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"name": "Ana", "tag": []any{"a", "b"}}, body)
}

func TestBodyParser_MalformedForm(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(gateway.BodyParser(gateway.DefaultBodyLimit), okHandler, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeBody(t *testing.T) {
	t.Parallel()

	type login struct {
		Email string `json:"email"`
		Age   int    `json:"age"`
	}

	tests := map[string]struct {
		body       string
		want       login
		wantStatus int
	}{
		"valid":        {body: `{"email":"a@b.c","age":30}`, want: login{Email: "a@b.c", Age: 30}, wantStatus: http.StatusOK},
		"wrong type":   {body: `{"email":"a@b.c","age":"thirty"}`, wantStatus: http.StatusBadRequest},
		"missing body": {body: "", wantStatus: http.StatusBadRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got login
			h := func(w http.ResponseWriter, r *http.Request) error {
				if err := gateway.DecodeBody(r, &got); err != nil {
					return err
				}
				return json.NewEncoder(w).Encode(got)
			}

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(gateway.BodyParser(gateway.DefaultBodyLimit), h, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.want, got)
			} else {
				assert.Equal(t, "fail", decodeError(t, rec).Status)
			}
		})
	}
}
