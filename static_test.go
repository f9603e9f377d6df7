package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/bjaus/gateway"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"index.html":      {Data: []byte("<h1>Natours</h1>")},
		"css/style.css":   {Data: []byte("body{margin:0}")},
		"img/logo.svg":    {Data: []byte("<svg/>")},
		"empty/.keep":     {Data: nil},
		"docs/index.html": {Data: []byte("docs home")},
	}

	tests := map[string]struct {
		method      string
		path        string
		wantStatus  int
		wantBody    string
		wantType    string
		wantNextHit bool
	}{
		"root index":             {method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantBody: "<h1>Natours</h1>", wantType: "text/html; charset=utf-8"},
		"stylesheet":             {method: http.MethodGet, path: "/css/style.css", wantStatus: http.StatusOK, wantBody: "body{margin:0}", wantType: "text/css; charset=utf-8"},
		"nested index":           {method: http.MethodGet, path: "/docs/", wantStatus: http.StatusOK, wantBody: "docs home"},
		"head":                   {method: http.MethodHead, path: "/css/style.css", wantStatus: http.StatusOK},
		"missing file":           {method: http.MethodGet, path: "/js/app.js", wantStatus: http.StatusTeapot, wantNextHit: true},
		"directory no index":     {method: http.MethodGet, path: "/empty", wantStatus: http.StatusTeapot, wantNextHit: true},
		"post passes through":    {method: http.MethodPost, path: "/css/style.css", wantStatus: http.StatusTeapot, wantNextHit: true},
		"dot-dot passes through": {method: http.MethodGet, path: "/../css/style.css", wantStatus: http.StatusTeapot, wantNextHit: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			hit := false
			next := func(w http.ResponseWriter, _ *http.Request) error {
				hit = true
				w.WriteHeader(http.StatusTeapot)
				return nil
			}

			req := httptest.NewRequest(tc.method, "/", nil)
			req.URL.Path = tc.path
			rec := serve(gateway.Static(fsys), next, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantNextHit, hit)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantType != "" {
				assert.Equal(t, tc.wantType, rec.Header().Get("Content-Type"))
			}
		})
	}
}
