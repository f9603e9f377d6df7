package gateway_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/gateway"
)

func TestAccessLog_OneRecordPerRequest(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mode      gateway.Mode
		handler   http.HandlerFunc
		path      string
		wantLevel string
		wantMsg   string
		wantCode  int
		wantErr   string
		wantStack bool
	}{
		"success": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				zerolog.Ctx(r.Context()).Debug().Msg("inside route")
				w.WriteHeader(http.StatusOK)
			},
			path:      "/api/tours",
			wantLevel: "info",
			wantMsg:   "request",
			wantCode:  http.StatusOK,
		},
		"client failure in development": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				gateway.Fail(w, r, gateway.Error(http.StatusBadRequest, "bad tour id"))
			},
			path:      "/api/tours/x",
			wantLevel: "warn",
			wantMsg:   "request failed",
			wantCode:  http.StatusBadRequest,
			wantErr:   "bad tour id",
			wantStack: true,
		},
		"defect in production": {
			mode: gateway.Production,
			handler: func(w http.ResponseWriter, r *http.Request) {
				gateway.Fail(w, r, errors.New("db: timeout"))
			},
			path:      "/api/tours",
			wantLevel: "error",
			wantMsg:   "request failed",
			wantCode:  http.StatusInternalServerError,
			wantErr:   "db: timeout",
		},
		"not found": {
			handler:   func(http.ResponseWriter, *http.Request) {},
			path:      "/nowhere",
			wantLevel: "warn",
			wantMsg:   "request failed",
			wantCode:  http.StatusNotFound,
			wantErr:   "Can't find /nowhere on this server!",
			wantStack: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var sink logSink
			p, err := gateway.New(
				gateway.WithMode(tc.mode),
				gateway.WithLogger(sink.logger()),
				gateway.WithAPI("/api", tc.handler),
			)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			p.ServeHTTP(rec, req)
			require.Equal(t, tc.wantCode, rec.Code)

			var access []map[string]any
			for _, r := range sink.records(t) {
				if r["message"] == "request" || r["message"] == "request failed" {
					access = append(access, r)
				}
			}
			require.Len(t, access, 1)
			entry := access[0]

			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.Equal(t, tc.wantMsg, entry["message"])
			assert.Equal(t, http.MethodGet, entry["method"])
			assert.Equal(t, tc.path, entry["path"])
			assert.EqualValues(t, tc.wantCode, entry["status"])
			assert.Equal(t, rec.Header().Get(gateway.RequestIDHeader), entry["request_id"])
			assert.Contains(t, entry, "duration")
			assert.Contains(t, entry, "client")
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, entry["error"])
			} else {
				assert.NotContains(t, entry, "error")
			}
			_, hasStack := entry["stack"]
			assert.Equal(t, tc.wantStack, hasStack)
		})
	}
}

func TestAccessLog_RouteLogsCarryRequestID(t *testing.T) {
	t.Parallel()

	var sink logSink
	route := func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Str("tour", "forest-hiker").Msg("loaded")
		w.WriteHeader(http.StatusOK)
	}
	p, err := gateway.New(gateway.WithLogger(sink.logger()), gateway.WithAPI("/api", http.HandlerFunc(route)))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tours/1", nil)
	req.Header.Set(gateway.RequestIDHeader, "trace-42")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	assert.Equal(t, "trace-42", rec.Header().Get(gateway.RequestIDHeader))
	records := sink.records(t)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "trace-42", r["request_id"])
	}
	assert.Equal(t, "loaded", records[0]["message"])
	assert.Equal(t, "request", records[1]["message"])
}

func TestAccessLog_RecordsSize(t *testing.T) {
	t.Parallel()

	var sink logSink
	body := strings.Repeat("z", 77)
	route := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}
	p, err := gateway.New(gateway.WithLogger(sink.logger()), gateway.WithAPI("/api", http.HandlerFunc(route)))
	require.NoError(t, err)

	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	records := sink.records(t)
	require.Len(t, records, 1)
	assert.EqualValues(t, 77, records[0]["size"])
}
