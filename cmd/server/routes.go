package main

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/bjaus/gateway"
	"github.com/bjaus/gateway/internal/logger"
)

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type message struct {
	Message string `json:"message"`
}

// newRouter returns the route dispatcher mounted under the API prefix.
// Unmatched routes and methods fail through the pipeline's translator.
func newRouter(mode gateway.Mode) http.Handler {
	r := chi.NewRouter()
	r.NotFound(gateway.NotFound)
	r.MethodNotAllowed(gateway.MethodNotAllowed)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: mode.String()})
	})

	r.Method(http.MethodPost, "/echo", gateway.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		var in message
		if err := gateway.DecodeBody(r, &in); err != nil {
			return err
		}
		if in.Message == "" {
			return gateway.Error(http.StatusBadRequest, "message is required")
		}
		logger.FromRequest(r).Debug().Int("length", len(in.Message)).Msg("echo")
		writeJSON(w, http.StatusOK, in)
		return nil
	}))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	sonic.ConfigDefault.NewEncoder(w).Encode(v)
}
