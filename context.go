package gateway

import (
	"context"
	"net/http"
	"time"
)

type stateKey struct{}

// requestState travels with a request through the pipeline. It is owned by the
// request's goroutine and never shared between requests.
type requestState struct {
	id        string
	clientKey string
	path      string // path as received, before any mount prefix is stripped
	start     time.Time

	payload *payload

	err error // handed to the translator; read by the access log

	// parking is set while a mounted handler runs; Fail stores into parked
	// instead of writing a response.
	parking bool
	parked  error
}

func stateFrom(r *http.Request) *requestState {
	st, _ := r.Context().Value(stateKey{}).(*requestState)
	return st
}

// ensureState returns the request's state, attaching a fresh one when the
// request did not enter through a pipeline.
func ensureState(r *http.Request) (*http.Request, *requestState) {
	if st := stateFrom(r); st != nil {
		return r, st
	}
	st := &requestState{path: r.URL.Path, start: time.Now()}
	return r.WithContext(context.WithValue(r.Context(), stateKey{}, st)), st
}

// RequestID returns the request ID assigned by the pipeline, or "".
func RequestID(r *http.Request) string {
	if st := stateFrom(r); st != nil {
		return st.id
	}
	return ""
}

// ClientKey returns the client identity used for rate limiting, or "".
func ClientKey(r *http.Request) string {
	if st := stateFrom(r); st != nil {
		return st.clientKey
	}
	return ""
}

// OriginalPath returns the path the request arrived with, before a mount
// prefix was stripped.
func OriginalPath(r *http.Request) string {
	if st := stateFrom(r); st != nil && st.path != "" {
		return st.path
	}
	return r.URL.Path
}
