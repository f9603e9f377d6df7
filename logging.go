package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// responseRecorder wraps http.ResponseWriter to capture the status code and size.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Started reports whether the response header has been sent.
func (r *responseRecorder) Started() bool { return r.wroteHeader }

// Unwrap returns the underlying ResponseWriter (supports http.ResponseController).
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// accessLog is the outermost stage. It prepares the request state, runs the
// rest of the pipeline behind the error boundary, and writes exactly one log
// record per request once the response is final.
func accessLog(logger zerolog.Logger, mode Mode, trustProxy bool, translator *Translator) Stage {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			st := &requestState{
				id:        requestID(r),
				clientKey: clientKey(r, trustProxy),
				path:      r.URL.Path,
				start:     time.Now(),
			}

			reqLog := logger.With().Str("request_id", st.id).Logger()
			ctx := context.WithValue(r.Context(), stateKey{}, st)
			r = r.WithContext(reqLog.WithContext(ctx))

			w.Header().Set(RequestIDHeader, st.id)
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

			if err := guard(next, rec, r); err != nil {
				translator.Write(rec, r, withStack(err))
			}

			logRequest(reqLog, mode, rec, r.Method, st)
			return nil
		}
	}
}

func logRequest(l zerolog.Logger, mode Mode, rec *responseRecorder, method string, st *requestState) {
	var ev *zerolog.Event
	switch {
	case rec.status >= http.StatusInternalServerError:
		ev = l.Error()
	case rec.status >= http.StatusBadRequest:
		ev = l.Warn()
	default:
		ev = l.Info()
	}

	ev = ev.
		Str("method", method).
		Str("path", st.path).
		Int("status", rec.status).
		Dur("duration", time.Since(st.start)).
		Int("size", rec.size).
		Str("client", st.clientKey)

	if st.err == nil {
		ev.Msg("request")
		return
	}

	ev = ev.Err(st.err)
	if mode == Development {
		if stack := stackOf(st.err); stack != "" {
			ev = ev.Str("stack", stack)
		}
	}
	ev.Msg("request failed")
}
