package gateway

import (
	"errors"
	"net/http"
	"strconv"
)

// DefectMessage replaces the message of unexpected errors in production.
const DefectMessage = "Something went very wrong!"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorResponse is the translated form of an error.
type ErrorResponse struct {
	StatusCode int
	Body       ErrorBody
}

// Translate converts err into the response the client sees.
//
// In Development the full message and a stack are always included. In
// Production an operational error keeps its status and its own message, even
// when wrapped; any other error becomes a generic 500.
func Translate(err error, mode Mode) ErrorResponse {
	if mode == Production && !IsOperational(err) {
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       ErrorBody{Status: "error", Message: DefectMessage},
		}
	}

	code := ErrorStatus(err)
	if code < 100 || code > 599 {
		code = http.StatusInternalServerError
	}

	body := ErrorBody{Status: statusClass(code), Message: err.Error()}
	if mode == Production {
		var oe *OperationalError
		if errors.As(err, &oe) {
			body.Message = oe.message
		}
		return ErrorResponse{StatusCode: code, Body: body}
	}

	if body.Stack = stackOf(err); body.Stack == "" {
		body.Stack = callers(3)
	}
	return ErrorResponse{StatusCode: code, Body: body}
}

// Encode returns the JSON encoding of the body. Equal responses always encode
// to identical bytes.
func (er ErrorResponse) Encode() ([]byte, error) {
	return codec.Marshal(er.Body)
}

// Translator is the terminal stage every failure converges on.
type Translator struct {
	mode Mode
}

// NewTranslator returns a Translator for the given mode.
func NewTranslator(mode Mode) *Translator {
	return &Translator{mode: mode}
}

// Write translates err and writes it to w. The original error is recorded on
// the request so the access log can report it. If the response has already
// been started, nothing is written.
func (t *Translator) Write(w http.ResponseWriter, r *http.Request, err error) {
	if st := stateFrom(r); st != nil {
		st.err = err
	}
	if started(w) {
		return
	}

	resp := Translate(err, t.mode)
	b, encErr := resp.Encode()
	if encErr != nil {
		resp = ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       ErrorBody{Status: "error", Message: DefectMessage},
		}
		b = []byte(`{"status":"error","message":"` + DefectMessage + `"}`)
	}

	h := w.Header()
	h.Del("Content-Encoding")
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(b)))
	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		h.Set("Connection", "close")
	}
	w.WriteHeader(resp.StatusCode)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	w.Write(b)
}

// Fail hands err to the pipeline's error translator. Route handlers call it
// instead of writing an error response themselves, and must not write to w
// afterwards. Outside a pipeline the error is translated immediately in
// production mode.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	if st := stateFrom(r); st != nil && st.parking {
		if st.parked == nil {
			st.parked = withStack(err)
		}
		return
	}
	NewTranslator(Production).Write(w, r, err)
}

// NotFound fails the request with a 404 naming the requested path. Route
// dispatchers install it as their own not-found handler so unmatched routes
// share the pipeline's fallback.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Fail(w, r, errNotFound(OriginalPath(r)))
}

// MethodNotAllowed fails the request with a 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Fail(w, r, Errorf(http.StatusMethodNotAllowed, "Method %s is not allowed on %s", r.Method, OriginalPath(r)))
}

// startedWriter is implemented by writers that know whether the header has
// been sent.
type startedWriter interface {
	Started() bool
}

func started(w http.ResponseWriter) bool {
	for {
		if sw, ok := w.(startedWriter); ok {
			return sw.Started()
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
}
