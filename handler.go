package gateway

import "net/http"

// HandlerFunc handles a request and reports failure by returning an error.
// A returned error is translated into the response; a handler that returns an
// error must not have written to w.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements http.Handler. A returned error is passed to Fail.
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f(w, r); err != nil {
		Fail(w, r, err)
	}
}

// Stage is one unit of the request pipeline. It receives the remainder of the
// pipeline and either calls it, answers the request itself, or returns an
// error to short-circuit to the error translator.
type Stage func(next HandlerFunc) HandlerFunc
