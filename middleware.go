package gateway

import (
	"net/http"
	"runtime/debug"
)

// guard runs next and converts a panic into a defect error so that one
// request's failure never takes down the server.
func guard(next HandlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rec)
			}
			err = &panicError{value: rec, stack: string(debug.Stack())}
		}
	}()
	return next(w, r)
}
