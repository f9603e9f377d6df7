package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// Stacker is implemented by errors that captured a call stack.
type Stacker interface {
	Stack() string
}

// operational marks errors that describe an expected failure and are safe to
// show to clients as-is.
type operational interface {
	Operational() bool
}

// OperationalError is an expected failure with a known HTTP status code.
// It is immutable once constructed.
type OperationalError struct {
	statusCode int
	message    string
	stack      string
}

// Error returns an operational error with the given HTTP status code and message.
// Status codes outside 100–599 are replaced with 500.
func Error(status int, message string) error {
	return newOperational(status, message)
}

// Errorf returns a formatted operational error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return newOperational(status, fmt.Sprintf(format, args...))
}

func newOperational(status int, message string) *OperationalError {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	return &OperationalError{
		statusCode: status,
		message:    message,
		stack:      callers(4),
	}
}

// Error returns the message.
func (e *OperationalError) Error() string { return e.message }

// StatusCode returns the HTTP status code.
func (e *OperationalError) StatusCode() int { return e.statusCode }

// Status returns "fail" for client errors and "error" for everything else.
func (e *OperationalError) Status() string { return statusClass(e.statusCode) }

// Operational always reports true.
func (e *OperationalError) Operational() bool { return true }

// Stack returns the call stack captured where the error was created.
func (e *OperationalError) Stack() string { return e.stack }

// IsOperational reports whether err, or any error it wraps, is an expected
// failure whose message may be shown to clients.
func IsOperational(err error) bool {
	var op operational
	if errors.As(err, &op) {
		return op.Operational()
	}
	return false
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

func stackOf(err error) string {
	var s Stacker
	if errors.As(err, &s) {
		return s.Stack()
	}
	return ""
}

func statusClass(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

// panicError is a defect recovered from a panicking stage or handler.
type panicError struct {
	value any
	stack string
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func (p *panicError) Stack() string { return p.stack }

func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}

// tracedError carries the call stack recorded where a bare error entered the
// pipeline.
type tracedError struct {
	err   error
	stack string
}

func (e *tracedError) Error() string { return e.err.Error() }

func (e *tracedError) Stack() string { return e.stack }

func (e *tracedError) Unwrap() error { return e.err }

// withStack returns err unchanged if it already carries a stack, and
// otherwise records the stack of its caller.
func withStack(err error) error {
	if err == nil || stackOf(err) != "" {
		return err
	}
	return &tracedError{err: err, stack: callers(3)}
}

func callers(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// Failures raised by the pipeline itself.

func errPayloadTooLarge(limit int64) error {
	return Errorf(http.StatusRequestEntityTooLarge, "request entity too large: body exceeds %d bytes", limit)
}

func errInvalidBody() error {
	return Error(http.StatusBadRequest, "invalid request body: could not parse payload")
}

func errTooManyRequests() error {
	return Error(http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
}

func errNotFound(path string) error {
	return Errorf(http.StatusNotFound, "Can't find %s on this server!", path)
}
