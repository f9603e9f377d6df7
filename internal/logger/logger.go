// Package logger wraps zerolog.Logger with the constructors the server uses.
//
// Logger embeds zerolog.Logger, so the whole zerolog API is available on it.
// Request-scoped loggers attached by the pipeline are recovered with
// FromRequest or FromContext.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bjaus/gateway"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New returns a logger for the given role label.
//
// In Development output is human-readable and includes debug records. In
// Production output is JSON at info level. Every record carries the role and
// a timestamp. A nil w writes to os.Stdout.
func New(role string, mode gateway.Mode, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}

	level := zerolog.InfoLevel
	if mode == gateway.Development {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).
		Level(level).
		With().
		Str("role", role).
		Timestamp().
		Logger()

	return &Logger{l}
}

// Nop returns a *Logger that discards all output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Zerolog returns the underlying zerolog.Logger, e.g. for gateway.WithLogger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.Logger
}

// FromRequest returns the request-scoped logger attached by the pipeline.
// Without one, zerolog's disabled logger is returned.
func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}

// FromContext returns the logger stored in ctx by zerolog's WithContext.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
