package gateway

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressConfig configures the Compress stage.
type CompressConfig struct {
	Level   int      // gzip level (1-9, default: 6)
	MinSize int      // minimum size of the first write to compress (default: 1024)
	Types   []string // content types to compress (default: application/json, text/*)
}

// Compress returns a stage that gzip-compresses responses when the client
// accepts gzip and the body is large enough. Other responses pass through.
func Compress(cfg ...CompressConfig) Stage {
	c := CompressConfig{
		Level:   gzip.DefaultCompression,
		MinSize: 1024,
		Types:   []string{"application/json", "text/", "application/javascript", "image/svg+xml"},
	}
	if len(cfg) > 0 {
		if cfg[0].Level >= gzip.BestSpeed && cfg[0].Level <= gzip.BestCompression {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		if len(cfg[0].Types) > 0 {
			c.Types = cfg[0].Types
		}
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, c.Level) //nolint:errcheck // level is pre-validated
			return gz
		},
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.Header().Add("Vary", "Accept-Encoding")
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) || r.Method == http.MethodHead {
				return next(w, r)
			}

			gw := &gzipResponseWriter{
				ResponseWriter: w,
				pool:           pool,
				minSize:        c.MinSize,
				types:          c.Types,
			}
			defer gw.finish()

			return next(gw, r)
		}
	}
}

func acceptsGzip(header string) bool {
	for part := range strings.SplitSeq(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		if q := strings.ReplaceAll(params, " ", ""); q == "q=0" || q == "q=0.0" {
			return false
		}
		return true
	}
	return false
}

// gzipResponseWriter decides on the first write whether to compress. A gzip
// writer is only taken from the pool once compression is active, so
// uncompressed responses are never touched.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool       *sync.Pool
	gz         *gzip.Writer
	minSize    int
	types      []string
	status     int
	headerSent bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.status == 0 {
		g.status = code
	}
	// Bodiless statuses go straight through; others wait for the first write.
	if code == http.StatusNoContent || code == http.StatusNotModified || code < 200 {
		g.flushHeader()
	}
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.headerSent {
		if g.shouldCompress(g.Header().Get("Content-Type"), len(b)) {
			gz := g.pool.Get().(*gzip.Writer) //nolint:errcheck,forcetypeassert // pool.New always returns *gzip.Writer
			gz.Reset(g.ResponseWriter)
			g.gz = gz
			g.Header().Set("Content-Encoding", "gzip")
			g.Header().Del("Content-Length")
		}
		g.flushHeader()
	}

	if g.gz != nil {
		return g.gz.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipResponseWriter) flushHeader() {
	if g.headerSent {
		return
	}
	g.headerSent = true
	if g.status != 0 {
		g.ResponseWriter.WriteHeader(g.status)
	}
}

func (g *gzipResponseWriter) finish() {
	if g.status != 0 {
		g.flushHeader()
	}
	if g.gz == nil {
		return
	}
	//nolint:errcheck,gosec // best-effort flush
	g.gz.Close()
	g.gz.Reset(io.Discard)
	g.pool.Put(g.gz)
	g.gz = nil
}

func (g *gzipResponseWriter) shouldCompress(contentType string, size int) bool {
	if size < g.minSize {
		return false
	}
	if g.status == http.StatusNoContent || g.status == http.StatusNotModified {
		return false
	}
	// Skip SSE and already-encoded responses.
	if strings.Contains(contentType, "event-stream") {
		return false
	}
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}
	if contentType == "" {
		return false
	}
	for _, t := range g.types {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

// Started reports whether the response header has been sent or is pending on
// the first write.
func (g *gzipResponseWriter) Started() bool {
	return g.headerSent || g.status != 0
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
