package gateway

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bjaus/gateway/ratelimit"
)

// Configuration errors returned by New.
var (
	ErrInvalidPrefix    = errors.New("invalid mount prefix")
	ErrInvalidBodyLimit = errors.New("invalid body limit")
)

// Default mount prefixes.
const (
	DefaultAPIPrefix  = "/api"
	DefaultDocsPrefix = "/api-docs"
)

// Pipeline is the fixed, ordered chain of stages every request passes
// through before reaching a route. It implements http.Handler.
type Pipeline struct {
	mode       Mode
	logger     zerolog.Logger
	bodyLimit  int64
	static     fs.FS
	apiPrefix  string
	api        http.Handler
	docsPrefix string
	docs       http.Handler
	limiter    *ratelimit.Limiter
	trustProxy bool

	secure   SecureConfig
	cors     CORSConfig
	compress CompressConfig

	stages  []stage
	handler HandlerFunc
}

// stage is a named entry in the assembled pipeline.
type stage struct {
	name string
	wrap Stage
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMode sets the deployment mode (default: Development).
func WithMode(m Mode) Option {
	return func(p *Pipeline) {
		p.mode = m
	}
}

// WithLogger sets the log sink for access and failure records.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithBodyLimit sets the request body ceiling in bytes (default: 10 KiB).
func WithBodyLimit(maxBytes int64) Option {
	return func(p *Pipeline) {
		p.bodyLimit = maxBytes
	}
}

// WithStatic serves public files from fsys ahead of sanitization and routing.
func WithStatic(fsys fs.FS) Option {
	return func(p *Pipeline) {
		p.static = fsys
	}
}

// WithAPI mounts the route dispatcher under prefix (default: /api). The
// prefix is stripped before h sees the request.
func WithAPI(prefix string, h http.Handler) Option {
	return func(p *Pipeline) {
		p.apiPrefix = prefix
		p.api = h
	}
}

// WithDocs mounts the documentation server under prefix (default: /api-docs).
func WithDocs(prefix string, h http.Handler) Option {
	return func(p *Pipeline) {
		p.docsPrefix = prefix
		p.docs = h
	}
}

// WithRateLimiter sets the limiter used in production. Without it a
// production pipeline limits each client to ratelimit.DefaultLimit requests
// per ratelimit.DefaultWindow.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// WithTrustProxy keys clients by the first X-Forwarded-For hop.
func WithTrustProxy(trust bool) Option {
	return func(p *Pipeline) {
		p.trustProxy = trust
	}
}

// WithSecure replaces the security header configuration.
func WithSecure(cfg SecureConfig) Option {
	return func(p *Pipeline) {
		p.secure = cfg
	}
}

// WithCORS replaces the cross-origin configuration.
func WithCORS(cfg CORSConfig) Option {
	return func(p *Pipeline) {
		p.cors = cfg
	}
}

// WithCompress replaces the compression configuration.
func WithCompress(cfg CompressConfig) Option {
	return func(p *Pipeline) {
		p.compress = cfg
	}
}

// New assembles a pipeline. The stage list is built once here; the mode is
// not consulted again per request.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger:     zerolog.Nop(),
		bodyLimit:  DefaultBodyLimit,
		apiPrefix:  DefaultAPIPrefix,
		docsPrefix: DefaultDocsPrefix,
		secure:     DefaultSecureConfig(),
		cors: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	if p.mode == Production && p.limiter == nil {
		lim, err := ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("default rate limiter: %w", err)
		}
		p.limiter = lim
	}

	p.stages = p.assemble()
	p.handler = compose(p.stages)
	return p, nil
}

func (p *Pipeline) validate() error {
	if !p.mode.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMode, p.mode)
	}
	if p.bodyLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBodyLimit, p.bodyLimit)
	}
	for _, prefix := range []string{p.apiPrefix, p.docsPrefix} {
		if !validPrefix(prefix) {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
		}
	}
	if p.apiPrefix == p.docsPrefix {
		return fmt.Errorf("%w: api and docs share %q", ErrInvalidPrefix, p.apiPrefix)
	}
	return nil
}

// assemble lists the stages in their declared order. Later stages rely on
// earlier ones having run.
func (p *Pipeline) assemble() []stage {
	stages := []stage{
		{"logger", accessLog(p.logger, p.mode, p.trustProxy, NewTranslator(p.mode))},
		{"secure", Secure(p.secure)},
		{"body", BodyParser(p.bodyLimit)},
	}
	if p.static != nil {
		stages = append(stages, stage{"static", Static(p.static)})
	}
	stages = append(stages,
		stage{"sanitize", Sanitize()},
		stage{"cors", CORS(p.cors)},
		stage{"compress", Compress(p.compress)},
	)
	if p.mode == Production {
		stages = append(stages, stage{"ratelimit", RateLimit(p.limiter, p.apiPrefix)})
	}

	var mounts []mount
	if p.api != nil {
		mounts = append(mounts, mount{prefix: p.apiPrefix, handler: p.api})
	}
	if p.docs != nil {
		mounts = append(mounts, mount{prefix: p.docsPrefix, handler: p.docs})
	}
	return append(stages,
		stage{"dispatch", dispatch(mounts)},
		stage{"notfound", notFound()},
	)
}

func compose(stages []stage) HandlerFunc {
	h := HandlerFunc(func(http.ResponseWriter, *http.Request) error { return nil })
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i].wrap(h)
	}
	return h
}

// Stages returns the names of the assembled stages in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// Mode returns the deployment mode the pipeline was assembled for.
func (p *Pipeline) Mode() Mode { return p.mode }

// ServeHTTP implements http.Handler.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	//nolint:errcheck,gosec // the logger stage translates every error itself
	p.handler(w, r)
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (p *Pipeline) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type mount struct {
	prefix  string
	handler http.Handler
}

// dispatch hands requests under a mount prefix to the mounted handler with the
// prefix stripped. An error the handler reports through Fail becomes this
// stage's error. Unmatched requests continue down the pipeline.
func dispatch(mounts []mount) Stage {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			for _, m := range mounts {
				if underPrefix(r.URL.Path, m.prefix) {
					return serveMounted(m, w, r)
				}
			}
			return next(w, r)
		}
	}
}

func serveMounted(m mount, w http.ResponseWriter, r *http.Request) error {
	r, st := ensureState(r)
	st.parking = true
	defer func() { st.parking = false }()

	m.handler.ServeHTTP(w, stripPrefix(r, m.prefix))

	err := st.parked
	st.parked = nil
	return err
}

// notFound is the catch-all for requests no mount claimed.
func notFound() Stage {
	return func(HandlerFunc) HandlerFunc {
		return func(_ http.ResponseWriter, r *http.Request) error {
			return errNotFound(OriginalPath(r))
		}
	}
}

func validPrefix(prefix string) bool {
	return strings.HasPrefix(prefix, "/") && (prefix == "/" || !strings.HasSuffix(prefix, "/"))
}

// underPrefix matches whole path segments: /api matches /api and /api/x but
// not /api-docs.
func underPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func stripPrefix(r *http.Request, prefix string) *http.Request {
	if prefix == "/" {
		return r
	}

	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	r2.URL = &u

	u.Path = strings.TrimPrefix(r.URL.Path, prefix)
	if u.Path == "" {
		u.Path = "/"
	}
	if r.URL.RawPath != "" {
		u.RawPath = strings.TrimPrefix(r.URL.RawPath, prefix)
		if u.RawPath == "" {
			u.RawPath = "/"
		}
	}
	return r2
}
