package gateway

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS stage.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string // empty: reflect Access-Control-Request-Headers
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// CORS returns a stage that handles Cross-Origin Resource Sharing. Every
// OPTIONS request is answered as a preflight with 204 and no body; all other
// responses are annotated. If no config is provided, permissive defaults are
// used.
func CORS(cfg ...CORSConfig) Stage {
	c := CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
	}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	origins := strings.Join(c.AllowOrigins, ", ")
	methods := strings.Join(c.AllowMethods, ", ")
	headers := strings.Join(c.AllowHeaders, ", ")
	expose := strings.Join(c.ExposeHeaders, ", ")
	maxAge := ""
	if c.MaxAge > 0 {
		maxAge = strconv.Itoa(c.MaxAge)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			h := w.Header()
			if origins != "" {
				h.Set("Access-Control-Allow-Origin", origins)
			}
			if origins != "*" {
				h.Add("Vary", "Origin")
			}
			if c.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method != http.MethodOptions {
				return next(w, r)
			}

			h.Set("Access-Control-Allow-Methods", methods)
			switch {
			case headers != "":
				h.Set("Access-Control-Allow-Headers", headers)
			case r.Header.Get("Access-Control-Request-Headers") != "":
				h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				h.Add("Vary", "Access-Control-Request-Headers")
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			h.Set("Content-Length", "0")
			w.WriteHeader(http.StatusNoContent)
			return nil
		}
	}
}
