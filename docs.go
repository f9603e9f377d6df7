package gateway

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// DocsOption configures the documentation server.
type DocsOption func(*docsConfig)

type docsConfig struct {
	title string
}

// Title is read by the page template.
func (c *docsConfig) Title() string { return c.title }

// WithDocsTitle sets the page title for the docs UI. The default is the
// document's info.title.
func WithDocsTitle(title string) DocsOption {
	return func(c *docsConfig) {
		c.title = title
	}
}

// Docs serves an OpenAPI document and an interactive viewer for it. Mount it
// with WithDocs; paths are relative to the mount prefix:
//
//	/              viewer
//	/openapi.json  document as JSON
//	/openapi.yaml  document as YAML
type Docs struct {
	doc      *openapi3.T
	jsonSpec []byte
	yamlSpec []byte
	page     []byte
}

// NewDocs loads and validates an OpenAPI document given as JSON or YAML.
func NewDocs(ctx context.Context, document []byte, opts ...DocsOption) (*Docs, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	jsonSpec, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode openapi document as json: %w", err)
	}

	// JSON is a subset of YAML, so the canonical JSON form re-encodes cleanly.
	var tree any
	if err := yaml.Unmarshal(jsonSpec, &tree); err != nil {
		return nil, fmt.Errorf("convert openapi document: %w", err)
	}
	yamlSpec, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document as yaml: %w", err)
	}

	cfg := &docsConfig{}
	if doc.Info != nil {
		cfg.title = doc.Info.Title
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var page strings.Builder
	if err := docsTemplate.Execute(&page, cfg); err != nil {
		return nil, fmt.Errorf("render docs page: %w", err)
	}

	return &Docs{
		doc:      doc,
		jsonSpec: jsonSpec,
		yamlSpec: yamlSpec,
		page:     []byte(page.String()),
	}, nil
}

// Document returns the loaded OpenAPI document.
func (d *Docs) Document() *openapi3.T { return d.doc }

// ServeHTTP implements http.Handler.
func (d *Docs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowed(w, r)
		return
	}

	switch r.URL.Path {
	case "", "/":
		// The viewer loads the document relative to itself, so it must be
		// addressed with a trailing slash.
		if orig := OriginalPath(r); !strings.HasSuffix(orig, "/") {
			http.Redirect(w, r, orig+"/", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Security-Policy", docsCSP)
		writeDoc(w, "text/html; charset=utf-8", d.page)
	case "/openapi.json":
		writeDoc(w, "application/json", d.jsonSpec)
	case "/openapi.yaml":
		writeDoc(w, "application/yaml", d.yamlSpec)
	default:
		NotFound(w, r)
	}
}

func writeDoc(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	w.Write(b)
}

// docsCSP relaxes the default policy just enough for the viewer's CDN assets.
const docsCSP = "default-src 'self';script-src 'self' 'unsafe-inline' https://unpkg.com;" +
	"style-src 'self' 'unsafe-inline' https://unpkg.com;img-src 'self' data: https:;" +
	"connect-src 'self';object-src 'none';frame-ancestors 'self'"

var docsTemplate = template.Must(template.New("docs").Parse(docsHTML))

const docsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = function () {
      window.ui = SwaggerUIBundle({ url: "./openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>`
