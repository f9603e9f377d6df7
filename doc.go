// Package gateway is the entry-point request pipeline for an HTTP API server.
// Every request runs through one fixed, ordered chain of stages before it
// reaches a route, and every failure is normalized into a single JSON error
// shape.
//
// The stages, in order:
//
//	logger    request ID, request-scoped logger, one access record per request
//	secure    conservative security response headers
//	body      body size ceiling, JSON and form parsing
//	static    public files, answered directly (only when configured)
//	sanitize  strips markup from body, query and path
//	cors      preflight answers and permissive cross-origin headers
//	compress  gzip for large responses
//	ratelimit per-client fixed-window limit under the API prefix (production only)
//	dispatch  API routes and documentation under their prefixes
//	notfound  404 for anything left
//
// A pipeline is assembled once:
//
//	p, err := gateway.New(
//	    gateway.WithMode(gateway.Production),
//	    gateway.WithLogger(log),
//	    gateway.WithAPI("/api", routes),
//	    gateway.WithDocs("/api-docs", docs),
//	)
//	p.ListenAndServe(ctx, ":8080")
//
// Stages are HandlerFuncs that return errors instead of writing failure
// responses. Route handlers report failures with Fail, or by being a
// HandlerFunc that returns an error. Either way the error reaches the
// Translator, which writes the response:
//
//	{"status":"fail","message":"Can't find /api/unknown on this server!"}
//
// Operational errors, created with Error or Errorf, keep their status and
// message in every mode. Any other error is a defect. A defect is reported in
// full in Development and as a generic 500 in Production.
package gateway
