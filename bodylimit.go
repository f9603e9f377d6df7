package gateway

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBodyLimit is the request body ceiling used when none is configured.
const DefaultBodyLimit int64 = 10 << 10

type bodyKind int

const (
	bodyOther bodyKind = iota
	bodyJSON
	bodyForm
)

// payload is the structured form of a parsed request body.
type payload struct {
	kind  bodyKind
	value any
}

func bodyKindOf(contentType string) bodyKind {
	if contentType == "" {
		return bodyOther
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return bodyOther
	}
	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return bodyJSON
	case mediaType == "application/x-www-form-urlencoded":
		return bodyForm
	}
	return bodyOther
}

// BodyParser returns a stage that enforces a request body ceiling and parses
// JSON and URL-encoded form bodies. Bodies over maxBytes fail with 413 and
// malformed payloads fail with 400. The raw bytes stay readable on r.Body.
func BodyParser(maxBytes int64) Stage {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if r.ContentLength > maxBytes {
				return errPayloadTooLarge(maxBytes)
			}
			if r.Body == nil || r.Body == http.NoBody {
				return next(w, r)
			}

			raw, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
			if err != nil {
				return fmt.Errorf("read request body: %w", err)
			}
			if int64(len(raw)) > maxBytes {
				return errPayloadTooLarge(maxBytes)
			}
			//nolint:errcheck,gosec // fully consumed; replaced below
			r.Body.Close()
			setBody(r, raw)

			p, err := parsePayload(bodyKindOf(r.Header.Get("Content-Type")), raw)
			if err != nil {
				return err
			}
			if p != nil {
				var st *requestState
				r, st = ensureState(r)
				st.payload = p
			}
			return next(w, r)
		}
	}
}

func parsePayload(kind bodyKind, raw []byte) (*payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	switch kind {
	case bodyJSON:
		var v any
		if err := codec.Unmarshal(raw, &v); err != nil {
			return nil, errInvalidBody()
		}
		return &payload{kind: bodyJSON, value: v}, nil
	case bodyForm:
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, errInvalidBody()
		}
		return &payload{kind: bodyForm, value: formValue(vals)}, nil
	}
	return nil, nil
}

// formValue maps single-valued fields to strings and repeated fields to lists.
func formValue(vals url.Values) map[string]any {
	out := make(map[string]any, len(vals))
	for k, vs := range vals {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

func formValues(m map[string]any) url.Values {
	vals := make(url.Values, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string:
			vals.Set(k, t)
		case []any:
			for _, e := range t {
				if s, ok := e.(string); ok {
					vals.Add(k, s)
				}
			}
		}
	}
	return vals
}

// encode serializes the payload back into its wire format.
func (p *payload) encode() ([]byte, error) {
	if p.kind == bodyForm {
		m, _ := p.value.(map[string]any)
		return []byte(formValues(m).Encode()), nil
	}
	return codec.Marshal(p.value)
}

func setBody(r *http.Request, b []byte) {
	r.Body = io.NopCloser(bytes.NewReader(b))
	r.ContentLength = int64(len(b))
	if r.Header.Get("Content-Length") != "" {
		r.Header.Set("Content-Length", fmt.Sprint(len(b)))
	}
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}

// Body returns the parsed request body: JSON values as decoded with numbers
// kept as json.Number, form bodies as map[string]any.
func Body(r *http.Request) (any, bool) {
	st := stateFrom(r)
	if st == nil || st.payload == nil {
		return nil, false
	}
	return st.payload.value, true
}

// DecodeBody decodes the parsed (and sanitized) request body into v.
func DecodeBody(r *http.Request, v any) error {
	st := stateFrom(r)
	if st == nil || st.payload == nil {
		return Error(http.StatusBadRequest, "request body is required")
	}
	b, err := codec.Marshal(st.payload.value)
	if err != nil {
		return fmt.Errorf("encode parsed body: %w", err)
	}
	if err := codec.Unmarshal(b, v); err != nil {
		return Errorf(http.StatusBadRequest, "invalid request body: %v", err)
	}
	return nil
}
