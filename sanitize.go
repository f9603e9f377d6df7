package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes every element, and drops the content of script-like
// elements entirely. A configured policy is safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// textEntities undoes the policy's escaping of ordinary text. "&lt;" stays
// escaped so the result never contains '<'.
var textEntities = strings.NewReplacer(
	"&amp;", "&",
	"&gt;", ">",
	"&#34;", `"`,
	"&quot;", `"`,
	"&#39;", "'",
	"&#13;", "\r",
)

// SanitizeString neutralizes markup in s. Strings without a '<' cannot carry
// markup and are returned unchanged; sanitized output never contains '<', so
// applying SanitizeString twice is the same as applying it once.
func SanitizeString(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return textEntities.Replace(strictPolicy.Sanitize(s))
}

// SanitizeValue recursively sanitizes every string leaf of v in place. Maps
// and slices are mutated; other values pass through untouched. It reports
// whether anything changed.
func SanitizeValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		clean := SanitizeString(t)
		return clean, clean != t
	case map[string]any:
		changed := false
		for k, e := range t {
			if clean, ok := SanitizeValue(e); ok {
				t[k] = clean
				changed = true
			}
		}
		return t, changed
	case []any:
		changed := false
		for i, e := range t {
			if clean, ok := SanitizeValue(e); ok {
				t[i] = clean
				changed = true
			}
		}
		return t, changed
	}
	return v, false
}

// Sanitize returns a stage that strips script and markup from the parsed
// body, the query string and the path segments of every request. It never
// rejects a request. When the body changes it is re-encoded so handlers that
// read r.Body see the sanitized form.
func Sanitize() Stage {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if st := stateFrom(r); st != nil && st.payload != nil {
				clean, changed := SanitizeValue(st.payload.value)
				if changed {
					st.payload.value = clean
					b, err := st.payload.encode()
					if err != nil {
						return fmt.Errorf("encode sanitized body: %w", err)
					}
					setBody(r, b)
				}
			}

			sanitizeQuery(r)
			if sanitizePath(r) {
				if st := stateFrom(r); st != nil {
					st.path = r.URL.Path
				}
			}
			return next(w, r)
		}
	}
}

func sanitizeQuery(r *http.Request) {
	if !strings.Contains(r.URL.RawQuery, "<") && !strings.Contains(strings.ToLower(r.URL.RawQuery), "%3c") {
		return
	}
	q := r.URL.Query()
	changed := false
	for _, vs := range q {
		for i, v := range vs {
			if clean := SanitizeString(v); clean != v {
				vs[i] = clean
				changed = true
			}
		}
	}
	if changed {
		r.URL.RawQuery = q.Encode()
	}
}

func sanitizePath(r *http.Request) bool {
	if !strings.Contains(r.URL.Path, "<") {
		return false
	}
	segs := strings.Split(r.URL.Path, "/")
	for i, s := range segs {
		segs[i] = SanitizeString(s)
	}
	r.URL.Path = strings.Join(segs, "/")
	r.URL.RawPath = ""
	return true
}
