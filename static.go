package gateway

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Static returns a stage that answers GET and HEAD requests for files that
// exist in fsys. A request for a directory is served its index.html. Matched
// requests bypass the rest of the pipeline; everything else passes through.
func Static(fsys fs.FS) Stage {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				return next(w, r)
			}

			name, ok := staticFile(fsys, r.URL.Path)
			if !ok {
				return next(w, r)
			}
			http.ServeFileFS(w, r, fsys, name)
			return nil
		}
	}
}

func staticFile(fsys fs.FS, urlPath string) (string, bool) {
	for seg := range strings.SplitSeq(urlPath, "/") {
		if seg == ".." {
			return "", false
		}
	}
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}

	info, err := fs.Stat(fsys, name)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		info, err = fs.Stat(fsys, name)
	}
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}
