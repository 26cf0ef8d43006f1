package devserver

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const latestPrefix = "/docs/latest"

// DocsLatest serves /docs/latest/... from the current docs version.
func DocsLatest(current string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if current != "" && (p == latestPrefix || strings.HasPrefix(p, latestPrefix+"/")) {
			rewriteRequest(r, "/docs/"+current+strings.TrimPrefix(p, latestPrefix))
		}
		next.ServeHTTP(w, r)
	})
}

// HTMLFallback maps an extensionless request to <path>.html when that file
// exists under root. Otherwise the request is left alone.
func HTMLFallback(root string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "/" && !strings.HasSuffix(p, "/") && path.Ext(p) == "" {
			candidate := filepath.Join(root, filepath.FromSlash(path.Clean(p))+".html")
			if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
				rewriteRequest(r, p+".html")
			}
		}
		next.ServeHTTP(w, r)
	})
}

func rewriteRequest(r *http.Request, p string) {
	r.URL.Path = p
	r.URL.RawPath = ""
}
