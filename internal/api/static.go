package api

import (
	"net/http"
	"path"
	"strings"
)

// registerStaticRoutes serves the generated output directory at the root.
func (s *Server) registerStaticRoutes() {
	if s.outputDir == "" {
		return
	}

	files := http.FileServer(http.Dir(s.outputDir))
	s.router.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && s.indexFile != "" && s.indexFile != "index.html" {
			http.Redirect(w, r, "/"+s.indexFile, http.StatusFound)
			return
		}
		w.Header().Set("Cache-Control", cacheControlFor(r.URL.Path))
		files.ServeHTTP(w, r)
	}))
}

// cacheControlFor keeps the page and its data fresh. Thumbnails are named
// by item id and rewritten in place, so they get a shorter lifetime.
func cacheControlFor(p string) string {
	switch {
	case strings.HasPrefix(p, "/thumbnails/"):
		return CacheOneDay
	case path.Ext(p) == ".html", path.Ext(p) == ".js", p == "/":
		return CacheNoStore
	default:
		return CacheOneWeek
	}
}
