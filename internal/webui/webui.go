// Package webui provides the embedded inspection page served next to the API.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// APIPrefix is the route prefix owned by the JSON API. The page never
// answers for it, so unknown API routes stay plain 404s.
const APIPrefix = "/v1/"

//go:embed static/*
var staticFS embed.FS

func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Handler serves the inspection page. Extensionless paths fall back to the
// index so a reload on a container view still loads the page. The index is
// revalidated on every load since it is rebuilt with the binary.
func Handler() http.Handler {
	files := http.FileServer(StaticFS())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if strings.HasPrefix(p, APIPrefix) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if path.Ext(p) == "" || p == "/index.html" {
			w.Header().Set("Cache-Control", "no-cache")
			r = r.Clone(r.Context())
			r.URL.Path = "/"
		}
		files.ServeHTTP(w, r)
	})
}
