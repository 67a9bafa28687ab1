// Package web serves the embedded gallery frontend.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed static/*
var staticFiles embed.FS

// RegisterStaticRoutes serves the embedded frontend for all non-API routes.
// API routes must be registered before calling this.
func RegisterStaticRoutes(r *gin.Engine) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("embedded frontend missing: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(staticFS))

	r.NoRoute(func(c *gin.Context) {
		requestPath := path.Clean(c.Request.URL.Path)

		// Unknown API paths stay JSON 404s, never HTML.
		if strings.HasPrefix(requestPath, "/api/") || requestPath == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		name := strings.TrimPrefix(requestPath, "/")
		if name == "" || name == "." {
			name = "index.html"
		}

		if f, err := staticFS.Open(name); err == nil {
			stat, serr := f.Stat()
			f.Close()
			if serr == nil && !stat.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}

		// SPA fallback: unknown paths get index.html.
		serveIndexHTML(c, staticFS)
	})
}

func serveIndexHTML(c *gin.Context, staticFS fs.FS) {
	content, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		c.String(http.StatusNotFound, "index.html not found")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}
