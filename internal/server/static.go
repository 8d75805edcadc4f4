package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// rootFiles are served verbatim from the top of the static directory.
var rootFiles = []string{"favicon.ico", "manifest.webmanifest", "robots.txt"}

// mountStatic serves the compiled frontend. Unknown non-API paths fall back
// to index.html so client-side routes survive a reload.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Warn("no frontend directory set, serving API only")
		s.engine.NoRoute(notFound)
		return
	}
	if info, err := os.Stat(s.staticDir); err != nil || !info.IsDir() {
		s.logger.Warn("frontend directory unavailable", "dir", s.staticDir, "error", err)
		s.engine.NoRoute(notFound)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("frontend index missing", "file", indexPath, "error", err)
		s.engine.NoRoute(notFound)
	} else {
		s.engine.GET("/", func(c *gin.Context) {
			c.Header("Cache-Control", "no-cache")
			c.File(indexPath)
		})
		s.engine.NoRoute(func(c *gin.Context) {
			if isAPIPath(c.Request.URL.Path) || c.Request.Method != http.MethodGet {
				notFound(c)
				return
			}
			c.Header("Cache-Control", "no-cache")
			c.File(indexPath)
		})
	}

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		assets := s.engine.Group("/assets", func(c *gin.Context) {
			// Bundled asset names are content hashed.
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
		})
		assets.StaticFS("/", gin.Dir(assetsDir, false))
	}

	for _, name := range rootFiles {
		path := filepath.Join(s.staticDir, name)
		if _, err := os.Stat(path); err == nil {
			s.engine.StaticFile("/"+name, path)
		}
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/") || path == "/metrics"
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
}
