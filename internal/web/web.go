package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// Page file names. They are served from the embedded copy unless a static
// directory override is configured.
const (
	DemoPage      = "outbound-agent-demo.html"
	DashboardPage = "call-analytics-dashboard.html"
)

//go:embed pages/*.html
var embedded embed.FS

// Pages serves the static HTML pages.
type Pages struct {
	files fs.FS
}

// NewPages serves from staticDir when set, otherwise from the embedded pages.
func NewPages(staticDir string) (*Pages, error) {
	if staticDir != "" {
		st, err := os.Stat(staticDir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !st.IsDir() {
			return nil, fmt.Errorf("static dir %q is not a directory", staticDir)
		}
		return &Pages{files: os.DirFS(staticDir)}, nil
	}
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		return nil, err
	}
	return &Pages{files: sub}, nil
}

// Serve writes page name with status.
func (p *Pages) Serve(name string, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := fs.ReadFile(p.files, name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "page unavailable"})
			return
		}
		c.Data(status, "text/html; charset=utf-8", b)
	}
}

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' https://cdnjs.cloudflare.com",
	"style-src 'self' 'unsafe-inline' https://cdnjs.cloudflare.com",
	"font-src 'self' https://cdnjs.cloudflare.com",
	"connect-src 'self' https://api.vapi.ai",
	"img-src 'self' data: https:",
}, "; ")

// SecurityHeaders sets the CSP and the usual hardening headers on every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}
