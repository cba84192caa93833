package api

import (
	"log/slog"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

// Render writes a templ component as an HTML response with the given status.
func Render(c *gin.Context, code int, cmp templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	if err := cmp.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render page", "path", c.Request.URL.Path, "error", err)
	}
}
