package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rendermodes/internal/news"
	"rendermodes/internal/render"
)

// Response headers describing how a page was produced.
const (
	headerRenderMode  = "X-Render-Mode"
	headerGeneratedAt = "X-Generated-At"
	headerCacheState  = "X-Cache-State"
)

func (s *Server) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, render.TemplateHome, render.HomeView{
		Modes:   s.registry.Modes(),
		Entries: s.engine.Stats(),
	})
}

func (s *Server) handleRenderList(c *gin.Context) {
	p, ok := s.pipeline(c)
	if !ok {
		return
	}
	page, err := p.List(c.Request.Context())
	if err != nil {
		s.pageFailed(c, err)
		return
	}
	if p.Mode().Name == render.Mixed {
		page = page.Filtered(c.Query("category"), c.Query("sort"))
	}
	if s.writePageHeaders(c, page.Page) {
		return
	}
	c.HTML(http.StatusOK, render.ListTemplate(p.Mode()), page)
}

func (s *Server) handleRenderDetail(c *gin.Context) {
	p, ok := s.pipeline(c)
	if !ok {
		return
	}
	page, err := p.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.pageFailed(c, err)
		return
	}
	if s.writePageHeaders(c, page.Page) {
		return
	}
	c.HTML(http.StatusOK, render.DetailTemplate(p.Mode()), page)
}

// handleRevalidate marks a mode's cached pages stale on demand.
func (s *Server) handleRevalidate(c *gin.Context) {
	mode := c.Param("mode")
	n, err := s.registry.Revalidate(mode)
	switch {
	case errors.Is(err, render.ErrUnknownMode):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, render.ErrNotRevalidating):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		s.log.Info("revalidation requested", zap.String("mode", mode), zap.Int("entries", n))
		c.JSON(http.StatusAccepted, gin.H{"mode": mode, "invalidated": n})
	}
}

func (s *Server) pipeline(c *gin.Context) (*render.Pipeline, bool) {
	p, err := s.registry.ForMode(c.Param("mode"))
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Unknown rendering mode")
		return nil, false
	}
	return p, true
}

func (s *Server) pageFailed(c *gin.Context, err error) {
	if errors.Is(err, news.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, msgNotFound)
		return
	}
	s.log.Error("render failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
	s.renderError(c, http.StatusInternalServerError, msgFetchFailed)
}

func (s *Server) renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, render.TemplateError, render.ErrorView{
		Status:  status,
		Title:   http.StatusText(status),
		Message: msg,
	})
}

// writePageHeaders sets the caching headers of page and answers 304 when the
// client's validator is current. It reports whether the response is done.
func (s *Server) writePageHeaders(c *gin.Context, page render.Page) bool {
	h := c.Writer.Header()
	h.Set(headerRenderMode, page.Mode.Name)
	h.Set(headerGeneratedAt, page.GeneratedAt.UTC().Format(time.RFC3339Nano))
	h.Set(headerCacheState, page.State)
	h.Set("Cache-Control", page.Mode.CacheControl)
	h.Set("ETag", page.ETag)

	if page.Mode.Conditional() && etagMatches(c.GetHeader("If-None-Match"), page.ETag) {
		c.AbortWithStatus(http.StatusNotModified)
		return true
	}
	return false
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
