package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rendermodes/internal/news"
)

// Error bodies of the JSON API.
const (
	msgNotFound    = "News not found"
	msgFetchFailed = "Failed to fetch news"
)

// handleNewsList serves the popular articles, computed fresh per request.
func (s *Server) handleNewsList(c *gin.Context) {
	articles, err := s.apiList.Popular(c.Request.Context(), s.cfg.APILimit)
	if err != nil {
		s.log.Error("news list failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFetchFailed})
		return
	}
	c.JSON(http.StatusOK, articles)
}

// handleNewsDetail serves one article by id.
func (s *Server) handleNewsDetail(c *gin.Context) {
	a, err := s.apiDetail.ByID(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, news.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case err != nil:
		s.log.Error("news detail failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFetchFailed})
	default:
		c.JSON(http.StatusOK, a)
	}
}
