package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request after the handler ran.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// recovery converts handler panics into a 500 envelope instead of
// killing the connection.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic",
					"path", c.Request.URL.Path,
					"panic", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}
