package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcpjungle/mcpchat/internal"
	"go.uber.org/zap"
)

// checkAuthForMcpAccess rejects requests that do not carry the configured access token.
// If no access token is configured, all requests are allowed.
func (s *Server) checkAuthForMcpAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.accessToken == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || !internal.AccessTokenMatches(s.accessToken, strings.TrimSpace(token)) {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing or invalid access token in the Authorization header"},
			)
			return
		}
		c.Next()
	}
}

// requestLogger logs every request once it has been served.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.logger.Debug(
			"served request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
