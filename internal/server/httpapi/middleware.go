package httpapi

import (
	"strings"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// authenticate validates the Bearer access token and stores the caller's
// identity in the request context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			s.abortWithError(c, common.ErrUnauthorized)
			return
		}

		identity, err := s.auth.ValidateAccessToken(c.Request.Context(), strings.TrimPrefix(header, prefix))
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// identity returns the authenticated caller. It must only be called on routes
// behind authenticate.
func identity(c *gin.Context) *auth.Identity {
	return c.MustGet(identityKey).(*auth.Identity)
}

// rateLimit counts requests per client IP over a fixed window.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.limiter.Allow(c.Request.Context(), clientIP(c)); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// clientIP prefers the first X-Forwarded-For hop so limits apply to the
// origin client rather than a shared proxy address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}

// requestLog emits one structured line per request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
