package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dkowalsky/favourites-api/internal/auth"
)

// authScheme is the literal expected before the token in the Authorization
// header. Existing clients send "jwt", not "Bearer"; kept for compatibility.
const authScheme = "jwt"

const claimsContextKey = "authClaims"

// requireAuth extracts and verifies the bearer token. Missing header, wrong
// scheme and failed verification all short-circuit with the same 401 so the
// caller learns nothing about which check failed.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := h.codec.Decode(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func extractToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
		return "", false
	}
	return parts[1], true
}

// mustClaims is only called from handlers behind requireAuth.
func mustClaims(c *gin.Context) auth.Claims {
	claims, _ := c.Get(claimsContextKey)
	return claims.(auth.Claims)
}

// RequestLogger logs one line per request through the configured zap logger.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
