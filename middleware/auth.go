package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/config"
)

const (
	EditorKey = "editor"
	ClaimsKey = "claims"
)

// SessionKey is the cache key marking a token as logged in.
func SessionKey(tokenID string) string { return "session:" + tokenID }

// Auth validates the Bearer JWT and requires its session to still exist,
// so logout revokes a token before it expires.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, SessionKey(claims.ID))
		if err != nil || !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(EditorKey, claims.Subject)
		ctx.Set(ClaimsKey, claims)
		ctx.Next()
	}
}

// GetEditor returns the authenticated editor, or "" on public routes.
func GetEditor(c *gin.Context) string {
	return c.GetString(EditorKey)
}

// GetClaims returns the parsed token claims set by Auth.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
