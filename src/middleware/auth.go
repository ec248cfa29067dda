package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/auth"
)

const TenantKey = "tenant"

// KeyResolver maps a presented gateway key to its record.
type KeyResolver interface {
	Resolve(ctx context.Context, key string) (*auth.APIKey, error)
}

type AuthMiddleware struct {
	keys   KeyResolver
	logger *zap.Logger
}

func NewAuthMiddleware(keys KeyResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		keys:   keys,
		logger: logger,
	}
}

func presentedKey(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.GetHeader("X-API-Key")
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": "unauthorized", "message": msg},
	})
}

// RequireTenant resolves the gateway key and stores the tenant id in the
// context under TenantKey.
func (m *AuthMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := presentedKey(c)
		if key == "" {
			abortUnauthorized(c, "API key required")
			return
		}

		record, err := m.keys.Resolve(c.Request.Context(), key)
		if errors.Is(err, auth.ErrUnknownKey) {
			abortUnauthorized(c, "Invalid API key")
			return
		}
		if err != nil {
			m.logger.Error("key lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "internal_error", "message": "Failed to verify API key"},
			})
			return
		}

		c.Set(TenantKey, record.Tenant)
		c.Next()
	}
}

// Tenant returns the tenant set by RequireTenant.
func Tenant(c *gin.Context) string {
	return c.GetString(TenantKey)
}
