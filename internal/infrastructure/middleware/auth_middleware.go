package middleware

import (
	"net/http"
	"strings"

	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares.
const (
	ContextTenantID = "tenant_id"
	ContextUsername = "username"
)

// AuthMiddleware validates a Bearer session token. Browser WebSocket clients
// cannot set headers, so a token query parameter is accepted as fallback.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// APIKeyAuthMiddleware authenticates machine clients by their tenant API key.
func APIKeyAuthMiddleware(tenants ports.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		tenant, err := tenants.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Set(ContextTenantID, tenant.ID)
		c.Set(ContextUsername, tenant.Username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
