package delivery

import (
	"net/http"
	"strings"

	"prodboard-backend/internal/tenant/usecase"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates a request either with a Bearer access
// token or with an X-API-Key header, and sets "tenantID" on the context.
func AuthMiddleware(tenantUsecase usecase.TenantUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			tenant, err := tenantUsecase.Authenticate(c.Request.Context(), apiKey)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				c.Abort()
				return
			}
			c.Set("tenantID", tenant.ID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tenant, err := tenantUsecase.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("tenantID", tenant.ID)
		c.Next()
	}
}
