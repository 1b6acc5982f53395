package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/utils"
)

const (
	HeaderTenantId      = "X-Tenant-Id"
	HeaderUserId        = "X-User-Id"
	HeaderCorrelationId = "X-Correlation-Id"
)

// SessionMiddleware puts the caller's tenant and actor into the request context.
// Requests without a tenant are rejected.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId := strings.TrimSpace(c.GetHeader(HeaderTenantId))
		if tenantId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant is required"})
			return
		}
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)

		if raw := strings.TrimSpace(c.GetHeader(HeaderUserId)); raw != "" {
			userId, err := strconv.Atoi(raw)
			if err != nil || userId <= 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
				return
			}
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
