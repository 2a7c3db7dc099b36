package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bitbucket.org/pawdesk/petcare_backend/utils"
)

// TenantMiddleware resolves the acting tenant from the X-Tenant-Id header and
// attaches it to the request context. Handlers never read the header
// themselves; model functions reject requests without a tenant in context.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId := c.Request.Header.Get("X-Tenant-Id")
		if tenantId == "" {
			c.Next()
			return
		}
		if _, err := uuid.Parse(tenantId); err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(utils.SetTenantIdInContext(c.Request.Context(), tenantId))
		c.Next()
	}
}
