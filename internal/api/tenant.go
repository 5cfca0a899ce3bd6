package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID 携带租户（用户）ID 的请求头
const HeaderUserID = "X-User-ID"

const tenantKey = "tenant"

// RequireTenant 从请求头解析租户；缺失或非法时返回 401
// 身份认证由前置网关完成，这里只信任其注入的用户 ID。
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(tenantKey, id)
		c.Next()
	}
}

// TenantOf 返回当前请求的租户 ID；未经 RequireTenant 时为 0
func TenantOf(c *gin.Context) int64 {
	return c.GetInt64(tenantKey)
}
