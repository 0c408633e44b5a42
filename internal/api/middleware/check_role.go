package middleware

import (
	"Hydro/internal/pkg/response"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 检查当前用户是否拥有指定角色之一
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(requiredRoles, c.GetString(CtxRole)) {
			response.Fail(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
