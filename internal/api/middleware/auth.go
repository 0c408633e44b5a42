package middleware

import (
	"Hydro/internal/pkg/logger"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxToken  = "token"
)

// TokenFromRequest Authorization 头优先于会话 Cookie
func TokenFromRequest(c *gin.Context, cookieName string) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware 负责验证 JWT 与会话并将用户身份信息注入 Context
func AuthMiddleware(userSvc service.UserService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, userSvc, cookieName) {
			return
		}
		c.Next()
	}
}

// authenticate 失败时已写入响应并中止
func authenticate(c *gin.Context, userSvc service.UserService, cookieName string) bool {
	token := TokenFromRequest(c, cookieName)
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, "missing or malformed token")
		return false
	}

	claims, err := userSvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.UnauthorizedError) {
			response.Fail(c, http.StatusUnauthorized, "invalid or expired token")
			return false
		}
		response.Error(c, err)
		return false
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxToken, token)

	newCtx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(newCtx)
	return true
}
