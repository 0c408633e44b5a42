package middleware

import (
	"Hydro/internal/pkg/logger"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 客户端传入的 trace id 只接受短的安全字符，否则重新生成
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(logger.TraceHeader)
		if !traceIDPattern.MatchString(traceID) {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTrace(c.Request.Context(), traceID))
		c.Header(logger.TraceHeader, traceID)
		c.Next()
	}
}
