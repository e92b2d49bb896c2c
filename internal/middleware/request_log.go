package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"listing_studio/pkg/logger"
)

// RequestLogger 请求日志
// SSE 长连接同样在结束时记录一次
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID := GetUserID(c); userID > 0 {
			fields = append(fields, "user_id", userID, "role", GetUserRole(c))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.L().Errorw("[HTTP] 请求失败", fields...)
		case status >= 400:
			logger.L().Warnw("[HTTP] 请求异常", fields...)
		default:
			logger.L().Infow("[HTTP] 请求完成", fields...)
		}
	}
}

// Recovery panic 恢复，记录堆栈后返回 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.L().Errorw("[HTTP] panic", "path", c.Request.URL.Path, "error", recovered)
		c.AbortWithStatusJSON(500, gin.H{
			"code":    500,
			"message": "Internal server error",
		})
	})
}
