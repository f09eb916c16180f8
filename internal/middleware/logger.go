package middleware

import (
	"time"

	"github.com/edgemarket/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs every request with its status and latency.
// 4xx and 5xx responses are logged at error level.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Build full URL
		fullURL := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			fullURL = fullURL + "?" + redactToken(c)
		}

		// Process request
		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		kv := []interface{}{
			"method", c.Request.Method,
			"url", fullURL,
			"status", statusCode,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		}
		if userID := GetUserID(c); userID != 0 {
			kv = append(kv, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		if statusCode >= 400 {
			logger.Error("request", kv...)
		} else {
			logger.Info("request", kv...)
		}
	}
}

// redactToken hides the websocket token query parameter
func redactToken(c *gin.Context) string {
	q := c.Request.URL.Query()
	if q.Has("token") {
		q.Set("token", "***")
		return q.Encode()
	}
	return c.Request.URL.RawQuery
}
