package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoshop/utils"
)

// getLogger retrieves a Zap logger from the Gin context or falls back to the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// RequestLogger puts a request-scoped logger on the context.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", base.With(zap.String("method", c.Request.Method), zap.String("path", c.FullPath())))
		c.Next()
	}
}
