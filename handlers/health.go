package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoshop/utils"
)

// HealthHandler reports the last health snapshot. A nil monitor reports plain ok.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if monitor == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := http.StatusOK
		label := "ok"
		if !monitor.Healthy() {
			status = http.StatusServiceUnavailable
			label = "degraded"
		}
		c.JSON(status, gin.H{"status": label, "checks": monitor.Status()})
	}
}
