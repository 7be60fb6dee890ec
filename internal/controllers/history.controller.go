package controllers

import (
	"net/http"
	"time"

	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
)

// GetFilesystemHistory returns usage samples with a rounded chart maximum.
// Query params: device=/dev/sda1 (optional, all devices when empty),
// duration=5m|10m|1h (default: 10m)
func GetFilesystemHistory(c *gin.Context) {
	durationStr := c.DefaultQuery("duration", "10m")

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration format"})
		return
	}

	device := c.Query("device")
	if device == "" {
		c.JSON(http.StatusOK, gin.H{
			"duration": durationStr,
			"data":     services.GetAllFilesystemHistory(duration),
		})
		return
	}

	history, ok := services.GetFilesystemHistory(device, duration)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no history for device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duration": durationStr,
		"data":     history,
	})
}
