package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"diskwarden/internal/models"
	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps discovery failures to 503 and everything else to 500
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var failure *services.CommandFailure
	if errors.As(err, &failure) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetStatus returns host details and every rendered filesystem
func GetStatus(c *gin.Context) {
	status, err := services.GetSystemStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetFilesystems returns the rendered filesystems.
// Query params: device=/dev/sda1 (optional), fresh=true to bypass the cache
func GetFilesystems(c *gin.Context) {
	var (
		filesystems []models.Filesystem
		err         error
	)
	if c.Query("fresh") == "true" {
		filesystems, err = services.DiscoverFilesystems(c.Request.Context())
		if err == nil {
			services.StoreFilesystems(filesystems)
		}
	} else {
		filesystems, err = services.GetCachedFilesystems(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	settings := services.CurrentDisplaySettings()
	views := services.RenderFilesystems(services.AnnotateFstypes(filesystems), settings)

	if device := c.Query("device"); device != "" {
		for _, view := range views {
			if view.Device == device {
				c.JSON(http.StatusOK, view)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"display":     settings,
		"filesystems": views,
	})
}

// GetSettings returns the decoded display settings
func GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, services.CurrentDisplaySettings())
}

// FormatBytes exposes the magnitude formatter.
// Query params: bytes (required), family=decimal|binary, unit=bytes|bits, imprecise=true|false
func FormatBytes(c *gin.Context) {
	bytes, err := strconv.ParseFloat(c.Query("bytes"), 64)
	if err != nil || math.IsNaN(bytes) || math.IsInf(bytes, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bytes value"})
		return
	}

	unit := services.Bytes
	switch c.DefaultQuery("unit", "bytes") {
	case "bytes":
	case "bits":
		unit = services.Bits
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit must be bytes or bits"})
		return
	}

	imprecise := c.Query("imprecise") == "true"

	var formatted string
	switch family := c.DefaultQuery("family", "decimal"); family {
	case "decimal":
		formatted = services.FormatDecimal(bytes, unit, imprecise)
	case "binary":
		formatted = services.FormatBinary(bytes, unit, imprecise)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "family must be decimal or binary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bytes":     bytes,
		"formatted": formatted,
	})
}

// GetHealth reports whether the background collector's last run succeeded
func GetHealth(c *gin.Context) {
	lastUpdated, lastErr := services.CollectorStatus()
	if lastErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "degraded",
			"last_updated": lastUpdated,
			"error":        lastErr.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"last_updated": lastUpdated,
	})
}
