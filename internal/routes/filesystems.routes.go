package routes

import (
	"diskwarden/internal/controllers"
	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterFilesystemRoutes(r *gin.Engine) {
	r.GET("/health", controllers.GetHealth)
	r.GET("/status", controllers.GetStatus)
	r.GET("/format", controllers.FormatBytes)
	r.GET("/settings", controllers.GetSettings)
	r.GET("/metrics", gin.WrapH(services.PrometheusHandler()))

	filesystems := r.Group("/filesystems")
	{
		filesystems.GET("", controllers.GetFilesystems)
		filesystems.GET("/history", controllers.GetFilesystemHistory)
	}
}
