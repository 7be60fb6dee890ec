package routes

import (
	"diskwarden/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes registers the websocket stream only.
// Tokens are issued with the `diskwarden token` command, not over HTTP.
func RegisterWebSocketRoutes(r *gin.Engine) {
	r.GET("/ws", controllers.HandleWebSocket)
}
