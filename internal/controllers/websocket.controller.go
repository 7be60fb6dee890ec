package controllers

import (
	"net/http"
	"strings"
	"time"

	"diskwarden/internal/middleware"
	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var (
	securityLogger = middleware.NewSecurityLogger(logrus.StandardLogger())
	allowedOrigins []string
	log            logrus.FieldLogger = logrus.StandardLogger().WithField("component", "websocket")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.OriginAllowed(strings.TrimRight(origin, "/"), allowedOrigins)
	},
}

// Configure sets the logger and the origins accepted on websocket upgrades
func Configure(l logrus.FieldLogger, origins []string) {
	securityLogger = middleware.NewSecurityLogger(l)
	log = l.WithField("component", "websocket")
	allowedOrigins = origins
}

// requestToken reads a bearer token from the Authorization header, then the token query param
func requestToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// HandleWebSocket authenticates and upgrades a connection, then streams system status
func HandleWebSocket(c *gin.Context) {
	hub := services.GetWebSocketHub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket hub not running"})
		return
	}

	token := requestToken(c)
	if token == "" {
		securityLogger.LogFailedAuth(c.ClientIP(), "missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	if !middleware.ValidateTokenFormat(token) {
		securityLogger.LogFailedAuth(c.ClientIP(), "malformed token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		securityLogger.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	securityLogger.LogWebSocketConnected(c.ClientIP(), claims.Agent)

	client := services.NewClientConnection(uuid.NewString(), ws)

	// the write pump must be draining Send before the first snapshot is queued
	go writePump(client)
	hub.Register(c.Request.Context(), client)
	go readPump(client, hub, c.ClientIP())
}

// readPump handles client messages until the connection fails
func readPump(client *services.ClientConnection, hub *services.WebSocketHub, ip string) {
	defer func() {
		hub.Unregister(client.ID)
		client.Conn.Close()
		securityLogger.LogWebSocketDisconnected(ip, client.ID)
	}()

	client.Conn.SetReadLimit(maxMessageSize)

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("client", client.ID).Debug("WebSocket read error")
			}
			return
		}

		switch msg.Type {
		case services.MessagePing:
			hub.SendTo(client.ID, services.WebSocketMessage{Type: services.MessagePong, Timestamp: time.Now()})

		case services.MessageAuth:
			// lets a long-lived client refresh its token without reconnecting
			claims, err := services.ValidateToken(msg.Token)
			if err != nil {
				securityLogger.LogFailedAuth(ip, "websocket auth message: "+err.Error())
				hub.SendTo(client.ID, services.WebSocketMessage{
					Type:      services.MessageAuthError,
					Timestamp: time.Now(),
					Error:     "invalid token",
				})
				continue
			}
			data := gin.H{"agent": claims.Agent}
			if claims.ExpiresAt != nil {
				data["expires_at"] = claims.ExpiresAt.Time
			}
			hub.SendTo(client.ID, services.WebSocketMessage{
				Type:      services.MessageAuthSuccess,
				Timestamp: time.Now(),
				Data:      data,
			})

		default:
			log.WithField("client", client.ID).Debugf("Unknown message type: %s", msg.Type)
		}
	}
}

// writePump writes queued messages until the hub closes Send
func writePump(client *services.ClientConnection) {
	defer client.Conn.Close()

	for msg := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(msg); err != nil {
			log.WithError(err).WithField("client", client.ID).Debug("WebSocket write error")
			return
		}
	}
	client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	client.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
