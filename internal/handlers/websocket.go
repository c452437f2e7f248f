package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/emilythestrangee/devqna/backend/internal/middleware"
	"github.com/emilythestrangee/devqna/backend/internal/ws"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend host list is settled
		return true
	},
}

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Subscribe authenticates via the token query parameter (browsers can't
// set headers on websocket upgrades), upgrades the connection, and hands
// the client to the hub for live notification push.
func (h *WSHandler) Subscribe(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication token"})
		return
	}

	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Cannot write an HTTP error after a failed upgrade attempt.
		log.Printf("ws: upgrade failed for user %d: %v", claims.UserID, err)
		return
	}

	client := ws.NewClient(h.hub, claims.UserID, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
