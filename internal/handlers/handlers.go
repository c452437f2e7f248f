package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/notifications"
	"github.com/emilythestrangee/devqna/backend/internal/ws"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Vote         *VoteHandler
	Comment      *CommentHandler
	Notification *NotificationHandler
	WS           *WSHandler
}

// NewHandler creates a unified handler with all sub-handlers. The
// notification engine fans out to the websocket hub and, when Twilio is
// configured, to SMS.
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	sinks := []notifications.Sink{hub}
	if sms := notifications.NewSMSNotifierFromEnv(db); sms != nil {
		sinks = append(sinks, sms)
	}
	engine := notifications.NewEngine(db, sinks...)

	return &Handler{
		Auth:         NewAuthHandler(db),
		Question:     NewQuestionHandler(db, engine),
		Answer:       NewAnswerHandler(db, engine),
		Vote:         NewVoteHandler(db, engine),
		Comment:      NewCommentHandler(db, engine),
		Notification: NewNotificationHandler(db),
		WS:           NewWSHandler(hub),
	}
}

// extractUserID pulls the authenticated user id out of the gin context.
func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
