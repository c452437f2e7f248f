package models

import "time"

// Notification types. The value is stored as-is in the type column.
const (
	NotificationAnswer          = "answer"
	NotificationAccepted        = "accepted"
	NotificationVote            = "vote"
	NotificationCommentQuestion = "comment_question"
	NotificationCommentAnswer   = "comment_answer"
)

// Notification is written only by the notification engine, never directly
// by a user request. Read flips false->true once and never back.
type Notification struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"not null;index" json:"user_id"`
	Type       string    `gorm:"not null" json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	QuestionID *int      `json:"question_id,omitempty"`
	AnswerID   *int      `json:"answer_id,omitempty"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
