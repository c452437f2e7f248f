package models

import "time"

// Comment targets either a question or an answer, never both. The two
// nullable columns exist for the store; code paths resolve them through
// Target so the exclusivity can't drift.
type Comment struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	Content    string    `gorm:"not null" json:"content"`
	QuestionID *int      `json:"question_id,omitempty"`
	AnswerID   *int      `json:"answer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}
