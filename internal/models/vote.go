package models

import "time"

// Vote model - tracks individual user votes on questions and answers.
// At most one row per (user, target); repeat votes toggle off or switch.
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `json:"user_id"`
	QuestionID *int      `json:"question_id,omitempty"`
	AnswerID   *int      `json:"answer_id,omitempty"`
	VoteType   int       `json:"vote_type"` // 1 or -1
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VoteRequest struct {
	VoteType int `json:"vote_type"`
}
