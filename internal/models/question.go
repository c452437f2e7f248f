package models

import "time"

type Question struct {
	ID               int       `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `json:"description"`
	UserID           int       `json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"user"`
	AcceptedAnswerID *int      `json:"accepted_answer_id,omitempty"`
	IsAnswered       bool      `gorm:"default:false" json:"is_answered"`
	ViewsCount       int       `gorm:"default:0" json:"views_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AcceptAnswerRequest struct {
	AnswerID int `json:"answer_id"`
}
