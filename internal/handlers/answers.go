package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
	"github.com/emilythestrangee/devqna/backend/internal/notifications"
)

type AnswerHandler struct {
	db     *gorm.DB
	engine *notifications.Engine
}

func NewAnswerHandler(db *gorm.DB, engine *notifications.Engine) *AnswerHandler {
	return &AnswerHandler{db: db, engine: engine}
}

func (h *AnswerHandler) answerScore(answerID int) int {
	var up, down int64
	h.db.Model(&models.Vote{}).Where("answer_id = ? AND vote_type = ?", answerID, 1).Count(&up)
	h.db.Model(&models.Vote{}).Where("answer_id = ? AND vote_type = ?", answerID, -1).Count(&down)
	return int(up - down)
}

// GetAnswers returns all answers for a question with calculated scores
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := c.Param("id")
	var answers []models.Answer

	if err := h.db.Where("question_id = ?", questionID).Preload("User").Order("is_accepted desc, created_at desc").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	var responses []gin.H
	for _, answer := range answers {
		responses = append(responses, gin.H{
			"id":          answer.ID,
			"question_id": answer.QuestionID,
			"user_id":     answer.UserID,
			"user":        answer.User,
			"content":     answer.Content,
			"is_accepted": answer.IsAccepted,
			"votes_count": h.answerScore(answer.ID),
			"created_at":  answer.CreatedAt,
			"updated_at":  answer.UpdatedAt,
		})
	}

	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// CreateAnswer posts a new answer on a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var input struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questionID := c.Param("id")
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Verify question exists
	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answer := models.Answer{
		QuestionID: question.ID,
		UserID:     userID,
		Content:    input.Content,
	}

	if err := h.db.Create(&answer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.engine.AnswerCreated(answer)

	h.db.Preload("User").First(&answer, answer.ID)
	c.JSON(http.StatusCreated, answer)
}

// UpdateAnswer updates an answer (owner only)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	answerID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if answer.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own answers"})
		return
	}

	answer.Content = input.Content
	h.db.Save(&answer)
	h.db.Preload("User").First(&answer, answer.ID)

	c.JSON(http.StatusOK, answer)
}

// DeleteAnswer deletes an answer and its votes and comments (owner only)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	answerID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if answer.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own answers"})
		return
	}

	// An accepted answer that disappears un-answers its question.
	if answer.IsAccepted {
		h.db.Model(&models.Question{}).Where("id = ?", answer.QuestionID).Updates(map[string]interface{}{
			"accepted_answer_id": nil,
			"is_answered":        false,
		})
	}

	h.db.Where("answer_id = ?", answer.ID).Delete(&models.Vote{})
	h.db.Where("answer_id = ?", answer.ID).Delete(&models.Comment{})

	if err := h.db.Delete(&answer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}
