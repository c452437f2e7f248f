package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
	"github.com/emilythestrangee/devqna/backend/internal/notifications"
)

type QuestionHandler struct {
	db     *gorm.DB
	engine *notifications.Engine
}

func NewQuestionHandler(db *gorm.DB, engine *notifications.Engine) *QuestionHandler {
	return &QuestionHandler{db: db, engine: engine}
}

// questionScore computes the vote score from individual vote rows, never
// from a stored counter.
func (h *QuestionHandler) questionScore(questionID int) int {
	var up, down int64
	h.db.Model(&models.Vote{}).Where("question_id = ? AND vote_type = ?", questionID, 1).Count(&up)
	h.db.Model(&models.Vote{}).Where("question_id = ? AND vote_type = ?", questionID, -1).Count(&down)
	return int(up - down)
}

func (h *QuestionHandler) answerCount(questionID int) int64 {
	var count int64
	h.db.Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&count)
	return count
}

func (h *QuestionHandler) questionResponse(question models.Question) gin.H {
	return gin.H{
		"id":                 question.ID,
		"title":              question.Title,
		"description":        question.Description,
		"user_id":            question.UserID,
		"user":               question.User,
		"accepted_answer_id": question.AcceptedAnswerID,
		"is_answered":        question.IsAnswered,
		"votes_count":        h.questionScore(question.ID),
		"answers_count":      h.answerCount(question.ID),
		"views_count":        question.ViewsCount,
		"created_at":         question.CreatedAt,
		"updated_at":         question.UpdatedAt,
	}
}

// GetQuestions returns all questions, newest first
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	var questions []models.Question

	if err := h.db.Preload("User").Order("created_at desc").Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var responses []gin.H
	for _, question := range questions {
		responses = append(responses, h.questionResponse(question))
	}

	// If no questions, return empty array not null
	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a single question by ID and counts the view
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")
	var question models.Question

	if err := h.db.Preload("User").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	h.db.Model(&question).Update("views_count", gorm.Expr("views_count + 1"))
	question.ViewsCount++

	c.JSON(http.StatusOK, h.questionResponse(question))
}

// CreateQuestion creates a new question
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	question := models.Question{
		Title:       input.Title,
		Description: input.Description,
		UserID:      userID,
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("User").First(&question, question.ID)
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates a question (owner only)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own questions"})
		return
	}

	if input.Title != "" {
		question.Title = input.Title
	}
	if input.Description != "" {
		question.Description = input.Description
	}
	h.db.Save(&question)
	h.db.Preload("User").First(&question, question.ID)

	c.JSON(http.StatusOK, h.questionResponse(question))
}

// DeleteQuestion deletes a question and everything hanging off it (owner only)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own questions"})
		return
	}

	// Clean up answers, comments and votes on this question too
	var answerIDs []int
	h.db.Model(&models.Answer{}).Where("question_id = ?", question.ID).Pluck("id", &answerIDs)
	if len(answerIDs) > 0 {
		h.db.Where("answer_id IN ?", answerIDs).Delete(&models.Vote{})
		h.db.Where("answer_id IN ?", answerIDs).Delete(&models.Comment{})
		h.db.Where("question_id = ?", question.ID).Delete(&models.Answer{})
	}
	h.db.Where("question_id = ?", question.ID).Delete(&models.Vote{})
	h.db.Where("question_id = ?", question.ID).Delete(&models.Comment{})

	if err := h.db.Delete(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// AcceptAnswer marks an answer as the accepted one (question owner only).
// Accepting the already-accepted answer is a no-op.
func (h *QuestionHandler) AcceptAnswer(c *gin.Context) {
	questionID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.AcceptAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the question owner can accept an answer"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, input.AnswerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}
	if answer.QuestionID != question.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer does not belong to this question"})
		return
	}

	prev := question.AcceptedAnswerID
	if prev != nil && *prev == answer.ID {
		// Already accepted, nothing to do.
		c.JSON(http.StatusOK, gin.H{"message": "Answer already accepted"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if prev != nil {
			if err := tx.Model(&models.Answer{}).Where("id = ?", *prev).Update("is_accepted", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&answer).Update("is_accepted", true).Error; err != nil {
			return err
		}
		return tx.Model(&question).Updates(map[string]interface{}{
			"accepted_answer_id": answer.ID,
			"is_answered":        true,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept answer"})
		return
	}

	accepted := answer.ID
	question.AcceptedAnswerID = &accepted
	h.engine.AnswerAccepted(question, prev)

	c.JSON(http.StatusOK, gin.H{"message": "Answer accepted"})
}
