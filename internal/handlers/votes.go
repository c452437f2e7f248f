package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
	"github.com/emilythestrangee/devqna/backend/internal/notifications"
)

type VoteHandler struct {
	db     *gorm.DB
	engine *notifications.Engine
}

func NewVoteHandler(db *gorm.DB, engine *notifications.Engine) *VoteHandler {
	return &VoteHandler{db: db, engine: engine}
}

// VoteQuestion casts a vote on a question
func (h *VoteHandler) VoteQuestion(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question id"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	h.vote(c, models.QuestionTarget(question.ID))
}

// VoteAnswer casts a vote on an answer
func (h *VoteHandler) VoteAnswer(c *gin.Context) {
	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer id"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	h.vote(c, models.AnswerTarget(answer.ID))
}

// vote — one vote per user per target, toggles off if same, switches if
// opposite. Upvotes (fresh or flipped from a downvote) notify the content
// owner; downvotes never do.
func (h *VoteHandler) vote(c *gin.Context, target models.Target) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.VoteType != 1 && input.VoteType != -1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vote_type must be 1 or -1"})
		return
	}

	query := h.db.Where("user_id = ?", voterID)
	if target.IsQuestion() {
		query = query.Where("question_id = ?", target.ID())
	} else {
		query = query.Where("answer_id = ?", target.ID())
	}

	var existing models.Vote
	err := query.First(&existing).Error

	if err == nil {
		if existing.VoteType == input.VoteType {
			// Same vote again — toggle off
			h.db.Delete(&existing)
			c.JSON(http.StatusOK, gin.H{"message": "Vote removed"})
			return
		}
		// Opposite vote — switch
		existing.VoteType = input.VoteType
		h.db.Save(&existing)
		if input.VoteType == 1 {
			h.engine.UpvoteCast(voterID, target)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vote updated"})
		return
	}

	// No vote yet — create
	vote := models.Vote{
		UserID:     voterID,
		QuestionID: target.QuestionID(),
		AnswerID:   target.AnswerID(),
		VoteType:   input.VoteType,
	}
	if err := h.db.Create(&vote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		return
	}

	if input.VoteType == 1 {
		h.engine.UpvoteCast(voterID, target)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}
