package notifications

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
)

// Sink receives freshly appended notifications for best-effort delivery
// (live push, SMS forwarding). Deliver must not block the caller for long
// and must swallow its own failures.
type Sink interface {
	Deliver(n models.Notification)
}

// Engine derives notifications from content mutations. Handlers invoke it
// right after the primary write succeeds; every rule resolves the content
// owner at that moment, suppresses self-action, and writes at most one
// row. The engine never returns an error: derivation failures are logged
// and dropped so the primary write can never be affected by them.
type Engine struct {
	db    *gorm.DB
	store *Store
	sinks []Sink
}

func NewEngine(db *gorm.DB, sinks ...Sink) *Engine {
	return &Engine{db: db, store: NewStore(db), sinks: sinks}
}

// AnswerCreated notifies the question owner about a new answer.
func (e *Engine) AnswerCreated(answer models.Answer) {
	var question models.Question
	if err := e.db.First(&question, answer.QuestionID).Error; err != nil {
		// Missing parent: silent no-op, never fatal to the answer insert.
		log.Printf("notifications: question %d not found for answer %d: %v", answer.QuestionID, answer.ID, err)
		return
	}
	if question.UserID == answer.UserID {
		return
	}

	qid, aid := question.ID, answer.ID
	e.dispatch(&models.Notification{
		UserID:     question.UserID,
		Type:       models.NotificationAnswer,
		Title:      "New Answer",
		Message:    fmt.Sprintf("Your question %q received a new answer", question.Title),
		QuestionID: &qid,
		AnswerID:   &aid,
	})
}

// AnswerAccepted notifies the owner of the newly accepted answer.
// question must already carry the new AcceptedAnswerID; prev is the value
// it replaced. Re-accepting the same answer is a no-op.
func (e *Engine) AnswerAccepted(question models.Question, prev *int) {
	if question.AcceptedAnswerID == nil {
		return
	}
	if prev != nil && *prev == *question.AcceptedAnswerID {
		return
	}

	var answer models.Answer
	if err := e.db.First(&answer, *question.AcceptedAnswerID).Error; err != nil {
		log.Printf("notifications: accepted answer %d not found on question %d: %v", *question.AcceptedAnswerID, question.ID, err)
		return
	}
	if answer.UserID == question.UserID {
		return
	}

	qid, aid := question.ID, answer.ID
	e.dispatch(&models.Notification{
		UserID:     answer.UserID,
		Type:       models.NotificationAccepted,
		Title:      "Answer Accepted",
		Message:    fmt.Sprintf("Your answer to %q was accepted", question.Title),
		QuestionID: &qid,
		AnswerID:   &aid,
	})
}

// UpvoteCast notifies the owner of an upvoted question or answer.
// Downvotes never reach the engine; a flip from downvote to upvote counts
// as an upvote.
func (e *Engine) UpvoteCast(voterID int, target models.Target) {
	switch target.Kind() {
	case models.TargetQuestion:
		var question models.Question
		if err := e.db.First(&question, target.ID()).Error; err != nil {
			log.Printf("notifications: voted %v not found: %v", target, err)
			return
		}
		if question.UserID == voterID {
			return
		}
		qid := question.ID
		e.dispatch(&models.Notification{
			UserID:     question.UserID,
			Type:       models.NotificationVote,
			Title:      "Upvoted",
			Message:    fmt.Sprintf("Your question %q was upvoted", question.Title),
			QuestionID: &qid,
		})

	case models.TargetAnswer:
		answer, question, ok := e.answerWithQuestion(target.ID())
		if !ok {
			return
		}
		if answer.UserID == voterID {
			return
		}
		qid, aid := question.ID, answer.ID
		e.dispatch(&models.Notification{
			UserID:     answer.UserID,
			Type:       models.NotificationVote,
			Title:      "Upvoted",
			Message:    fmt.Sprintf("Your answer to %q was upvoted", question.Title),
			QuestionID: &qid,
			AnswerID:   &aid,
		})
	}
}

// CommentCreated notifies the owner of the commented question or answer.
func (e *Engine) CommentCreated(comment models.Comment, target models.Target) {
	switch target.Kind() {
	case models.TargetQuestion:
		var question models.Question
		if err := e.db.First(&question, target.ID()).Error; err != nil {
			log.Printf("notifications: commented %v not found: %v", target, err)
			return
		}
		if question.UserID == comment.UserID {
			return
		}
		qid := question.ID
		e.dispatch(&models.Notification{
			UserID:     question.UserID,
			Type:       models.NotificationCommentQuestion,
			Title:      "New Comment",
			Message:    fmt.Sprintf("Your question %q received a new comment", question.Title),
			QuestionID: &qid,
		})

	case models.TargetAnswer:
		answer, question, ok := e.answerWithQuestion(target.ID())
		if !ok {
			return
		}
		if answer.UserID == comment.UserID {
			return
		}
		aid := answer.ID
		e.dispatch(&models.Notification{
			UserID:   answer.UserID,
			Type:     models.NotificationCommentAnswer,
			Title:    "New Comment",
			Message:  fmt.Sprintf("Your answer to %q received a new comment", question.Title),
			AnswerID: &aid,
		})
	}
}

// answerWithQuestion loads an answer and its parent question. The parent
// is only needed for title text, but if either is missing the rule
// becomes a silent no-op.
func (e *Engine) answerWithQuestion(answerID int) (models.Answer, models.Question, bool) {
	var answer models.Answer
	if err := e.db.First(&answer, answerID).Error; err != nil {
		log.Printf("notifications: answer %d not found: %v", answerID, err)
		return models.Answer{}, models.Question{}, false
	}
	var question models.Question
	if err := e.db.First(&question, answer.QuestionID).Error; err != nil {
		log.Printf("notifications: question %d not found for answer %d: %v", answer.QuestionID, answerID, err)
		return models.Answer{}, models.Question{}, false
	}
	return answer, question, true
}

func (e *Engine) dispatch(n *models.Notification) {
	if err := e.store.Append(n); err != nil {
		log.Printf("notifications: failed to append for user %d: %v", n.UserID, err)
		return
	}
	for _, sink := range e.sinks {
		sink.Deliver(*n)
	}
}
