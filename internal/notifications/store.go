package notifications

import (
	"errors"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
)

// Store persists notifications and their read/unread state.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append persists a new notification with read=false.
func (s *Store) Append(n *models.Notification) error {
	if n.UserID == 0 {
		return &ValidationError{Reason: "missing recipient"}
	}
	if n.Type == "" {
		return &ValidationError{Reason: "missing type"}
	}

	// Comment notifications must point at exactly one piece of content.
	if n.Type == models.NotificationCommentQuestion || n.Type == models.NotificationCommentAnswer {
		hasQuestion := n.QuestionID != nil
		hasAnswer := n.AnswerID != nil
		if hasQuestion == hasAnswer {
			return &ValidationError{Reason: "comment notification must reference exactly one of question or answer"}
		}
	}

	n.Read = false
	return s.db.Create(n).Error
}

// ListForUser returns the most recent notifications for a user, newest
// first, ties broken by insertion order.
func (s *Store) ListForUser(userID, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	q := s.db.Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifs).Error; err != nil {
		return nil, err
	}
	return notifs, nil
}

// Get fetches a single notification by id.
func (s *Store) Get(id int) (models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Notification{}, ErrNotFound
		}
		return models.Notification{}, err
	}
	return n, nil
}

// MarkRead transitions a notification to read. Idempotent: marking an
// already-read notification is a no-op, not an error.
func (s *Store) MarkRead(id int) error {
	var n models.Notification
	if err := s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if n.Read {
		return nil
	}
	return s.db.Model(&n).Update("read", true).Error
}

// MarkAllRead transitions every unread notification for a user. Idempotent.
func (s *Store) MarkAllRead(userID int) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

// UnreadCount counts unread notifications with an aggregate query, never
// a stored counter, so concurrent appenders need no coordination.
func (s *Store) UnreadCount(userID int) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
