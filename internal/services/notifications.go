package services

import (
	"context"
	"fmt"

	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"gorm.io/gorm"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService reads and marks a user's own notifications.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the newest notifications of userID first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]notify.View, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification

	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	views := make([]notify.View, 0, len(rows))
	for _, row := range rows {
		views = append(views, notify.NewView(row))
	}
	return views, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags one notification of userID as read. Rows of other users are
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)

	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return notFound("Notification")
	}
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})

	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return notFound("Notification")
	}
	return nil
}
