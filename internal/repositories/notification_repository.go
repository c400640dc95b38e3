package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todo_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
)

// NotificationRepository is the persistence boundary for the per-user inbox.
// It never emits realtime events; that is the service layer's job.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	FindByID(id string) (*models.Notification, error)
	FindByReminderID(reminderID string) (*models.Notification, error)

	// FindUserNotifications returns the owner's records ordered by
	// created_at descending. pageSize <= 0 disables pagination and
	// returns the full inbox.
	FindUserNotifications(userID string, page, pageSize int) ([]models.Notification, int64, error)

	// MarkAsRead is idempotent. Returns ErrNotificationNotFound when the
	// record does not exist or belongs to a different user.
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) (int64, error)

	// Delete returns ErrNotificationNotFound on a missing or foreign id.
	Delete(userID, notificationID string) error
	DeleteUserNotifications(userID string) error
	DeleteByReminderID(reminderID string) (string, error)

	UnreadCount(userID string) (int64, error)
	DeleteReadOlderThan(olderThan time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	if err := r.validate(notification); err != nil {
		return err
	}
	return r.db.Create(notification).Error
}

func (r *notificationRepository) FindByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindByReminderID(reminderID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "reminder_id = ?", reminderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindUserNotifications(userID string, page, pageSize int) ([]models.Notification, int64, error) {
	query := r.db.Where("user_id = ?", userID)

	var total int64
	if err := query.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	var notifications []models.Notification
	err := query.Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) MarkAsRead(userID, notificationID string) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(userID string) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(userID, notificationID string) error {
	result := r.db.Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteUserNotifications(userID string) error {
	// Always succeeds; an empty inbox is a no-op.
	return r.db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error
}

// DeleteByReminderID removes the record a reminder materialized and returns
// its id so the caller can emit a deletion event.
func (r *notificationRepository) DeleteByReminderID(reminderID string) (string, error) {
	notification, err := r.FindByReminderID(reminderID)
	if err != nil {
		return "", err
	}
	result := r.db.Where("id = ?", notification.ID).Delete(&models.Notification{})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrNotificationNotFound
	}
	return notification.ID, nil
}

func (r *notificationRepository) UnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) DeleteReadOlderThan(olderThan time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND created_at < ?", true, olderThan).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) validate(notification *models.Notification) error {
	if notification.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidNotificationData)
	}
	if notification.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidNotificationData)
	}
	if !models.ValidNotificationKind(notification.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidNotificationData, notification.Kind)
	}
	if len(notification.Payload) > 0 && !json.Valid(notification.Payload) {
		return ErrInvalidNotificationData
	}
	return nil
}
