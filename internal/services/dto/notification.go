package dto

import (
	"encoding/json"
	"time"

	"todo_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateNotificationRequest struct {
	Kind    string                 `json:"kind" validate:"required,oneof=error success info reminder"`
	Message string                 `json:"message" validate:"required,max=1000"`
	Payload map[string]interface{} `json:"payload"`
}

// ---------------- Responses ----------------

type NotificationResponse struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Kind       string                 `json:"kind"`
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	IsRead     bool                   `json:"is_read"`
	ReadAt     *time.Time             `json:"read_at,omitempty"`
	ReminderID *string                `json:"reminder_id,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	UnreadCount   int64                   `json:"unread_count"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
}

// NewNotificationResponse converts a stored record into its API shape.
func NewNotificationResponse(notification *models.Notification) *NotificationResponse {
	response := &NotificationResponse{
		ID:         notification.ID,
		UserID:     notification.UserID,
		Kind:       notification.Kind,
		Message:    notification.Message,
		IsRead:     notification.IsRead,
		ReadAt:     notification.ReadAt,
		ReminderID: notification.ReminderID,
		CreatedAt:  notification.CreatedAt,
	}

	if len(notification.Payload) > 0 {
		var payload map[string]interface{}
		if err := json.Unmarshal(notification.Payload, &payload); err == nil {
			response.Payload = payload
		}
	}

	return response
}
