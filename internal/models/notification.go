package models

import (
	"time"

	"gorm.io/datatypes"
)

// Allowed notification kinds.
const (
	NotificationKindError    = "error"
	NotificationKindSuccess  = "success"
	NotificationKindInfo     = "info"
	NotificationKindReminder = "reminder"
)

// ValidNotificationKind reports whether kind is one of the allowed values.
func ValidNotificationKind(kind string) bool {
	switch kind {
	case NotificationKindError, NotificationKindSuccess, NotificationKindInfo, NotificationKindReminder:
		return true
	}
	return false
}

type Notification struct {
	BaseModel
	UserID  string         `gorm:"not null;index"`
	Kind    string         `gorm:"not null"` // "error", "success", "info", "reminder"
	Message string         `gorm:"not null"`
	Payload datatypes.JSON `gorm:"type:jsonb"` // e.g. {"task_id": "...", "deadline": "..."}
	IsRead  bool           `gorm:"default:false"`
	ReadAt  *time.Time
	// ReminderID links back to the reminder that produced this record.
	// Set only for kind=reminder.
	ReminderID *string `gorm:"index"`
}
