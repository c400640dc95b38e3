package models

import "time"

type ReminderStatus string

// Reminder lifecycle: scheduled -> fired -> expired (when a deadline is set).
// A scheduled reminder may instead be cancelled; cancelling after the fire
// only suppresses the cleanup leg.
const (
	ReminderStatusScheduled ReminderStatus = "scheduled"
	ReminderStatusFired     ReminderStatus = "fired"
	ReminderStatusExpired   ReminderStatus = "expired"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

type Reminder struct {
	BaseModel
	UserID string    `gorm:"not null;index"`
	TaskID string    `gorm:"not null"`
	Title  string    `gorm:"not null"`
	FireAt time.Time `gorm:"not null"`
	// Deadline, when set, schedules removal of the produced notification.
	Deadline *time.Time
	Status   ReminderStatus `gorm:"not null;default:scheduled;index"`
}
