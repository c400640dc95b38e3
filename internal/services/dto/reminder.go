package dto

import (
	"time"

	"todo_backend/internal/models"
)

// ---------------- Requests ----------------

type ScheduleReminderRequest struct {
	TaskID string `json:"task_id" validate:"required"`
	Title  string `json:"title" validate:"required,max=200"`
	// FireAt must be strictly in the future; a past value is silently
	// skipped rather than rejected.
	FireAt time.Time `json:"fire_at" validate:"required"`
	// Deadline, when set and after FireAt, removes the produced
	// notification at that time.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ---------------- Responses ----------------

type ReminderResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TaskID    string     `json:"task_id"`
	Title     string     `json:"title"`
	FireAt    time.Time  `json:"fire_at"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ScheduleReminderResponse reports whether the reminder was actually armed.
// Scheduled=false with no reminder means the fire time had already passed.
type ScheduleReminderResponse struct {
	Scheduled bool              `json:"scheduled"`
	Reminder  *ReminderResponse `json:"reminder,omitempty"`
}

func NewReminderResponse(reminder *models.Reminder) *ReminderResponse {
	return &ReminderResponse{
		ID:        reminder.ID,
		UserID:    reminder.UserID,
		TaskID:    reminder.TaskID,
		Title:     reminder.Title,
		FireAt:    reminder.FireAt,
		Deadline:  reminder.Deadline,
		Status:    string(reminder.Status),
		CreatedAt: reminder.CreatedAt,
	}
}
