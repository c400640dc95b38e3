package apperrors

import "net/http"

// Domain factories for the notification and reminder domains.
//
// A dispatch miss (emitting to an owner with no live session) is deliberately
// not represented here: it is an expected no-op, logged at debug level by the
// dispatcher, never surfaced as an error.

const (
	domainNotifications = "notifications"
	domainReminders     = "reminders"
)

// NotificationNotFound covers both a missing record and a record owned by a
// different user; callers must not be able to tell the two apart.
func NotificationNotFound() *AppError {
	return New(CodeNotFound, domainNotifications, "Notification not found", http.StatusNotFound)
}

// InvalidNotificationKind rejects a kind outside the allowed set.
func InvalidNotificationKind(kind string) *AppError {
	return New(CodeValidationFailed, domainNotifications, "Invalid notification kind", http.StatusBadRequest).
		WithDetails(map[string]string{"kind": kind})
}

// EmptyNotificationMessage rejects a create with no message text.
func EmptyNotificationMessage() *AppError {
	return New(CodeValidationFailed, domainNotifications, "Notification message must not be empty", http.StatusBadRequest)
}

// ReminderNotFound covers both a missing reminder and a foreign one.
func ReminderNotFound() *AppError {
	return New(CodeNotFound, domainReminders, "Reminder not found", http.StatusNotFound)
}

// ReminderInPast marks a fire time that is not strictly in the future.
// The HTTP layer treats it as a silent skip, not a client error.
func ReminderInPast() *AppError {
	return New(CodeInvalidOperation, domainReminders, "Reminder fire time is in the past", http.StatusOK)
}

// IsReminderInPast reports whether err is the silent-skip marker.
func IsReminderInPast(err error) bool {
	var appErr *AppError
	if !As(err, &appErr) {
		return false
	}
	return appErr.Domain == domainReminders && appErr.Code == CodeInvalidOperation
}
