package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	NotificationHandler *NotificationHandler
	ReminderHandler     *ReminderHandler
}
