package dispatcher

// Event types pushed to live sessions.
const (
	EventNotificationCreated      = "notificationCreated"
	EventNotificationUpdated      = "notificationUpdated"
	EventNotificationCountChanged = "notificationCountChanged"
)

// Change reasons carried inside the payload. Consumers must treat unknown
// values as a no-op so new reasons can be added without breaking old clients.
const (
	ChangeCreated      = "created"
	ChangeDelete       = "delete"
	ChangeMarkAllRead  = "markAllRead"
	ChangeClearAll     = "clearAll"
	ChangeCountChanged = "countChanged"
)

// Payload is the wire payload of a reconciliation event.
type Payload struct {
	Type           string      `json:"type"`
	NotificationID string      `json:"notification_id,omitempty"`
	Count          *int64      `json:"count,omitempty"`
	Notification   interface{} `json:"notification,omitempty"`
}

// Envelope wraps an event type and its payload for the wire.
type Envelope struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

// CreatedPayload announces a freshly created record.
func CreatedPayload(notification interface{}) Payload {
	return Payload{Type: ChangeCreated, Notification: notification}
}

// DeletePayload announces removal of a single record.
func DeletePayload(notificationID string) Payload {
	return Payload{Type: ChangeDelete, NotificationID: notificationID}
}

// MarkAllReadPayload announces that the whole inbox was marked read.
func MarkAllReadPayload() Payload {
	return Payload{Type: ChangeMarkAllRead}
}

// ClearAllPayload announces that the whole inbox was cleared.
func ClearAllPayload() Payload {
	return Payload{Type: ChangeClearAll}
}

// CountPayload carries the authoritative unread count.
func CountPayload(count int64) Payload {
	return Payload{Type: ChangeCountChanged, Count: &count}
}
