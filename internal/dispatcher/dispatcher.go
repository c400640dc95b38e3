package dispatcher

import "todo_backend/internal/logger"

// Session is one live realtime connection owned by a user.
type Session interface {
	// Push hands the message to the session's outbound stream. A non-nil
	// error means the session could not take the message; the dispatcher
	// drops it, never retries.
	Push(message any) error
}

// Registry resolves a user to their live sessions. Absence is not an error.
type Registry interface {
	Sessions(ownerID string) []Session
}

// Dispatcher fans events out to a single owner's live sessions. Delivery is
// best-effort, at-most-once: with no live session the event is dropped, and a
// failed push is logged and dropped; the authoritative state lives in the
// store, and clients converge on their next full refetch.
type Dispatcher struct {
	registry Registry
}

func New(registry Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Emit pushes {event, payload} to every live session of ownerID.
// Per-owner ordering is preserved by each session's single outbound stream.
func (d *Dispatcher) Emit(ownerID, event string, payload Payload) {
	sessions := d.registry.Sessions(ownerID)
	if len(sessions) == 0 {
		logger.Debug("dispatch miss: no live session", "owner_id", ownerID, "event", event)
		return
	}

	msg := Envelope{Event: event, Payload: payload}
	for _, session := range sessions {
		if err := session.Push(msg); err != nil {
			logger.Warn("push failed, dropping event",
				"owner_id", ownerID,
				"event", event,
				"error", err,
			)
		}
	}
}
