package syncclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createdEnvelope(t *testing.T, n *Notification) *wireEnvelope {
	t.Helper()

	raw, err := json.Marshal(n)
	require.NoError(t, err)
	return &wireEnvelope{
		Event:   "notificationCreated",
		Payload: wirePayload{Type: "created", Notification: raw},
	}
}

func TestApplyEvent_CreatedIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New("http://localhost", "token")
	n := &Notification{ID: "n1", UserID: "u1", Kind: "info", Message: "hi", CreatedAt: time.Now()}

	env := createdEnvelope(t, n)
	c.applyEvent(env)
	c.applyEvent(env)

	assert.Len(t, c.Snapshot(), 1)
	assert.Equal(t, int64(1), c.UnreadCount())
}

func TestApplyEvent_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New("http://localhost", "token")
	c.applyEvent(createdEnvelope(t, &Notification{ID: "n1", Kind: "info", Message: "hi"}))

	env := &wireEnvelope{
		Event:   "notificationUpdated",
		Payload: wirePayload{Type: "delete", NotificationID: "n1"},
	}
	c.applyEvent(env)
	c.applyEvent(env)

	assert.Empty(t, c.Snapshot())
	assert.Zero(t, c.UnreadCount())
}

func TestApplyEvent_MarkAllReadAfterLocalApply(t *testing.T) {
	t.Parallel()

	c := New("http://localhost", "token")
	c.applyEvent(createdEnvelope(t, &Notification{ID: "n1", Kind: "info", Message: "a"}))
	c.applyEvent(createdEnvelope(t, &Notification{ID: "n2", Kind: "info", Message: "b"}))

	// Local optimistic apply happened first; the pushed event must not
	// change the outcome.
	c.mu.Lock()
	for _, n := range c.records {
		n.IsRead = true
	}
	c.unread = 0
	c.mu.Unlock()

	c.applyEvent(&wireEnvelope{
		Event:   "notificationUpdated",
		Payload: wirePayload{Type: "markAllRead"},
	})

	assert.Zero(t, c.UnreadCount())
	for _, n := range c.Snapshot() {
		assert.True(t, n.IsRead)
	}
}

func TestApplyEvent_CountChangedAdoptsServerCount(t *testing.T) {
	t.Parallel()

	c := New("http://localhost", "token")
	c.applyEvent(createdEnvelope(t, &Notification{ID: "n1", Kind: "info", Message: "a"}))
	require.Equal(t, int64(1), c.UnreadCount())

	count := int64(5)
	c.applyEvent(&wireEnvelope{
		Event:   "notificationCountChanged",
		Payload: wirePayload{Type: "countChanged", Count: &count},
	})

	assert.Equal(t, int64(5), c.UnreadCount(), "the server count wins over the local counter")
}

func TestApplyEvent_UnknownTypeIsNoop(t *testing.T) {
	t.Parallel()

	c := New("http://localhost", "token")
	c.applyEvent(createdEnvelope(t, &Notification{ID: "n1", Kind: "info", Message: "a"}))

	c.applyEvent(&wireEnvelope{
		Event:   "notificationUpdated",
		Payload: wirePayload{Type: "somethingNew", NotificationID: "n1"},
	})

	assert.Len(t, c.Snapshot(), 1)
	assert.Equal(t, int64(1), c.UnreadCount())
}
