package dispatcher

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	pushed  []any
	pushErr error
}

func (s *fakeSession) Push(message any) error {
	if s.pushErr != nil {
		return s.pushErr
	}
	s.pushed = append(s.pushed, message)
	return nil
}

type fakeRegistry struct {
	sessions map[string][]Session
}

func (r *fakeRegistry) Sessions(ownerID string) []Session {
	return r.sessions[ownerID]
}

func TestDispatcher_EmitDeliversToLiveSession(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	d := New(&fakeRegistry{sessions: map[string][]Session{"u1": {session}}})

	d.Emit("u1", EventNotificationCreated, DeletePayload("n1"))

	require.Len(t, session.pushed, 1)
	env, ok := session.pushed[0].(Envelope)
	require.True(t, ok)
	assert.Equal(t, EventNotificationCreated, env.Event)
	assert.Equal(t, "n1", env.Payload.NotificationID)
}

func TestDispatcher_EmitFansOutToAllSessions(t *testing.T) {
	t.Parallel()

	s1, s2 := &fakeSession{}, &fakeSession{}
	d := New(&fakeRegistry{sessions: map[string][]Session{"u1": {s1, s2}}})

	d.Emit("u1", EventNotificationCountChanged, CountPayload(3))

	assert.Len(t, s1.pushed, 1)
	assert.Len(t, s2.pushed, 1)
}

func TestDispatcher_EmitMissIsSilent(t *testing.T) {
	t.Parallel()

	d := New(&fakeRegistry{sessions: map[string][]Session{}})

	// No session registered: the event is dropped without error or panic.
	assert.NotPanics(t, func() {
		d.Emit("nobody", EventNotificationCreated, MarkAllReadPayload())
	})
}

func TestDispatcher_PushFailureIsDroppedNotRetried(t *testing.T) {
	t.Parallel()

	failing := &fakeSession{pushErr: errors.New("socket write failed")}
	healthy := &fakeSession{}
	d := New(&fakeRegistry{sessions: map[string][]Session{"u1": {failing, healthy}}})

	d.Emit("u1", EventNotificationUpdated, ClearAllPayload())

	// The failed push does not block delivery to the healthy session.
	assert.Empty(t, failing.pushed)
	assert.Len(t, healthy.pushed, 1)
}

func TestEnvelopeWireFormat(t *testing.T) {
	t.Parallel()

	data := []byte(`{"event":"notificationUpdated","payload":{"type":"delete","notification_id":"n1"}}`)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, EventNotificationUpdated, env.Event)
	assert.Equal(t, ChangeDelete, env.Payload.Type)
	assert.Equal(t, "n1", env.Payload.NotificationID)
}
