package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndResolve(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	client := NewClient(hub, "u1", nil)
	hub.Register(client)

	sessions := hub.Sessions("u1")
	require.Len(t, sessions, 1)
	assert.Nil(t, hub.Sessions("u2"), "absence is not an error")
}

func TestHub_MultipleSessionsPerUser(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	tab1 := NewClient(hub, "u1", nil)
	tab2 := NewClient(hub, "u1", nil)
	hub.Register(tab1)
	hub.Register(tab2)

	assert.Len(t, hub.Sessions("u1"), 2)

	hub.Unregister(tab1)
	assert.Len(t, hub.Sessions("u1"), 1)
}

func TestHub_StaleDisconnectDoesNotEvictFreshSession(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	stale := NewClient(hub, "u1", nil)
	hub.Register(stale)
	hub.Unregister(stale)

	fresh := NewClient(hub, "u1", nil)
	hub.Register(fresh)

	// The old session's disconnect arrives late; the fresh session stays.
	hub.Unregister(stale)
	assert.Len(t, hub.Sessions("u1"), 1)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	client := NewClient(hub, "u1", nil)
	hub.Register(client)
	hub.Unregister(client)

	_, open := <-client.Send
	assert.False(t, open)
	assert.Nil(t, hub.Sessions("u1"))
}

func TestHub_PushAfterUnregisterIsDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	client := NewClient(hub, "u1", nil)
	hub.Register(client)

	// A dispatcher snapshots the session list, then the client disconnects
	// before the push lands. The push must fail cleanly, not panic.
	sessions := hub.Sessions("u1")
	require.Len(t, sessions, 1)
	hub.Unregister(client)

	var err error
	require.NotPanics(t, func() {
		err = sessions[0].Push("event")
	})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestHub_PushConcurrentWithUnregister(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		hub := NewHub()
		client := NewClient(hub, "u1", nil)
		hub.Register(client)
		sessions := hub.Sessions("u1")
		require.Len(t, sessions, 1)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = sessions[0].Push("event")
		}()
		hub.Unregister(client)
		<-done
	}
}

func TestHub_PushAfterBufferFull(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	client := NewClient(hub, "u1", nil)
	hub.Register(client)

	// Nothing drains Send here, so the buffer eventually fills and Push
	// starts reporting failure instead of blocking.
	var err error
	for i := 0; i < sendBufferSize+1; i++ {
		err = client.Push("event")
	}
	assert.ErrorIs(t, err, ErrSendBufferFull)
}

func TestHub_StopClosesAllSessions(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, "u1", nil)
	hub.register <- client

	require.Eventually(t, func() bool {
		return len(hub.Sessions("u1")) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Stop()
	_, open := <-client.Send
	assert.False(t, open)
}
