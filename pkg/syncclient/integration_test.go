package syncclient

import (
	"net/http/httptest"
	"testing"
	"time"

	"todo_backend/internal/app"
	"todo_backend/internal/auth"
	"todo_backend/internal/config"
	"todo_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "sync-test-secret"
	cfg.JWT.TTL = 60
	cfg.Scheduler.DisableRestore = true
	config.AppConfig = cfg

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}, &models.Reminder{}))

	server := httptest.NewServer(app.SetupRouter(cfg, db))
	t.Cleanup(server.Close)
	return server
}

func loginClient(t *testing.T, server *httptest.Server, userID string) *Client {
	t.Helper()

	token, err := auth.GenerateToken(userID)
	require.NoError(t, err)
	return New(server.URL, token)
}

func TestClient_OptimisticMutationCommits(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "u1")

	created, err := client.CreateNotification("info", "Task X due", map[string]interface{}{"task_id": "42"})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, client.State())
	assert.Equal(t, int64(1), client.UnreadCount())

	require.NoError(t, client.MarkRead(created.ID))
	assert.Equal(t, StateCommitted, client.State())
	assert.Zero(t, client.UnreadCount())

	// The server agrees after a fresh fetch.
	require.NoError(t, client.Refresh())
	assert.Zero(t, client.UnreadCount())
	records := client.Snapshot()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsRead)
}

func TestClient_FailedMutationRollsBackByRefetch(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "u1")

	_, err := client.CreateNotification("info", "keep me", nil)
	require.NoError(t, err)

	// Deleting an unknown id fails server-side with 404. The optimistic
	// apply touched nothing locally, but the client still refetches.
	err = client.Delete("missing")
	require.Error(t, err)
	assert.Equal(t, StateRolledBack, client.State())

	assert.Len(t, client.Snapshot(), 1)
	assert.Equal(t, int64(1), client.UnreadCount())
}

func TestClient_RollbackRevertsOptimisticChange(t *testing.T) {
	server := newTestServer(t)
	writer := loginClient(t, server, "u1")
	reader := loginClient(t, server, "u1")

	created, err := writer.CreateNotification("info", "contested", nil)
	require.NoError(t, err)

	require.NoError(t, reader.Refresh())
	require.Equal(t, int64(1), reader.UnreadCount())

	// The writer deletes the record; the reader's next mutation on it is
	// optimistic, fails, and converges back to the server state.
	require.NoError(t, writer.Delete(created.ID))

	err = reader.MarkRead(created.ID)
	require.Error(t, err)
	assert.Equal(t, StateRolledBack, reader.State())
	assert.Empty(t, reader.Snapshot())
	assert.Zero(t, reader.UnreadCount())
}

func TestClient_PushedEventsReachConnectedSession(t *testing.T) {
	server := newTestServer(t)
	writer := loginClient(t, server, "u1")
	watcher := loginClient(t, server, "u1")

	require.NoError(t, watcher.Connect())
	defer watcher.Close()

	created, err := writer.CreateNotification("success", "pushed", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(watcher.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond, "created event never arrived")
	assert.Equal(t, int64(1), watcher.UnreadCount())

	require.NoError(t, writer.MarkRead(created.ID))
	require.Eventually(t, func() bool {
		return watcher.UnreadCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "count change never arrived")
}

func TestClient_EventsAreIdempotentAgainstOptimisticState(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "u1")

	_, err := client.CreateNotification("info", "a", nil)
	require.NoError(t, err)
	_, err = client.CreateNotification("info", "b", nil)
	require.NoError(t, err)

	require.NoError(t, client.Connect())
	defer client.Close()

	// The client applies markAllRead optimistically, then receives the
	// server's push for its own mutation; applying it twice must not
	// disturb the converged state.
	require.NoError(t, client.MarkAllRead())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, client.UnreadCount())
	for _, n := range client.Snapshot() {
		assert.True(t, n.IsRead)
	}
}

func TestClient_CrossTenantIsolation(t *testing.T) {
	server := newTestServer(t)
	alice := loginClient(t, server, "u1")
	bob := loginClient(t, server, "u2")

	_, err := alice.CreateNotification("info", "alice only", nil)
	require.NoError(t, err)

	require.NoError(t, bob.Refresh())
	assert.Empty(t, bob.Snapshot())
	assert.Zero(t, bob.UnreadCount())
}

func TestClient_SetReminderRoundTrip(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "u1")
	require.NoError(t, client.Connect())
	defer client.Close()

	result, err := client.SetReminder(&ScheduleReminderRequest{
		TaskID: "task-7",
		Title:  "ship it",
		FireAt: time.Now().Add(20 * time.Millisecond),
	})
	require.NoError(t, err)
	assert.True(t, result.Scheduled)

	require.Eventually(t, func() bool {
		return len(client.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond, "reminder notification never arrived")

	records := client.Snapshot()
	assert.Equal(t, "reminder", records[0].Kind)
	assert.Equal(t, "Reminder: ship it", records[0].Message)
}

func TestClient_SetReminderInPastIsSkipped(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "u1")

	result, err := client.SetReminder(&ScheduleReminderRequest{
		TaskID: "task-7",
		Title:  "too late",
		FireAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err, "a past fire time is a silent skip, not an error")
	assert.False(t, result.Scheduled)

	require.NoError(t, client.Refresh())
	assert.Empty(t, client.Snapshot())
}

func TestClient_UnauthorizedRequestFails(t *testing.T) {
	server := newTestServer(t)
	client := New(server.URL, "not-a-token")

	err := client.Refresh()
	require.Error(t, err)
}
