package repositories

import (
	"testing"
	"time"

	"todo_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReminder(t *testing.T, repo ReminderRepository, userID string, status models.ReminderStatus, deadline *time.Time) *models.Reminder {
	t.Helper()

	reminder := &models.Reminder{
		UserID:   userID,
		TaskID:   "task-1",
		Title:    "buy milk",
		FireAt:   time.Now().Add(time.Hour),
		Deadline: deadline,
		Status:   status,
	}
	require.NoError(t, repo.Create(reminder))
	return reminder
}

func TestReminderRepository_CreateDefaultsToScheduled(t *testing.T) {
	t.Parallel()

	repo := NewReminderRepository(newTestDB(t))
	reminder := &models.Reminder{
		UserID: "u1",
		TaskID: "task-1",
		Title:  "buy milk",
		FireAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(reminder))

	found, err := repo.FindByID(reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusScheduled, found.Status)
}

func TestReminderRepository_FindByIDNotFound(t *testing.T) {
	t.Parallel()

	repo := NewReminderRepository(newTestDB(t))
	_, err := repo.FindByID("missing")
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestReminderRepository_TransitionStatus(t *testing.T) {
	t.Parallel()

	repo := NewReminderRepository(newTestDB(t))
	reminder := createReminder(t, repo, "u1", models.ReminderStatusScheduled, nil)

	ok, err := repo.TransitionStatus(reminder.ID, models.ReminderStatusScheduled, models.ReminderStatusFired)
	require.NoError(t, err)
	assert.True(t, ok)

	// The losing side of a race sees false, not an error.
	ok, err = repo.TransitionStatus(reminder.ID, models.ReminderStatusScheduled, models.ReminderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusFired, found.Status)
}

func TestReminderRepository_FindUserScheduled(t *testing.T) {
	t.Parallel()

	repo := NewReminderRepository(newTestDB(t))
	scheduled := createReminder(t, repo, "u1", models.ReminderStatusScheduled, nil)
	createReminder(t, repo, "u1", models.ReminderStatusFired, nil)
	createReminder(t, repo, "u2", models.ReminderStatusScheduled, nil)

	list, err := repo.FindUserScheduled("u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, scheduled.ID, list[0].ID)
}

func TestReminderRepository_FindRestorable(t *testing.T) {
	t.Parallel()

	repo := NewReminderRepository(newTestDB(t))
	deadline := time.Now().Add(2 * time.Hour)

	scheduled := createReminder(t, repo, "u1", models.ReminderStatusScheduled, nil)
	firedWithDeadline := createReminder(t, repo, "u1", models.ReminderStatusFired, &deadline)
	createReminder(t, repo, "u1", models.ReminderStatusFired, nil)
	createReminder(t, repo, "u1", models.ReminderStatusExpired, &deadline)
	createReminder(t, repo, "u1", models.ReminderStatusCancelled, nil)

	list, err := repo.FindRestorable()
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{scheduled.ID, firedWithDeadline.ID}, ids)
}
