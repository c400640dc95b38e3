package scheduler

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"todo_backend/internal/dispatcher"
	"todo_backend/internal/logger"
	"todo_backend/internal/models"
	"todo_backend/internal/repositories"
	"todo_backend/internal/services/dto"
	"todo_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// In-memory reminder states. The state flag is the single atomic gate that
// decides the fire/cancel race: whichever side wins the compare-and-swap
// owns the transition, the loser backs off.
const (
	stateScheduled int32 = iota
	stateFired
	stateExpired
	stateCancelled
)

type activeReminder struct {
	id    string
	state atomic.Int32

	fireTimer    *time.Timer
	cleanupTimer *time.Timer
}

// Scheduler arms one independent fire timer per reminder, plus an optional
// cleanup timer once a deadline exists. Timers run on their own goroutines;
// firing one reminder never delays another.
//
// Reminders are persisted, so a restart does not silently lose them: see
// Restore. Transitions are guarded twice, by the in-memory atomic state and
// by a conditional UPDATE on the reminders table, so a fire can happen at
// most once even when cancel arrives at the same instant.
type Scheduler struct {
	reminders     repositories.ReminderRepository
	notifications repositories.NotificationRepository
	dispatcher    *dispatcher.Dispatcher

	mu     sync.Mutex
	active map[string]*activeReminder
}

func New(
	reminders repositories.ReminderRepository,
	notifications repositories.NotificationRepository,
	disp *dispatcher.Dispatcher,
) *Scheduler {
	return &Scheduler{
		reminders:     reminders,
		notifications: notifications,
		dispatcher:    disp,
		active:        make(map[string]*activeReminder),
	}
}

// Schedule persists and arms a reminder. A fire time that is not strictly in
// the future returns the ReminderInPast marker; callers treat it as a silent
// skip, not a failure.
func (s *Scheduler) Schedule(userID, taskID, title string, fireAt time.Time, deadline *time.Time) (*models.Reminder, error) {
	if !fireAt.After(time.Now()) {
		return nil, apperrors.ReminderInPast()
	}

	// A deadline at or before the fire time can never clean anything up.
	if deadline != nil && !deadline.After(fireAt) {
		deadline = nil
	}

	reminder := &models.Reminder{
		UserID:   userID,
		TaskID:   taskID,
		Title:    title,
		FireAt:   fireAt,
		Deadline: deadline,
		Status:   models.ReminderStatusScheduled,
	}
	if err := s.reminders.Create(reminder); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "reminders", "Failed to persist reminder", 500)
	}

	s.arm(reminder)
	return reminder, nil
}

// Cancel stops a pending reminder. Cancelling after the fire suppresses the
// cleanup leg but never retracts the already-created notification.
// Unknown or finished reminders are a no-op.
func (s *Scheduler) Cancel(reminderID string) error {
	s.mu.Lock()
	ar := s.active[reminderID]
	s.mu.Unlock()

	if ar == nil {
		// Not armed in this process; flip a persisted scheduled row so a
		// later Restore cannot resurrect it.
		_, err := s.reminders.TransitionStatus(reminderID, models.ReminderStatusScheduled, models.ReminderStatusCancelled)
		return err
	}

	if ar.state.CompareAndSwap(stateScheduled, stateCancelled) {
		s.mu.Lock()
		if ar.fireTimer != nil {
			ar.fireTimer.Stop()
		}
		delete(s.active, reminderID)
		s.mu.Unlock()
		if _, err := s.reminders.TransitionStatus(reminderID, models.ReminderStatusScheduled, models.ReminderStatusCancelled); err != nil {
			return err
		}
		logger.Debug("reminder cancelled before fire", "reminder_id", reminderID)
		return nil
	}

	if ar.state.CompareAndSwap(stateFired, stateCancelled) {
		s.mu.Lock()
		if ar.cleanupTimer != nil {
			ar.cleanupTimer.Stop()
		}
		delete(s.active, reminderID)
		s.mu.Unlock()
		if _, err := s.reminders.TransitionStatus(reminderID, models.ReminderStatusFired, models.ReminderStatusCancelled); err != nil {
			return err
		}
		logger.Debug("reminder cleanup cancelled after fire", "reminder_id", reminderID)
		return nil
	}

	// Already expired or cancelled.
	return nil
}

// Restore re-arms persisted reminders after a restart. Fire times that
// passed while the process was down fire immediately; if the deadline has
// passed too, the reminder expires without materializing a record. Fired
// reminders with a pending deadline get their cleanup leg re-armed.
func (s *Scheduler) Restore() error {
	reminders, err := s.reminders.FindRestorable()
	if err != nil {
		return err
	}

	now := time.Now()
	restored := 0
	for i := range reminders {
		reminder := reminders[i]

		switch reminder.Status {
		case models.ReminderStatusScheduled:
			if reminder.Deadline != nil && !reminder.Deadline.After(now) {
				// Both legs elapsed while down: nothing to show anymore.
				if _, err := s.reminders.TransitionStatus(reminder.ID, models.ReminderStatusScheduled, models.ReminderStatusExpired); err != nil {
					logger.Error("failed to expire stale reminder", "reminder_id", reminder.ID, "error", err)
				}
				continue
			}
			s.arm(&reminder)
			restored++

		case models.ReminderStatusFired:
			ar := s.track(&reminder)
			ar.state.Store(stateFired)
			s.armCleanup(ar, &reminder)
			restored++
		}
	}

	logger.Info("reminder scheduler restored", "armed", restored, "total", len(reminders))
	return nil
}

// Stop silences all pending timers. Persisted state is untouched; the next
// Restore picks the reminders back up.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ar := range s.active {
		if ar.fireTimer != nil {
			ar.fireTimer.Stop()
		}
		if ar.cleanupTimer != nil {
			ar.cleanupTimer.Stop()
		}
	}
	s.active = make(map[string]*activeReminder)
}

func (s *Scheduler) track(reminder *models.Reminder) *activeReminder {
	ar := &activeReminder{id: reminder.ID}
	s.mu.Lock()
	s.active[reminder.ID] = ar
	s.mu.Unlock()
	return ar
}

func (s *Scheduler) remove(reminderID string) {
	s.mu.Lock()
	delete(s.active, reminderID)
	s.mu.Unlock()
}

func (s *Scheduler) arm(reminder *models.Reminder) {
	ar := &activeReminder{id: reminder.ID}
	delay := time.Until(reminder.FireAt)
	if delay < 0 {
		delay = 0
	}
	// Timer fields are only touched under s.mu; the callbacks themselves
	// never read them.
	s.mu.Lock()
	s.active[reminder.ID] = ar
	ar.fireTimer = time.AfterFunc(delay, func() {
		s.fire(ar, reminder)
	})
	s.mu.Unlock()
}

func (s *Scheduler) armCleanup(ar *activeReminder, reminder *models.Reminder) {
	delay := time.Until(*reminder.Deadline)
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	ar.cleanupTimer = time.AfterFunc(delay, func() {
		s.expire(ar, reminder)
	})
	s.mu.Unlock()
}

// fire materializes the notification and announces it. Runs on the timer
// goroutine; the atomic gate plus the conditional status UPDATE make it
// impossible to fire twice or to fire after an observed cancel.
func (s *Scheduler) fire(ar *activeReminder, reminder *models.Reminder) {
	if !ar.state.CompareAndSwap(stateScheduled, stateFired) {
		return
	}

	ok, err := s.reminders.TransitionStatus(reminder.ID, models.ReminderStatusScheduled, models.ReminderStatusFired)
	if err != nil {
		logger.Error("reminder fire: status transition failed", "reminder_id", reminder.ID, "error", err)
		return
	}
	if !ok {
		// Lost the persisted race (cancelled concurrently).
		s.remove(reminder.ID)
		return
	}

	notification := &models.Notification{
		UserID:     reminder.UserID,
		Kind:       models.NotificationKindReminder,
		Message:    "Reminder: " + reminder.Title,
		Payload:    reminderPayload(reminder),
		ReminderID: &reminder.ID,
	}
	if err := s.notifications.Create(notification); err != nil {
		logger.Error("reminder fire: failed to create notification", "reminder_id", reminder.ID, "error", err)
		s.remove(reminder.ID)
		return
	}

	s.dispatcher.Emit(reminder.UserID, dispatcher.EventNotificationCreated,
		dispatcher.CreatedPayload(dto.NewNotificationResponse(notification)))
	s.emitUnreadCount(reminder.UserID)

	logger.Info("reminder fired", "reminder_id", reminder.ID, "user_id", reminder.UserID, "task_id", reminder.TaskID)

	if reminder.Deadline != nil {
		s.armCleanup(ar, reminder)
	} else {
		s.remove(reminder.ID)
	}
}

// expire removes the materialized notification once the deadline passes.
func (s *Scheduler) expire(ar *activeReminder, reminder *models.Reminder) {
	if !ar.state.CompareAndSwap(stateFired, stateExpired) {
		return
	}
	s.remove(reminder.ID)

	ok, err := s.reminders.TransitionStatus(reminder.ID, models.ReminderStatusFired, models.ReminderStatusExpired)
	if err != nil {
		logger.Error("reminder expiry: status transition failed", "reminder_id", reminder.ID, "error", err)
		return
	}
	if !ok {
		return
	}

	notificationID, err := s.notifications.DeleteByReminderID(reminder.ID)
	if err != nil {
		if !apperrors.Is(err, repositories.ErrNotificationNotFound) {
			logger.Error("reminder expiry: failed to delete notification", "reminder_id", reminder.ID, "error", err)
		}
		// Already gone (user deleted it by hand), nothing to announce.
		return
	}

	s.dispatcher.Emit(reminder.UserID, dispatcher.EventNotificationUpdated,
		dispatcher.DeletePayload(notificationID))
	s.emitUnreadCount(reminder.UserID)

	logger.Info("reminder expired", "reminder_id", reminder.ID, "user_id", reminder.UserID)
}

func (s *Scheduler) emitUnreadCount(userID string) {
	count, err := s.notifications.UnreadCount(userID)
	if err != nil {
		logger.Error("failed to recompute unread count", "user_id", userID, "error", err)
		return
	}
	s.dispatcher.Emit(userID, dispatcher.EventNotificationCountChanged, dispatcher.CountPayload(count))
}

func reminderPayload(reminder *models.Reminder) datatypes.JSON {
	payload := map[string]interface{}{
		"task_id": reminder.TaskID,
	}
	if reminder.Deadline != nil {
		payload["deadline"] = reminder.Deadline.Format(time.RFC3339)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
