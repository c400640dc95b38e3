package services

import (
	"todo_backend/internal/repositories"
	"todo_backend/internal/scheduler"
	"todo_backend/internal/services/dto"
	"todo_backend/pkg/apperrors"
)

type ReminderService interface {
	// Schedule arms a reminder. A fire time already in the past is not an
	// error: the response reports Scheduled=false and nothing happens.
	Schedule(userID string, req *dto.ScheduleReminderRequest) (*dto.ScheduleReminderResponse, error)

	// Cancel is a no-op for unknown, foreign, or already-finished reminders.
	Cancel(userID, reminderID string) error

	ListScheduled(userID string) ([]*dto.ReminderResponse, error)
}

type reminderService struct {
	reminderRepo repositories.ReminderRepository
	scheduler    *scheduler.Scheduler
}

func NewReminderService(
	reminderRepo repositories.ReminderRepository,
	sched *scheduler.Scheduler,
) ReminderService {
	return &reminderService{
		reminderRepo: reminderRepo,
		scheduler:    sched,
	}
}

func (s *reminderService) Schedule(userID string, req *dto.ScheduleReminderRequest) (*dto.ScheduleReminderResponse, error) {
	reminder, err := s.scheduler.Schedule(userID, req.TaskID, req.Title, req.FireAt, req.Deadline)
	if err != nil {
		if apperrors.IsReminderInPast(err) {
			// A past fire time is skipped, not rejected.
			return &dto.ScheduleReminderResponse{Scheduled: false}, nil
		}
		return nil, err
	}

	return &dto.ScheduleReminderResponse{
		Scheduled: true,
		Reminder:  dto.NewReminderResponse(reminder),
	}, nil
}

func (s *reminderService) Cancel(userID, reminderID string) error {
	reminder, err := s.reminderRepo.FindByID(reminderID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrReminderNotFound) {
			// Already gone: treat like an unknown reminder.
			return nil
		}
		return apperrors.InternalError(err)
	}
	if reminder.UserID != userID {
		// A foreign reminder looks exactly like an unknown one.
		return nil
	}

	return s.scheduler.Cancel(reminderID)
}

func (s *reminderService) ListScheduled(userID string) ([]*dto.ReminderResponse, error) {
	reminders, err := s.reminderRepo.FindUserScheduled(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.ReminderResponse, 0, len(reminders))
	for i := range reminders {
		responses = append(responses, dto.NewReminderResponse(&reminders[i]))
	}
	return responses, nil
}
