package services

import (
	"encoding/json"

	"todo_backend/internal/dispatcher"
	"todo_backend/internal/models"
	"todo_backend/internal/repositories"
	"todo_backend/internal/services/dto"
	"todo_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// NotificationService owns the inbox operations. The repository stays a pure
// persistence boundary; every reconciliation event a mutation produces is
// emitted here, after the store mutation succeeded, so connected sessions
// (including the originator's) converge without polling.
type NotificationService interface {
	Create(userID string, req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	List(userID string, page, pageSize int) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) (int64, error)
	Delete(userID, notificationID string) error
	DeleteAll(userID string) error
	UnreadCount(userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	dispatcher       *dispatcher.Dispatcher
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	disp *dispatcher.Dispatcher,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		dispatcher:       disp,
	}
}

func (s *notificationService) Create(userID string, req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	if req.Message == "" {
		return nil, apperrors.EmptyNotificationMessage()
	}
	if !models.ValidNotificationKind(req.Kind) {
		return nil, apperrors.InvalidNotificationKind(req.Kind)
	}

	var payloadJSON datatypes.JSON
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, apperrors.ValidationError(map[string]string{"payload": "not serializable"})
		}
		payloadJSON = datatypes.JSON(data)
	}

	notification := &models.Notification{
		UserID:  userID,
		Kind:    req.Kind,
		Message: req.Message,
		Payload: payloadJSON,
		IsRead:  false,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, apperrors.InternalError(err)
	}

	response := dto.NewNotificationResponse(notification)
	s.dispatcher.Emit(userID, dispatcher.EventNotificationCreated, dispatcher.CreatedPayload(response))
	s.emitUnreadCount(userID)

	return response, nil
}

func (s *notificationService) List(userID string, page, pageSize int) (*dto.NotificationListResponse, error) {
	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unread, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, dto.NewNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	if err := s.notificationRepo.MarkAsRead(userID, notificationID); err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NotificationNotFound()
		}
		return apperrors.InternalError(err)
	}

	s.emitUnreadCount(userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(userID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	s.dispatcher.Emit(userID, dispatcher.EventNotificationUpdated, dispatcher.MarkAllReadPayload())
	s.emitUnreadCount(userID)
	return updated, nil
}

func (s *notificationService) Delete(userID, notificationID string) error {
	if err := s.notificationRepo.Delete(userID, notificationID); err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NotificationNotFound()
		}
		return apperrors.InternalError(err)
	}

	s.dispatcher.Emit(userID, dispatcher.EventNotificationUpdated, dispatcher.DeletePayload(notificationID))
	s.emitUnreadCount(userID)
	return nil
}

func (s *notificationService) DeleteAll(userID string) error {
	if err := s.notificationRepo.DeleteUserNotifications(userID); err != nil {
		return apperrors.InternalError(err)
	}

	s.dispatcher.Emit(userID, dispatcher.EventNotificationUpdated, dispatcher.ClearAllPayload())
	s.emitUnreadCount(userID)
	return nil
}

func (s *notificationService) UnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

// emitUnreadCount recomputes the badge count from the record set (the count
// is never tracked as separate state) and pushes it to live sessions.
func (s *notificationService) emitUnreadCount(userID string) {
	count, err := s.notificationRepo.UnreadCount(userID)
	if err != nil {
		return
	}
	s.dispatcher.Emit(userID, dispatcher.EventNotificationCountChanged, dispatcher.CountPayload(count))
}
