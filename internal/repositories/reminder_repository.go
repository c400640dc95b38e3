package repositories

import (
	"errors"

	"todo_backend/internal/models"

	"gorm.io/gorm"
)

var ErrReminderNotFound = errors.New("reminder not found")

type ReminderRepository interface {
	Create(reminder *models.Reminder) error
	FindByID(id string) (*models.Reminder, error)

	// FindUserScheduled returns the owner's still-pending reminders.
	FindUserScheduled(userID string) ([]models.Reminder, error)

	// FindRestorable returns every reminder with work left to do after a
	// process restart: scheduled ones, and fired ones that still carry a
	// cleanup deadline.
	FindRestorable() ([]models.Reminder, error)

	// TransitionStatus atomically moves a reminder from one status to
	// another. Returns false when the reminder was not in the expected
	// status, which is how concurrent fire/cancel races are decided.
	TransitionStatus(id string, from, to models.ReminderStatus) (bool, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(reminder *models.Reminder) error {
	if reminder.Status == "" {
		reminder.Status = models.ReminderStatusScheduled
	}
	return r.db.Create(reminder).Error
}

func (r *reminderRepository) FindByID(id string) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.First(&reminder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) FindUserScheduled(userID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.ReminderStatusScheduled).
		Order("fire_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) FindRestorable() ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.
		Where("status = ? OR (status = ? AND deadline IS NOT NULL)",
			models.ReminderStatusScheduled, models.ReminderStatusFired).
		Order("fire_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) TransitionStatus(id string, from, to models.ReminderStatus) (bool, error) {
	result := r.db.Model(&models.Reminder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
