package handlers

import (
	"net/http"

	"todo_backend/internal/services"
	"todo_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	*BaseHandler
	reminderService services.ReminderService
}

func NewReminderHandler(base *BaseHandler, reminderService services.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		BaseHandler:     base,
		reminderService: reminderService,
	}
}

func (h *ReminderHandler) RegisterRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.POST("", h.ScheduleReminder)
		reminders.GET("", h.GetScheduledReminders)
		reminders.DELETE("/:reminderId", h.CancelReminder)
	}
}

func (h *ReminderHandler) ScheduleReminder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ScheduleReminderRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	// A fire time already in the past is not an error: the response
	// reports scheduled=false and nothing is stored.
	response, err := h.reminderService.Schedule(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if !response.Scheduled {
		status = http.StatusOK
	}
	c.JSON(status, response)
}

func (h *ReminderHandler) GetScheduledReminders(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	reminders, err := h.reminderService.ListScheduled(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
		"total":     len(reminders),
	})
}

func (h *ReminderHandler) CancelReminder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	reminderID := c.Param("reminderId")

	// Cancelling an unknown or already finished reminder is a no-op.
	if err := h.reminderService.Cancel(userID, reminderID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder cancelled"})
}
