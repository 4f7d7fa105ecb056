package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// ReminderHandler exposes a manual trigger for the reminder sweep
type ReminderHandler struct {
	reminderService *service.ReminderService
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// RunSweep handles POST /api/v1/reminders/sweep
// The sweep is idempotent, so triggering it by hand between scheduled runs
// is safe.
func (h *ReminderHandler) RunSweep(c echo.Context) error {
	h.reminderService.RunSweep(c.Request().Context())

	log.Info().Msg("Reminder sweep triggered manually")

	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}
