package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// SettingsHandler handles messaging settings HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.Get()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings")
		return NewInternalError(c, "Failed to load settings")
	}

	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req domain.TelegramSettings
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	for _, day := range req.ReminderDaysBefore {
		if day < 1 || day > 30 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "reminderDaysBefore", Message: "Days must be between 1 and 30"},
			})
		}
	}

	settings, err := h.settingsService.Update(&req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update settings")
		return NewInternalError(c, "Failed to update settings")
	}

	log.Info().Msg("Settings updated")

	return c.JSON(http.StatusOK, settings)
}
