package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/telegram"
)

// TelegramHandler handles Telegram connectivity HTTP requests
type TelegramHandler struct {
	client       *telegram.Client
	notifyTarget string
}

// NewTelegramHandler creates a new TelegramHandler. A nil client means the
// bot token is not configured.
func NewTelegramHandler(client *telegram.Client, notifyTarget string) *TelegramHandler {
	return &TelegramHandler{client: client, notifyTarget: strings.TrimSpace(notifyTarget)}
}

// TelegramCheckResponse reports the outcome of a connectivity probe
type TelegramCheckResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	Username  string `json:"username,omitempty"`
}

// CheckTelegram handles GET /api/v1/telegram/check. It probes the Bot API
// with getMe and, when a notify chat is configured, pushes a confirmation
// message there so the admin sees the link working end to end.
func (h *TelegramHandler) CheckTelegram(c echo.Context) error {
	if h.client == nil {
		return c.JSON(http.StatusOK, TelegramCheckResponse{
			Connected: false,
			Message:   "توکن ربات در سرور تنظیم نشده است.",
		})
	}

	ctx := c.Request().Context()
	me, err := h.client.GetMe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram connectivity check failed")
		return c.JSON(http.StatusOK, TelegramCheckResponse{
			Connected: false,
			Message:   "خطا در ارتباط با سرور تلگرام: " + err.Error(),
		})
	}

	if h.notifyTarget != "" {
		text := "✅ ارتباط با موفقیت برقرار شد.\n(از دکمه «بررسی ارتباط» در پنل ادمین)"
		if err := h.client.SendMessage(ctx, h.notifyTarget, text); err != nil {
			log.Warn().Err(err).Str("target", h.notifyTarget).Msg("Failed to send check confirmation")
		}
	}

	return c.JSON(http.StatusOK, TelegramCheckResponse{
		Connected: true,
		Message:   "ارتباط با تلگرام برقرار است.",
		Username:  me.Username,
	})
}
