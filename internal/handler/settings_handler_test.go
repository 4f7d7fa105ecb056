package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

func newSettingsHandler() (*SettingsHandler, *testutil.MockSettingsRepository) {
	settingsRepo := testutil.NewMockSettingsRepository()
	return NewSettingsHandler(service.NewSettingsService(settingsRepo)), settingsRepo
}

func TestGetSettings_Defaults(t *testing.T) {
	e := echo.New()
	handler, _ := newSettingsHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetSettings(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response domain.TelegramSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(response.ReminderDaysBefore) != 3 {
		t.Errorf("Expected 3 default reminder days, got %v", response.ReminderDaysBefore)
	}
	if !response.SendPaymentToAdmin {
		t.Error("Expected sendPaymentToAdmin to default to true")
	}
}

func TestUpdateSettings_ReminderDaysOutOfRange(t *testing.T) {
	e := echo.New()
	handler, _ := newSettingsHandler()

	reqBody := `{"reminderDaysBefore": [7, 45]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.UpdateSettings(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateSettings_PreservesDigestGate(t *testing.T) {
	e := echo.New()
	handler, settingsRepo := newSettingsHandler()

	stored, err := settingsRepo.Get()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	stored.OverdueListLastSentDate = "1402-03-01"

	reqBody := `{"notifyTarget": "chat-77", "overdueListLastSentDate": "1300-01-01"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.UpdateSettings(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response domain.TelegramSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.OverdueListLastSentDate != "1402-03-01" {
		t.Errorf("Expected the digest date to survive, got %q", response.OverdueListLastSentDate)
	}
	if response.NotifyTarget != "chat-77" {
		t.Errorf("Expected notifyTarget 'chat-77', got %q", response.NotifyTarget)
	}
}
