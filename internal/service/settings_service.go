package service

import (
	"strings"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// SettingsService handles the messaging settings singleton
type SettingsService struct {
	settingsRepo domain.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo domain.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// Get returns the current settings
func (s *SettingsService) Get() (*domain.TelegramSettings, error) {
	return s.settingsRepo.Get()
}

// Update replaces the settings with two carve-outs: the overdue digest gate
// is never writable from the panel, and a blank NotifyTarget keeps the
// stored one so saving an unrelated toggle cannot disconnect the admin chat.
func (s *SettingsService) Update(input *domain.TelegramSettings) (*domain.TelegramSettings, error) {
	current, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}

	input.OverdueListLastSentDate = current.OverdueListLastSentDate
	if strings.TrimSpace(input.NotifyTarget) == "" {
		input.NotifyTarget = current.NotifyTarget
	}

	return s.settingsRepo.Save(input)
}

// LinkAdminChat stores the admin chat reached via the bot's /start admin
// deep link as the notify target.
func (s *SettingsService) LinkAdminChat(chatID string) (*domain.TelegramSettings, error) {
	current, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}
	current.NotifyTarget = strings.TrimSpace(chatID)
	return s.settingsRepo.Save(current)
}
