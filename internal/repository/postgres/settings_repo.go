package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
)

// SettingsRepository implements domain.SettingsRepository using PostgreSQL.
// The settings singleton is one jsonb row, so panel-added fields never need
// a migration.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the stored settings, or defaults when no row exists yet.
func (r *SettingsRepository) Get() (*domain.TelegramSettings, error) {
	var data []byte
	err := r.pool.QueryRow(context.Background(),
		`SELECT data FROM telegram_settings WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultTelegramSettings(), nil
		}
		return nil, err
	}

	settings := domain.DefaultTelegramSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save stores the settings, creating the singleton row on first save.
func (r *SettingsRepository) Save(settings *domain.TelegramSettings) (*domain.TelegramSettings, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	_, err = r.pool.Exec(context.Background(), `
		INSERT INTO telegram_settings (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		data)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// SetOverdueListLastSentDate updates only the digest gate, leaving the rest
// of the settings untouched.
func (r *SettingsRepository) SetOverdueListLastSentDate(date string) error {
	encoded, err := json.Marshal(date)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(context.Background(), `
		INSERT INTO telegram_settings (id, data)
		VALUES (1, jsonb_build_object('overdueListLastSentDate', $1::text))
		ON CONFLICT (id) DO UPDATE
		SET data = jsonb_set(telegram_settings.data, '{overdueListLastSentDate}', $2::jsonb),
		    updated_at = now()`,
		date, encoded)
	return err
}
