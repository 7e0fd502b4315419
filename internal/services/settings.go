package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

const (
	SettingKeyDecay    = "time_decay"
	SettingKeyExchange = "random_exchange"
)

var ErrInvalidSettings = errors.New("invalid settings")

// AllSettings is the admin view of every known setting.
type AllSettings struct {
	Decay    models.DecaySettings    `json:"time_decay"`
	Exchange models.ExchangeSettings `json:"random_exchange"`
}

// SettingsService reads and writes the typed admin_settings rows. Reads never
// fail: any problem falls back to documented defaults with a warning.
type SettingsService struct {
	db     DB
	logger *logging.Logger
}

func NewSettingsService(db DB, logger *logging.Logger) *SettingsService {
	if logger == nil {
		logger = logging.Default
	}
	return &SettingsService{db: db, logger: logger}
}

func (s *SettingsService) Decay(ctx context.Context) models.DecaySettings {
	raw, ok := s.load(ctx, SettingKeyDecay)
	if !ok {
		return models.DefaultDecaySettings()
	}
	settings := models.DefaultDecaySettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return s.decayFallback(raw, "Failed to decode decay settings", err)
	}
	if err := settings.Validate(); err != nil {
		return s.decayFallback(raw, "Invalid decay settings", err)
	}
	return settings
}

// decayFallback returns the defaults while keeping the stored enabled flag,
// so a broken value never switches a disabled job back on.
func (s *SettingsService) decayFallback(raw []byte, msg string, cause error) models.DecaySettings {
	settings := models.DefaultDecaySettings()
	settings.Enabled = s.storedEnabled(raw, settings.Enabled)
	s.logger.Warn(msg+", using defaults", logging.Fields{
		"error":   cause.Error(),
		"enabled": settings.Enabled,
	})
	return settings
}

func (s *SettingsService) Exchange(ctx context.Context) models.ExchangeSettings {
	raw, ok := s.load(ctx, SettingKeyExchange)
	if !ok {
		return models.DefaultExchangeSettings()
	}
	settings := models.DefaultExchangeSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		settings = models.DefaultExchangeSettings()
		settings.Enabled = s.storedEnabled(raw, settings.Enabled)
		s.logger.Warn("Failed to decode random exchange settings, using defaults", logging.Fields{
			"error":   err.Error(),
			"enabled": settings.Enabled,
		})
	}
	return settings
}

// storedEnabled reads only the "enabled" key of a stored value. A missing key
// keeps def; an unreadable one disables the job.
func (s *SettingsService) storedEnabled(raw []byte, def bool) bool {
	var flag struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false
	}
	if flag.Enabled == nil {
		return def
	}
	return *flag.Enabled
}

func (s *SettingsService) All(ctx context.Context) AllSettings {
	return AllSettings{
		Decay:    s.Decay(ctx),
		Exchange: s.Exchange(ctx),
	}
}

func (s *SettingsService) UpdateDecay(ctx context.Context, settings models.DecaySettings) (models.DecaySettings, error) {
	if err := settings.Validate(); err != nil {
		return models.DecaySettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.store(ctx, SettingKeyDecay, settings); err != nil {
		return models.DecaySettings{}, err
	}
	return settings, nil
}

func (s *SettingsService) UpdateExchange(ctx context.Context, settings models.ExchangeSettings) (models.ExchangeSettings, error) {
	if err := s.store(ctx, SettingKeyExchange, settings); err != nil {
		return models.ExchangeSettings{}, err
	}
	return settings, nil
}

// load returns the stored JSON for key. Callers decode it over defaults, so
// keys missing from the stored value keep their default.
func (s *SettingsService) load(ctx context.Context, key string) ([]byte, bool) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		"SELECT setting_value FROM admin_settings WHERE setting_key = $1",
		key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("Setting not found, using defaults", logging.Fields{"key": key})
		return nil, false
	}
	if err != nil {
		s.logger.Warn("Failed to load setting, using defaults", logging.Fields{"key": key, "error": err.Error()})
		return nil, false
	}
	return raw, true
}

func (s *SettingsService) store(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO admin_settings (setting_key, setting_value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (setting_key) DO UPDATE
		 SET setting_value = EXCLUDED.setting_value, updated_at = NOW()`,
		key, raw,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}
