package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
)

// KeyPrefix namespaces settings documents in the key/value store
const KeyPrefix = "userSettings_"

// ErrInvalidSettings wraps validation failures on Save
var ErrInvalidSettings = errors.New("invalid settings")

// Service persists per-user settings. Stored documents are merged over the
// defaults on load, so fields added later pick up their default value.
type Service struct {
	storage  interfaces.KeyValueStorage
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewService creates a new settings service
func NewService(storage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Key returns the storage key for a user's settings
func Key(userID string) string {
	return KeyPrefix + userID
}

// Get returns the user's settings, or the defaults when none were saved
func (s *Service) Get(ctx context.Context, userID string) (models.UserSettings, error) {
	if strings.TrimSpace(userID) == "" {
		return models.UserSettings{}, interfaces.ErrUserIDRequired
	}

	value, err := s.storage.Get(ctx, Key(userID))
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return models.DefaultUserSettings(), nil
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to load settings for user %s: %w", userID, err)
	}

	settings := models.DefaultUserSettings()
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Stored settings are unreadable, using defaults")
		return models.DefaultUserSettings(), nil
	}
	if settings.TradeStrategies == nil {
		settings.TradeStrategies = []string{}
	}
	return settings, nil
}

// Save validates and stores the settings, returning what was persisted
func (s *Service) Save(ctx context.Context, userID string, settings models.UserSettings) (models.UserSettings, error) {
	if strings.TrimSpace(userID) == "" {
		return models.UserSettings{}, interfaces.ErrUserIDRequired
	}

	settings = settings.Clone()
	if err := s.validate.Struct(settings); err != nil {
		return models.UserSettings{}, fmt.Errorf("%w: %s", ErrInvalidSettings, describeValidation(err))
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.storage.Set(ctx, Key(userID), string(data), "User trading settings"); err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to save settings for user %s: %w", userID, err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("personality", string(settings.AIPersonality)).
		Bool("history_tracking", settings.HistoryTrackingEnabled).
		Msg("User settings saved")

	return settings, nil
}

// Reset removes the stored settings so the defaults apply again
func (s *Service) Reset(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return interfaces.ErrUserIDRequired
	}

	err := s.storage.Delete(ctx, Key(userID))
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to reset settings for user %s: %w", userID, err)
	}

	s.logger.Info().Str("user_id", userID).Msg("User settings reset to defaults")
	return nil
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
