package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
)

// APIKeyNames lists the KV entries read when resolving provider credentials
var APIKeyNames = []string{"gemini_api_key", "anthropic_api_key"}

// Service manages provider API keys held in the key/value store
type Service struct {
	storage interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewService creates a new key/value service
func NewService(storage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// IsAPIKeyName reports whether name is a recognised credential entry
func IsAPIKeyName(name string) bool {
	for _, known := range APIKeyNames {
		if known == name {
			return true
		}
	}
	return false
}

// Get retrieves a value by key
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Key lookup failed")
		return "", err
	}
	return value, nil
}

// Set stores or updates an API key
func (s *Service) Set(ctx context.Context, key string, value string, description string) error {
	if !IsAPIKeyName(key) {
		return fmt.Errorf("unsupported key %q (expected one of %s)", key, strings.Join(APIKeyNames, ", "))
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}

	if err := s.storage.Set(ctx, key, strings.TrimSpace(value), description); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to store API key")
		return err
	}

	s.logger.Info().Str("key", key).Msg("Stored API key")
	return nil
}

// Delete removes an API key
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete API key")
		return err
	}

	s.logger.Info().Str("key", key).Msg("Deleted API key")
	return nil
}

// List returns the stored API keys with their values masked
func (s *Service) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	pairs := []interfaces.KeyValuePair{}
	for _, name := range APIKeyNames {
		pair, err := s.storage.GetPair(ctx, name)
		if err != nil {
			continue
		}
		pair.Value = MaskValue(pair.Value)
		pairs = append(pairs, *pair)
	}

	s.logger.Debug().Int("count", len(pairs)).Msg("Listed API keys")
	return pairs, nil
}

// MaskValue keeps the first and last four characters of long values
func MaskValue(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
