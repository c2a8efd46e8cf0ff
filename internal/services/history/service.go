package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
)

// KeyPrefix namespaces history documents in the key/value store
const KeyPrefix = "tradeHistory_"

// Service stores each user's history as one JSON document, newest item first
type Service struct {
	storage interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewService creates a new history service
func NewService(storage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Key returns the storage key for a user's history
func Key(userID string) string {
	return KeyPrefix + userID
}

func checkUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return interfaces.ErrUserIDRequired
	}
	return nil
}

// List returns the user's history, most recent first
func (s *Service) List(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *Service) load(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	value, err := s.storage.Get(ctx, Key(userID))
	found := err == nil
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to load history for user %s: %w", userID, err)
	}

	items, err := decode(value, found)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return items, nil
}

func decode(value string, found bool) ([]models.HistoryItem, error) {
	items := []models.HistoryItem{}
	if !found {
		return items, nil
	}
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return items, nil
}

// Get returns one history item by id
func (s *Service) Get(ctx context.Context, userID string, id int64) (*models.HistoryItem, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", interfaces.ErrHistoryItemNotFound, id)
}

// Prepend stores items ahead of the existing history, keeping their given order
func (s *Service) Prepend(ctx context.Context, userID string, items []models.HistoryItem) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	total := 0
	err := s.storage.Update(ctx, Key(userID), "Chart analysis history", func(current string, found bool) (string, error) {
		existing, err := decode(current, found)
		if err != nil {
			return "", err
		}

		combined := make([]models.HistoryItem, 0, len(items)+len(existing))
		combined = append(combined, items...)
		combined = append(combined, existing...)
		total = len(combined)

		data, err := json.Marshal(combined)
		if err != nil {
			return "", fmt.Errorf("failed to encode history: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history for user %s: %w", userID, err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("added", len(items)).
		Int("total", total).
		Msg("Analysis history updated")

	return nil
}

// Clear removes the user's whole history. Clearing an empty history is not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}

	err := s.storage.Delete(ctx, Key(userID))
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear history for user %s: %w", userID, err)
	}

	s.logger.Info().Str("user_id", userID).Msg("Analysis history cleared")
	return nil
}
