package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/greattrades/internal/models"
)

var (
	// ErrHistoryItemNotFound is returned when a history item id is unknown for the user
	ErrHistoryItemNotFound = errors.New("history item not found")

	// ErrUserIDRequired is returned when a per-user operation gets an empty user id
	ErrUserIDRequired = errors.New("user id is required")
)

// HistoryService persists each user's list of successful analyses, newest first
type HistoryService interface {
	// List returns the user's history, most recent first. Unknown users get an empty list.
	List(ctx context.Context, userID string) ([]models.HistoryItem, error)

	// Get returns one item by id
	Get(ctx context.Context, userID string, id int64) (*models.HistoryItem, error)

	// Prepend stores items ahead of the existing history, keeping their given order
	Prepend(ctx context.Context, userID string, items []models.HistoryItem) error

	// Clear removes the user's whole history
	Clear(ctx context.Context, userID string) error
}

// SettingsService persists each user's settings object
type SettingsService interface {
	// Get returns saved settings merged over the defaults
	Get(ctx context.Context, userID string) (models.UserSettings, error)

	// Save validates and stores settings
	Save(ctx context.Context, userID string, settings models.UserSettings) (models.UserSettings, error)

	// Reset removes saved settings so the defaults apply again
	Reset(ctx context.Context, userID string) error
}
