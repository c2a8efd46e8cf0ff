package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, interfaces.KeyValueStorage) {
	t.Helper()
	logger := arbor.NewLogger()

	store, err := badger.Open(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewService(store.KeyValueStorage(), logger), store.KeyValueStorage()
}

func TestSettings_DefaultsWhenNothingSaved(t *testing.T) {
	service, _ := newTestService(t)

	settings, err := service.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUserSettings(), settings)
}

func TestSettings_SaveAndGet(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	settings := models.DefaultUserSettings()
	settings.TradingStyle = "Swing Trading"
	settings.TradeStrategies = []string{"Breakout", "Mean Reversion"}
	settings.AIPersonality = models.PersonalityConcise
	settings.HistoryTrackingEnabled = false

	saved, err := service.Save(ctx, "user-1", settings)
	require.NoError(t, err)
	assert.Equal(t, settings, saved)

	loaded, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestSettings_StoredDocumentMergedOverDefaults(t *testing.T) {
	service, kv := newTestService(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "userSettings_user-1", `{"tradingStyle":"Scalping"}`, ""))

	loaded, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Scalping", loaded.TradingStyle)
	assert.Equal(t, models.PersonalityDetailed, loaded.AIPersonality)
	assert.Equal(t, "English", loaded.DefaultLanguage)
	assert.True(t, loaded.HistoryTrackingEnabled)
}

func TestSettings_SaveRejectsInvalid(t *testing.T) {
	service, _ := newTestService(t)

	settings := models.DefaultUserSettings()
	settings.AIPersonality = "Sarcastic"
	settings.AccentColor = "teal"

	_, err := service.Save(context.Background(), "user-1", settings)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "AIPersonality")
	assert.Contains(t, err.Error(), "AccentColor")
}

func TestSettings_Reset(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	settings := models.DefaultUserSettings()
	settings.RiskTolerance = "High"
	_, err := service.Save(ctx, "user-1", settings)
	require.NoError(t, err)

	require.NoError(t, service.Reset(ctx, "user-1"))

	loaded, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.NotSpecified, loaded.RiskTolerance)
}

func TestSettings_RequiresUserID(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Get(context.Background(), "")
	assert.ErrorIs(t, err, interfaces.ErrUserIDRequired)
}
