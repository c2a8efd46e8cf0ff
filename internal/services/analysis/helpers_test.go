package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/llm"
)

// mockGenerator is a fake model transport
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	args := m.Called(ctx, request)
	if resp := args.Get(0); resp != nil {
		return resp.(*llm.ContentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockHistory records history writes
type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) List(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.HistoryItem), args.Error(1)
}

func (m *mockHistory) Get(ctx context.Context, userID string, id int64) (*models.HistoryItem, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(*models.HistoryItem), args.Error(1)
}

func (m *mockHistory) Prepend(ctx context.Context, userID string, items []models.HistoryItem) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

func (m *mockHistory) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func chartResponse(t *testing.T, confidence float64) *llm.ContentResponse {
	t.Helper()
	data, err := json.Marshal(models.AnalysisResult{
		IsChart:    true,
		Trend:      models.TrendBullish,
		Action:     models.ActionBuy,
		Confidence: confidence,
		Summary:    "Higher highs and higher lows",
		Volatility: models.VolatilityMedium,
	})
	require.NoError(t, err)
	return &llm.ContentResponse{Text: "```json\n" + string(data) + "\n```", Provider: llm.ProviderGemini, Model: "gemini-2.5-flash"}
}

func pngOfSize(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}
