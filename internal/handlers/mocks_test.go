package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/analysis"
)

type mockBatch struct {
	mock.Mock
}

func (m *mockBatch) Run(ctx context.Context, req analysis.BatchRequest) (*analysis.BatchReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.BatchReport), args.Error(1)
}

type mockSettings struct {
	mock.Mock
}

func (m *mockSettings) Get(ctx context.Context, userID string) (models.UserSettings, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.UserSettings), args.Error(1)
}

func (m *mockSettings) Save(ctx context.Context, userID string, settings models.UserSettings) (models.UserSettings, error) {
	args := m.Called(ctx, userID, settings)
	return args.Get(0).(models.UserSettings), args.Error(1)
}

func (m *mockSettings) Reset(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) List(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.HistoryItem), args.Error(1)
}

func (m *mockHistory) Get(ctx context.Context, userID string, id int64) (*models.HistoryItem, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryItem), args.Error(1)
}

func (m *mockHistory) Prepend(ctx context.Context, userID string, items []models.HistoryItem) error {
	return m.Called(ctx, userID, items).Error(0)
}

func (m *mockHistory) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type stubReports struct{}

func (stubReports) Markdown(item models.HistoryItem) string {
	return "# Chart Analysis Report\n\n" + item.Result.Summary + "\n"
}

func (stubReports) PDF(item models.HistoryItem) ([]byte, error) {
	return []byte("%PDF-1.3 stub"), nil
}
