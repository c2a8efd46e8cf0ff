package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/llm"
	"github.com/ternarybob/greattrades/internal/services/prompt"
)

func testRequestContext() models.AnalysisRequestContext {
	return models.AnalysisRequestContext{
		Image:    models.EncodedImage{Base64Data: "aGVsbG8=", MIMEType: "image/png"},
		Settings: models.DefaultUserSettings(),
	}
}

func newTestService(generator ContentGenerator) *Service {
	return NewService(generator, prompt.NewBuilder("gemini-2.5-flash", 0), arbor.NewLogger())
}

func TestAnalyze_Success(t *testing.T) {
	generator := new(mockGenerator)
	generator.On("GenerateContent", mock.Anything, mock.MatchedBy(func(req *llm.ContentRequest) bool {
		return req.Image != nil && req.Image.MIMEType == "image/png" && req.Instruction == prompt.Instruction
	})).Return(chartResponse(t, 140), nil).Once()

	result, err := newTestService(generator).Analyze(context.Background(), testRequestContext())
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.Confidence)
	assert.Equal(t, models.TrendBullish, result.Trend)
	generator.AssertExpectations(t)
}

func TestAnalyze_TransportFailureIsNotRetried(t *testing.T) {
	generator := new(mockGenerator)
	generator.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, errors.New("Error 429, Message: Resource has been exhausted")).Once()

	_, err := newTestService(generator).Analyze(context.Background(), testRequestContext())

	require.Error(t, err)
	assert.True(t, IsCategory(err, CategoryRateLimited))
	generator.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestAnalyze_NotAChart(t *testing.T) {
	generator := new(mockGenerator)
	generator.On("GenerateContent", mock.Anything, mock.Anything).
		Return(&llm.ContentResponse{Text: `{"isChart":false,"trend":"Neutral","action":"Hold","confidence":0,"summary":"N/A"}`}, nil)

	_, err := newTestService(generator).Analyze(context.Background(), testRequestContext())

	require.Error(t, err)
	assert.True(t, IsCategory(err, CategoryNotAChart))
	assert.Contains(t, err.Error(), "No chart found")
}

func TestAnalyze_NoJSON(t *testing.T) {
	generator := new(mockGenerator)
	generator.On("GenerateContent", mock.Anything, mock.Anything).
		Return(&llm.ContentResponse{Text: "I am unable to help with that."}, nil)

	_, err := newTestService(generator).Analyze(context.Background(), testRequestContext())

	assert.True(t, IsCategory(err, CategoryMalformedResponse))
}

// checkingGenerator fails the credential precondition
type checkingGenerator struct {
	mockGenerator
}

func (g *checkingGenerator) CheckCredentials(ctx context.Context, model string) error {
	return fmt.Errorf("%w: gemini_api_key", llm.ErrMissingAPIKey)
}

func TestAnalyze_MissingCredentialCheckedBeforeCall(t *testing.T) {
	generator := new(checkingGenerator)

	_, err := newTestService(generator).Analyze(context.Background(), testRequestContext())

	assert.True(t, IsCategory(err, CategoryConfiguration))
	generator.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything)
}
