package analysis

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/llm"
	"github.com/ternarybob/greattrades/internal/services/prompt"
)

// ContentGenerator is the model transport. *llm.ProviderFactory implements it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// credentialChecker is implemented by generators that can verify their
// credential without a network call
type credentialChecker interface {
	CheckCredentials(ctx context.Context, model string) error
}

// Analyzer analyzes a single chart
type Analyzer interface {
	Analyze(ctx context.Context, reqCtx models.AnalysisRequestContext) (*models.AnalysisResult, error)
}

// Service analyzes one chart per call: build request, one model round trip,
// sanitize. It never retries and keeps no state between calls.
type Service struct {
	generator ContentGenerator
	builder   *prompt.Builder
	logger    arbor.ILogger
}

// NewService creates an analysis service around an injected transport
func NewService(generator ContentGenerator, builder *prompt.Builder, logger arbor.ILogger) *Service {
	return &Service{
		generator: generator,
		builder:   builder,
		logger:    logger,
	}
}

// Analyze returns a usable result or an *AnalysisError
func (s *Service) Analyze(ctx context.Context, reqCtx models.AnalysisRequestContext) (*models.AnalysisResult, error) {
	request := s.builder.Build(reqCtx)

	if checker, ok := s.generator.(credentialChecker); ok {
		if err := checker.CheckCredentials(ctx, request.Model); err != nil {
			return nil, Classify(err)
		}
	}

	start := time.Now()
	response, err := s.generator.GenerateContent(ctx, request)
	if err != nil {
		classified := Classify(err)
		s.logger.Warn().
			Str("category", string(classified.Category)).
			Err(err).
			Msg("Chart analysis request failed")
		return nil, classified
	}

	result, err := Sanitize(response.Text)
	if err != nil {
		classified := Classify(err)
		s.logger.Warn().
			Str("category", string(classified.Category)).
			Str("model", response.Model).
			Int("response_length", len(response.Text)).
			Err(err).
			Msg("Chart analysis response rejected")
		return nil, classified
	}

	s.logger.Debug().
		Str("provider", string(response.Provider)).
		Str("model", response.Model).
		Str("trend", string(result.Trend)).
		Str("action", string(result.Action)).
		Float64("confidence", result.Confidence).
		Dur("duration", time.Since(start)).
		Msg("Chart analysis completed")

	return result, nil
}
