package report

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/models"
)

// Service renders history items as markdown and PDF reports
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new report service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Markdown renders the item as markdown
func (s *Service) Markdown(item models.HistoryItem) string {
	return RenderMarkdown(item)
}

// PDF renders the item as a PDF document with its thumbnail at the top.
// A thumbnail that cannot be embedded is left out.
func (s *Service) PDF(item models.HistoryItem) ([]byte, error) {
	markdown := RenderMarkdown(item)
	title := fmt.Sprintf("Chart Analysis %d", item.ID)

	data, err := markdownToPDF(markdown, title, item.ThumbnailDataURL)
	if err != nil && item.ThumbnailDataURL != "" {
		s.logger.Warn().Err(err).Int64("history_id", item.ID).Msg("Rendering report without thumbnail")
		data, err = markdownToPDF(markdown, title, "")
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("history_id", item.ID).Msg("Failed to render PDF report")
		return nil, err
	}

	s.logger.Debug().
		Int64("history_id", item.ID).
		Int("markdown_len", len(markdown)).
		Int("pdf_size", len(data)).
		Msg("PDF report rendered")
	return data, nil
}
