package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/analysis"
)

// ChartsField is the multipart field holding the uploaded chart images
const ChartsField = "charts"

// BatchRunner runs a batch of chart analyses
type BatchRunner interface {
	Run(ctx context.Context, req analysis.BatchRequest) (*analysis.BatchReport, error)
}

// AnalysisHandler accepts chart uploads and returns the batch report
type AnalysisHandler struct {
	batch         BatchRunner
	settings      interfaces.SettingsService
	maxBatchSize  int
	maxImageBytes int64
	logger        arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(batch BatchRunner, settings interfaces.SettingsService, maxBatchSize int, maxImageBytes int64, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		batch:         batch,
		settings:      settings,
		maxBatchSize:  maxBatchSize,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// StatusForCategory maps a failure category to the HTTP status used when a
// single-chart request fails
func StatusForCategory(category analysis.Category) int {
	switch category {
	case analysis.CategoryNotAChart, analysis.CategoryEncoding:
		return http.StatusUnprocessableEntity
	case analysis.CategoryConfiguration:
		return http.StatusServiceUnavailable
	case analysis.CategoryRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// AnalyzeHandler handles POST /api/analyze
//
// Requests with more than one chart always answer 200 with per-chart
// outcomes. A single-chart request that fails answers with the status of its
// failure category, still carrying the report body.
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.maxImageBytes > 0 && h.maxBatchSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes*int64(h.maxBatchSize)+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "Expected a multipart form with chart images")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[ChartsField]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("No chart images found in field %q", ChartsField))
		return
	}
	if h.maxBatchSize > 0 && len(files) > h.maxBatchSize {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Too many charts: %d (limit %d)", len(files), h.maxBatchSize))
		return
	}

	inputs := make([]analysis.BatchInput, 0, len(files))
	for _, fh := range files {
		input, err := h.readChart(fh)
		if err != nil {
			h.logger.Warn().Err(err).Str("name", fh.Filename).Msg("Failed to read uploaded chart")
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename))
			return
		}
		inputs = append(inputs, input)
	}

	userID := UserID(r)
	settings := models.DefaultUserSettings()
	if userID != "" {
		loaded, err := h.settings.Get(r.Context(), userID)
		if err != nil {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load user settings")
			WriteError(w, http.StatusInternalServerError, "Failed to load user settings")
			return
		}
		settings = loaded
	}

	report, err := h.batch.Run(r.Context(), analysis.BatchRequest{
		UserID:    userID,
		Settings:  settings,
		TimeFrame: r.FormValue("timeFrame"),
		Inputs:    inputs,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Chart analysis batch failed")
		WriteError(w, http.StatusInternalServerError, "Chart analysis failed")
		return
	}

	status := http.StatusOK
	if len(report.Outcomes) == 1 && report.Outcomes[0].Error != nil {
		status = StatusForCategory(report.Outcomes[0].Error.Category)
	}
	WriteJSON(w, status, report)
}

func (h *AnalysisHandler) readChart(fh *multipart.FileHeader) (analysis.BatchInput, error) {
	file, err := fh.Open()
	if err != nil {
		return analysis.BatchInput{}, err
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxImageBytes > 0 {
		// One extra byte lets the encoder report the size violation
		reader = io.LimitReader(file, h.maxImageBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return analysis.BatchInput{}, err
	}

	return analysis.BatchInput{
		Name:     fh.Filename,
		Data:     data,
		MIMEType: fh.Header.Get("Content-Type"),
	}, nil
}
