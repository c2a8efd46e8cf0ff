package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/imaging"
)

// ErrEmptyBatch is returned when a batch has no charts
var ErrEmptyBatch = errors.New("no charts submitted")

// BatchInput is one uploaded chart
type BatchInput struct {
	Name     string
	Data     []byte
	MIMEType string // declared type, may be empty
}

// BatchOutcome is the result for the chart at Index in the submitted batch
type BatchOutcome struct {
	Index       int                    `json:"index"`
	Name        string                 `json:"name"`
	Result      *models.AnalysisResult `json:"result,omitempty"`
	HistoryItem *models.HistoryItem    `json:"historyItem,omitempty"`
	Error       *AnalysisError         `json:"error,omitempty"`
}

// Succeeded reports whether the chart produced a usable result
func (o BatchOutcome) Succeeded() bool {
	return o.Error == nil && o.Result != nil
}

// BatchReport collects every outcome in submission order
type BatchReport struct {
	BatchID      string         `json:"batchId"`
	Outcomes     []BatchOutcome `json:"outcomes"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Summary      string         `json:"summary"`
	Message      string         `json:"message"`
	HistorySaved bool           `json:"historySaved"`
	HistoryError string         `json:"historyError,omitempty"`
}

// HistoryItems returns the history entries created by this batch in submission order
func (r *BatchReport) HistoryItems() []models.HistoryItem {
	items := make([]models.HistoryItem, 0, r.Succeeded)
	for _, o := range r.Outcomes {
		if o.HistoryItem != nil {
			items = append(items, *o.HistoryItem)
		}
	}
	return items
}

// Errors returns the failures in submission order
func (r *BatchReport) Errors() []*AnalysisError {
	errs := make([]*AnalysisError, 0, r.Failed)
	for _, o := range r.Outcomes {
		if o.Error != nil {
			errs = append(errs, o.Error)
		}
	}
	return errs
}

// BatchSummary renders "N succeeded, M failed"
func BatchSummary(succeeded, failed int) string {
	return fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
}

// BatchMessage renders the user-facing notice for a finished batch
func BatchMessage(succeeded, failed int) string {
	switch {
	case failed == 0:
		return fmt.Sprintf("Successfully analyzed %d chart(s)!", succeeded)
	case succeeded == 0:
		return fmt.Sprintf("All %d analyses failed.", failed)
	default:
		return fmt.Sprintf("Analyzed %d charts successfully. %d analyses failed.", succeeded, failed)
	}
}

// BatchRequest describes one batch submission
type BatchRequest struct {
	UserID    string
	Settings  models.UserSettings
	TimeFrame string
	Inputs    []BatchInput
}

// Batch fans a set of charts out to the analyzer and waits for every one of them
type Batch struct {
	analyzer       Analyzer
	encoder        *imaging.Encoder
	thumbnailer    *imaging.Thumbnailer
	history        interfaces.HistoryService
	events         interfaces.EventService
	maxConcurrency int
	logger         arbor.ILogger
	now            func() time.Time
}

// NewBatch creates a batch orchestrator. history and events may be nil.
func NewBatch(
	analyzer Analyzer,
	encoder *imaging.Encoder,
	thumbnailer *imaging.Thumbnailer,
	history interfaces.HistoryService,
	events interfaces.EventService,
	maxConcurrency int,
	logger arbor.ILogger,
) *Batch {
	return &Batch{
		analyzer:       analyzer,
		encoder:        encoder,
		thumbnailer:    thumbnailer,
		history:        history,
		events:         events,
		maxConcurrency: maxConcurrency,
		logger:         logger,
		now:            time.Now,
	}
}

// Run analyzes every input concurrently and returns once all have finished.
// One failing chart never stops the others. Successful charts become history
// items, prepended to the user's history in submission order when history
// tracking is enabled.
//
// In-flight analyses are detached from ctx cancellation so a dropped client
// does not discard charts that were already paid for.
func (b *Batch) Run(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	if len(req.Inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	ctx = context.WithoutCancel(ctx)
	batchID := common.NewBatchID()
	settings := req.Settings.Clone()

	b.logger.Info().
		Str("batch_id", batchID).
		Str("user_id", req.UserID).
		Int("charts", len(req.Inputs)).
		Msg("Starting chart analysis batch")

	b.publish(ctx, interfaces.NewEvent(interfaces.EventBatchStarted, req.UserID, map[string]interface{}{
		"batch_id": batchID,
		"total":    len(req.Inputs),
	}))

	outcomes := make([]BatchOutcome, len(req.Inputs))

	var g errgroup.Group
	if b.maxConcurrency > 0 {
		g.SetLimit(b.maxConcurrency)
	}

	for i, input := range req.Inputs {
		g.Go(func() error {
			outcomes[i] = b.runOne(ctx, i, input, settings, req.TimeFrame)
			b.publishOutcome(ctx, batchID, req.UserID, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &BatchReport{
		BatchID:  batchID,
		Outcomes: outcomes,
	}

	createdAt := b.now()
	for i := range report.Outcomes {
		outcome := &report.Outcomes[i]
		if !outcome.Succeeded() {
			report.Failed++
			continue
		}
		report.Succeeded++
		item := models.NewHistoryItem(common.NewHistoryID(), createdAt, outcome.HistoryItem.ThumbnailDataURL, *outcome.Result)
		outcome.HistoryItem = &item
	}
	report.Summary = BatchSummary(report.Succeeded, report.Failed)
	report.Message = BatchMessage(report.Succeeded, report.Failed)

	b.persist(ctx, req, report)

	b.logger.Info().
		Str("batch_id", batchID).
		Str("user_id", req.UserID).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("Chart analysis batch completed")

	b.publish(ctx, interfaces.NewEvent(interfaces.EventBatchCompleted, req.UserID, map[string]interface{}{
		"batch_id":  batchID,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"summary":   report.Summary,
		"message":   report.Message,
	}))

	return report, nil
}

// runOne encodes, analyzes and thumbnails one chart. A panic is reported as UnknownError.
func (b *Batch) runOne(ctx context.Context, index int, input BatchInput, settings models.UserSettings, timeFrame string) (outcome BatchOutcome) {
	outcome = BatchOutcome{Index: index, Name: input.Name}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Int("index", index).
				Str("name", input.Name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Chart analysis panicked")
			outcome.Result = nil
			outcome.HistoryItem = nil
			outcome.Error = &AnalysisError{
				Category: CategoryUnknown,
				Message:  categoryMessages[CategoryUnknown],
				Detail:   fmt.Sprint(r),
			}
		}
	}()

	image, err := b.encoder.Encode(input.Name, input.Data, input.MIMEType)
	if err != nil {
		outcome.Error = Classify(err)
		return outcome
	}

	result, err := b.analyzer.Analyze(ctx, models.AnalysisRequestContext{
		Image:     image,
		Settings:  settings,
		TimeFrame: timeFrame,
	})
	if err != nil {
		outcome.Error = Classify(err)
		return outcome
	}

	thumbnail, err := b.thumbnailer.Thumbnail(image)
	if err != nil {
		// The model accepts images the thumbnailer cannot or will not decode; keep the result
		b.logger.Warn().Err(err).Str("name", input.Name).Msg("Failed to create thumbnail")
	}

	outcome.Result = result
	outcome.HistoryItem = &models.HistoryItem{ThumbnailDataURL: thumbnail}
	return outcome
}

func (b *Batch) persist(ctx context.Context, req BatchRequest, report *BatchReport) {
	if b.history == nil || req.UserID == "" || report.Succeeded == 0 || !req.Settings.HistoryTrackingEnabled {
		return
	}

	if err := b.history.Prepend(ctx, req.UserID, report.HistoryItems()); err != nil {
		b.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to save analysis history")
		report.HistoryError = err.Error()
		return
	}
	report.HistorySaved = true
}

func (b *Batch) publishOutcome(ctx context.Context, batchID, userID string, outcome BatchOutcome) {
	if outcome.Succeeded() {
		b.publish(ctx, interfaces.NewEvent(interfaces.EventAnalysisCompleted, userID, map[string]interface{}{
			"batch_id":   batchID,
			"index":      outcome.Index,
			"name":       outcome.Name,
			"trend":      string(outcome.Result.Trend),
			"action":     string(outcome.Result.Action),
			"confidence": outcome.Result.Confidence,
		}))
		return
	}
	b.publish(ctx, interfaces.NewEvent(interfaces.EventAnalysisFailed, userID, map[string]interface{}{
		"batch_id": batchID,
		"index":    outcome.Index,
		"name":     outcome.Name,
		"category": string(outcome.Error.Category),
		"message":  outcome.Error.Message,
	}))
}

func (b *Batch) publish(ctx context.Context, event interfaces.Event) {
	if b.events == nil {
		return
	}
	if err := b.events.Publish(ctx, event); err != nil {
		b.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Failed to publish event")
	}
}
