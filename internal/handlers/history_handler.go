package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
)

// ReportRenderer renders a history item for download
type ReportRenderer interface {
	Markdown(item models.HistoryItem) string
	PDF(item models.HistoryItem) ([]byte, error)
}

// HistoryHandler serves a user's analysis history
type HistoryHandler struct {
	history interfaces.HistoryService
	reports ReportRenderer
	events  interfaces.EventService
	logger  arbor.ILogger
}

// NewHistoryHandler creates a new history handler. events may be nil.
func NewHistoryHandler(history interfaces.HistoryService, reports ReportRenderer, events interfaces.EventService, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		reports: reports,
		events:  events,
		logger:  logger,
	}
}

// ListHandler handles GET /api/history
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	items, err := h.history.List(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list history")
		WriteError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// ClearHandler handles DELETE /api/history
func (h *HistoryHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.history.Clear(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to clear history")
		WriteError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}

	if h.events != nil {
		event := interfaces.NewEvent(interfaces.EventHistoryCleared, userID, nil)
		if err := h.events.Publish(r.Context(), event); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to publish history_cleared event")
		}
	}

	WriteSuccess(w, "History cleared")
}

// ItemHandler handles GET /api/history/{id}, /api/history/{id}/report.md
// and /api/history/{id}/report.pdf
func (h *HistoryHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history/"), "/")
	idPart, format, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid history id")
		return
	}

	item, err := h.history.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrHistoryItemNotFound) {
			WriteError(w, http.StatusNotFound, "History item not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Int64("history_id", id).Msg("Failed to load history item")
		WriteError(w, http.StatusInternalServerError, "Failed to load history item")
		return
	}

	switch format {
	case "":
		WriteJSON(w, http.StatusOK, item)
	case "report.md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chart-analysis-%d.md"`, id))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(h.reports.Markdown(*item)))
	case "report.pdf":
		data, err := h.reports.PDF(*item)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to render PDF report")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chart-analysis-%d.pdf"`, id))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		WriteError(w, http.StatusNotFound, "Unknown history resource")
	}
}
