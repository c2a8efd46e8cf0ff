package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/settings"
)

// SettingsHandler reads and writes a user's settings
type SettingsHandler struct {
	settings interfaces.SettingsService
	events   interfaces.EventService
	logger   arbor.ILogger
}

// NewSettingsHandler creates a new settings handler. events may be nil.
func NewSettingsHandler(settings interfaces.SettingsService, events interfaces.EventService, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		events:   events,
		logger:   logger,
	}
}

// GetHandler handles GET /api/settings
func (h *SettingsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	current, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load settings")
		WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	WriteJSON(w, http.StatusOK, current)
}

// UpdateHandler handles PUT /api/settings. Fields missing from the body keep
// their current value.
func (h *SettingsHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	current, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load settings")
		WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if !DecodeJSON(w, r, &current) {
		return
	}

	saved, err := h.settings.Save(r.Context(), userID, current)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save settings")
		WriteError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	h.publish(r, userID, saved)
	WriteJSON(w, http.StatusOK, saved)
}

// ResetHandler handles DELETE /api/settings
func (h *SettingsHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.settings.Reset(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to reset settings")
		WriteError(w, http.StatusInternalServerError, "Failed to reset settings")
		return
	}

	defaults := models.DefaultUserSettings()
	h.publish(r, userID, defaults)
	WriteJSON(w, http.StatusOK, defaults)
}

func (h *SettingsHandler) publish(r *http.Request, userID string, current models.UserSettings) {
	if h.events == nil {
		return
	}
	event := interfaces.NewEvent(interfaces.EventSettingsUpdated, userID, map[string]interface{}{
		"settings": current,
	})
	if err := h.events.Publish(r.Context(), event); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to publish settings_updated event")
	}
}
