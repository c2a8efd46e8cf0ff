package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/services/kv"
)

// KVServiceInterface defines the methods needed from the KV service
type KVServiceInterface interface {
	Set(ctx context.Context, key string, value string, description string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]interfaces.KeyValuePair, error)
}

// KVHandler manages provider API keys held in the key/value store
type KVHandler struct {
	kvService KVServiceInterface
	onChange  func() // drops cached provider clients so the new key is used
	logger    arbor.ILogger
}

// NewKVHandler creates a new KV handler for managing API keys. onChange may be nil.
func NewKVHandler(kvService KVServiceInterface, onChange func(), logger arbor.ILogger) *KVHandler {
	return &KVHandler{
		kvService: kvService,
		onChange:  onChange,
		logger:    logger,
	}
}

func (h *KVHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

// ListKVHandler handles GET /api/keys - lists stored keys with masked values
func (h *KVHandler) ListKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	pairs, err := h.kvService.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list API keys")
		WriteError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}
	WriteJSON(w, http.StatusOK, pairs)
}

// keyFromPath extracts and URL-decodes {name} from /api/keys/{name}
func keyFromPath(r *http.Request) (string, error) {
	return url.PathUnescape(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/keys/"), "/"))
}

// UpdateKVHandler handles PUT /api/keys/{name}
func (h *KVHandler) UpdateKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	key, err := keyFromPath(r)
	if err != nil || key == "" {
		WriteError(w, http.StatusBadRequest, "Invalid key")
		return
	}
	if !kv.IsAPIKeyName(key) {
		WriteError(w, http.StatusBadRequest, "Unsupported key, expected one of: "+strings.Join(kv.APIKeyNames, ", "))
		return
	}

	var req struct {
		Value       string `json:"value"`
		Description string `json:"description"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		WriteError(w, http.StatusBadRequest, "Value is required")
		return
	}

	if err := h.kvService.Set(r.Context(), key, req.Value, req.Description); err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to store API key")
		WriteError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}
	h.changed()

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"key":    key,
		"value":  kv.MaskValue(strings.TrimSpace(req.Value)),
	})
}

// DeleteKVHandler handles DELETE /api/keys/{name}
func (h *KVHandler) DeleteKVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	key, err := keyFromPath(r)
	if err != nil || key == "" {
		WriteError(w, http.StatusBadRequest, "Invalid key")
		return
	}

	if err := h.kvService.Delete(r.Context(), key); err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to delete API key")
		WriteError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}
	h.changed()

	WriteSuccess(w, "Key deleted")
}
