package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
)

// CredentialChecker reports whether the model endpoint has a usable API key
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, model string) error
	DefaultModel() string
}

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	ClientCount() int
}

// StorageReporter reports the backing store footprint
type StorageReporter interface {
	Stats() interfaces.StorageStats
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Version          string                   `json:"version"`
	Environment      string                   `json:"environment"`
	Provider         string                   `json:"provider"`
	Model            string                   `json:"model"`
	CredentialsReady bool                     `json:"credentials_ready"`
	CredentialsError string                   `json:"credentials_error,omitempty"`
	MaxBatchSize     int                      `json:"max_batch_size"`
	WebSocketClients int                      `json:"websocket_clients"`
	Storage          *interfaces.StorageStats `json:"storage,omitempty"`
	Uptime           string                   `json:"uptime"`
}

// StatusHandler serves the system endpoints: status, version, health and API 404s
type StatusHandler struct {
	config      *common.Config
	credentials CredentialChecker
	clients     ClientCounter
	storage     StorageReporter
	startedAt   time.Time
	logger      arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler. clients and storage may be nil.
func NewStatusHandler(config *common.Config, credentials CredentialChecker, clients ClientCounter, storage StorageReporter, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		config:      config,
		credentials: credentials,
		clients:     clients,
		storage:     storage,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	model := h.credentials.DefaultModel()
	status := StatusResponse{
		Version:      common.GetVersion(),
		Environment:  h.config.Environment,
		Provider:     string(h.config.LLM.DefaultProvider),
		Model:        model,
		MaxBatchSize: h.config.Analysis.MaxBatchSize,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
	}

	if err := h.credentials.CheckCredentials(r.Context(), model); err != nil {
		status.CredentialsError = err.Error()
	} else {
		status.CredentialsReady = true
	}
	if h.clients != nil {
		status.WebSocketClients = h.clients.ClientCount()
	}
	if h.storage != nil {
		stats := h.storage.Stats()
		status.Storage = &stats
	}

	WriteJSON(w, http.StatusOK, status)
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetBuildInfo())
}

// HealthHandler handles GET /api/health. It reports liveness only; credential
// problems show up in /api/status so a missing key does not fail probes.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFoundHandler answers unmatched /api/ paths
func (h *StatusHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "No API endpoint at "+r.URL.Path)
}
