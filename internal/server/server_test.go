package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/app"
	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/models"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.InMemory = true

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application).Handler()
}

func do(t *testing.T, handler http.Handler, method, path, userID string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_System(t *testing.T) {
	handler := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodGet, "/api/health", "", nil).Code)
	assert.Contains(t, do(t, handler, http.MethodGet, "/api/version", "", nil).Body.String(), `"version"`)
	assert.Equal(t, http.StatusNotFound, do(t, handler, http.MethodGet, "/api/unknown", "", nil).Code)

	rec := do(t, handler, http.MethodOptions, "/api/settings", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, handler, http.MethodGet, "/api/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"badger"`)
}

func TestRoutes_SettingsLifecycle(t *testing.T) {
	handler := newTestServer(t)

	rec := do(t, handler, http.MethodPut, "/api/settings", "trader-1", []byte(`{"tradingStyle":"Position Trading","tradeStrategies":["Trend Following"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/api/settings", "trader-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded models.UserSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "Position Trading", loaded.TradingStyle)
	assert.Equal(t, []string{"Trend Following"}, loaded.TradeStrategies)

	rec = do(t, handler, http.MethodGet, "/api/settings", "trader-2", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, models.NotSpecified, loaded.TradingStyle)

	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodDelete, "/api/settings", "trader-1", nil).Code)
	rec = do(t, handler, http.MethodPost, "/api/settings", "trader-1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DELETE, GET, PUT", rec.Header().Get("Allow"))
	assert.Equal(t, http.StatusUnauthorized, do(t, handler, http.MethodGet, "/api/settings", "", nil).Code)
}

func TestRoutes_HistoryAndKeys(t *testing.T) {
	handler := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/api/history", "trader-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	assert.Equal(t, http.StatusNotFound, do(t, handler, http.MethodGet, "/api/history/12345", "trader-1", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodDelete, "/api/history", "trader-1", nil).Code)

	rec = do(t, handler, http.MethodPut, "/api/keys/gemini_api_key", "", []byte(`{"value":"AIzaSyExampleKey0001"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "AIza...0001")

	rec = do(t, handler, http.MethodGet, "/api/keys", "", nil)
	assert.Contains(t, rec.Body.String(), "gemini_api_key")
	assert.NotContains(t, rec.Body.String(), "AIzaSyExampleKey0001")

	assert.Equal(t, http.StatusBadRequest, do(t, handler, http.MethodPut, "/api/keys/tradeHistory_x", "", []byte(`{"value":"x"}`)).Code)
	assert.Equal(t, http.StatusOK, do(t, handler, http.MethodDelete, "/api/keys/gemini_api_key", "", nil).Code)
}
