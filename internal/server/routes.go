package server

import (
	"net/http"
)

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app

	mux.HandleFunc("/ws", a.WSHandler.HandleWebSocket)

	// Multipart upload, field "charts"
	mux.HandleFunc("/api/analyze", a.AnalysisHandler.AnalyzeHandler)

	mux.Handle("/api/history", methods{
		http.MethodGet:    a.HistoryHandler.ListHandler,
		http.MethodDelete: a.HistoryHandler.ClearHandler,
	})
	// /api/history/{id}, /api/history/{id}/report.md, /api/history/{id}/report.pdf
	mux.HandleFunc("/api/history/", a.HistoryHandler.ItemHandler)

	mux.Handle("/api/settings", methods{
		http.MethodGet:    a.SettingsHandler.GetHandler,
		http.MethodPut:    a.SettingsHandler.UpdateHandler,
		http.MethodDelete: a.SettingsHandler.ResetHandler,
	})

	mux.HandleFunc("/api/keys", a.KVHandler.ListKVHandler)
	mux.Handle("/api/keys/", methods{
		http.MethodPut:    a.KVHandler.UpdateKVHandler,
		http.MethodDelete: a.KVHandler.DeleteKVHandler,
	})

	mux.HandleFunc("/api/status", a.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", a.StatusHandler.VersionHandler)
	mux.HandleFunc("/api/health", a.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/", a.StatusHandler.NotFoundHandler)

	return mux
}
