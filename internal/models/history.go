package models

import "time"

// HistoryItem is one successful analysis kept in a user's history.
// Items are never mutated after creation.
type HistoryItem struct {
	ID               int64          `json:"id"`
	Timestamp        string         `json:"timestamp"` // RFC 3339 (ISO-8601) UTC
	ThumbnailDataURL string         `json:"thumbnailDataUrl"`
	Result           AnalysisResult `json:"result"`
}

// NewHistoryItem builds a history entry stamped with the given time
func NewHistoryItem(id int64, at time.Time, thumbnail string, result AnalysisResult) HistoryItem {
	return HistoryItem{
		ID:               id,
		Timestamp:        at.UTC().Format(time.RFC3339Nano),
		ThumbnailDataURL: thumbnail,
		Result:           result,
	}
}
