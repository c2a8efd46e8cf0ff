package interfaces

import "context"

// EventType names a progress or state-change notification
type EventType string

// Payloads are JSON-friendly maps; every payload repeats user_id for browser clients.
const (
	// EventBatchStarted: batch_id, total
	EventBatchStarted EventType = "batch_started"
	// EventAnalysisCompleted: batch_id, index, name, trend, action, confidence
	EventAnalysisCompleted EventType = "analysis_completed"
	// EventAnalysisFailed: batch_id, index, name, category, message
	EventAnalysisFailed EventType = "analysis_failed"
	// EventBatchCompleted: batch_id, succeeded, failed, summary, message
	EventBatchCompleted EventType = "batch_completed"
	// EventHistoryCleared has no fields beyond user_id
	EventHistoryCleared EventType = "history_cleared"
	// EventSettingsUpdated: settings (the stored value after the change)
	EventSettingsUpdated EventType = "settings_updated"
)

// EventTypes lists every event the application publishes
func EventTypes() []EventType {
	return []EventType{
		EventBatchStarted,
		EventAnalysisCompleted,
		EventAnalysisFailed,
		EventBatchCompleted,
		EventHistoryCleared,
		EventSettingsUpdated,
	}
}

// Event is one notification. UserID scopes delivery; empty means the anonymous audience.
type Event struct {
	Type    EventType
	UserID  string
	Payload map[string]interface{}
}

// NewEvent builds an event for userID, copying the id into the payload
func NewEvent(eventType EventType, userID string, fields map[string]interface{}) Event {
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["user_id"] = userID
	return Event{Type: eventType, UserID: userID, Payload: payload}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService is the in-process bus between the analysis pipeline and live clients
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish delivers to subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync waits for every subscriber and joins their errors
	PublishSync(ctx context.Context, event Event) error

	Close() error
}
