package models

import "time"

// Event types
const (
	EventTypeSearchPerformed = "SEARCH_PERFORMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchPerformedEvent is published after a product search with an
// authenticated actor. The history worker persists it; losing one never
// fails the search that produced it.
type SearchPerformedEvent struct {
	BaseEvent
	UserID     *int64 `json:"user_id,omitempty"`
	SearchItem string `json:"search_item"`
}
