package chat

import "time"

// State is a point-in-time snapshot of a chat session, safe to hand to views.
type State struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Draft     string    `json:"draft"`
	Pending   bool      `json:"pending"`
	Closed    bool      `json:"closed,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
