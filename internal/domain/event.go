package domain

import "time"

type EventType string

const (
	// EventCodeSuperseded fires when issuing a code overwrote a still-live one.
	EventCodeSuperseded EventType = "verification.code_superseded"
	EventUserRegistered EventType = "user.registered"
)

// Event is an auth lifecycle notification for downstream consumers.
type Event struct {
	Type       EventType `json:"type"`
	Email      string    `json:"email,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
