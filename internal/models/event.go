package models

import "time"

// Event types published to the events topic.
const (
	EventPostScheduled    = "post.scheduled"
	EventAutomationUpdate = "automation.updated"
)

// Event is the envelope carried over Kafka between the API and the worker.
type Event struct {
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	Post      *ScheduledPost `json:"post,omitempty"`
	Bot       *BotConfig     `json:"bot,omitempty"`
	EmittedAt time.Time      `json:"emitted_at"`
}
