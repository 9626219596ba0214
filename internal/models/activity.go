package models

import "time"

// HistoryItem is one past generation: the product plus what was produced.
type HistoryItem struct {
	ID          string        `json:"id"`
	Product     ProductOption `json:"product"`
	Content     PostContent   `json:"content"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// ScheduledPost is a generated post queued for publication at a fixed time.
type ScheduledPost struct {
	ID          string        `json:"id"`
	Product     ProductOption `json:"product"`
	Content     PostContent   `json:"content"`
	ScheduledAt time.Time     `json:"scheduledAt"`
}

// Delivery statuses tracked for scheduled posts.
const (
	DeliveryScheduled = "scheduled"
	DeliveryPublished = "published"
	DeliveryFailed    = "failed"
	DeliveryCancelled = "cancelled"
)
