package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/seureview/content-engine/internal/models"
)

// HistoryLimit caps the per-user generation history: after any insert the
// list holds at most this many entries, newest first.
const HistoryLimit = 10

// ActivityStore keeps the per-user history and scheduled-post lists in
// Redis as JSON arrays. Writes are whole-list, last-writer-wins; the
// dashboard is a single logical writer per user.
type ActivityStore struct {
	redis *redis.Client
}

func NewActivityStore(rdb *redis.Client) *ActivityStore {
	return &ActivityStore{redis: rdb}
}

func historyKey(userID string) string    { return fmt.Sprintf("history:%s", userID) }
func scheduleKey(userID string) string   { return fmt.Sprintf("scheduled:%s", userID) }
func statusKey(userID, id string) string { return fmt.Sprintf("scheduled:%s:%s:status", userID, id) }

// AddHistory prepends an entry and truncates the list to HistoryLimit.
func (s *ActivityStore) AddHistory(ctx context.Context, userID string, item models.HistoryItem) error {
	items, err := s.History(ctx, userID)
	if err != nil {
		return err
	}

	items = append([]models.HistoryItem{item}, items...)
	if len(items) > HistoryLimit {
		items = items[:HistoryLimit]
	}
	return s.writeJSON(ctx, historyKey(userID), items)
}

// History returns the stored entries, newest first.
func (s *ActivityStore) History(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	var items []models.HistoryItem
	if err := s.readJSON(ctx, historyKey(userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Schedule inserts a post and re-sorts the list by ascending scheduled
// time, then marks its delivery status.
func (s *ActivityStore) Schedule(ctx context.Context, userID string, post models.ScheduledPost) error {
	posts, err := s.Scheduled(ctx, userID)
	if err != nil {
		return err
	}

	posts = append(posts, post)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ScheduledAt.Before(posts[j].ScheduledAt)
	})

	if err := s.writeJSON(ctx, scheduleKey(userID), posts); err != nil {
		return err
	}
	return s.redis.Set(ctx, statusKey(userID, post.ID), models.DeliveryScheduled, 0).Err()
}

// Scheduled returns the not-yet-cancelled posts in ascending order.
func (s *ActivityStore) Scheduled(ctx context.Context, userID string) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	if err := s.readJSON(ctx, scheduleKey(userID), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CancelScheduled removes a post by id, preserving the order of the rest.
// Returns false when no such post exists.
func (s *ActivityStore) CancelScheduled(ctx context.Context, userID, id string) (bool, error) {
	posts, err := s.Scheduled(ctx, userID)
	if err != nil {
		return false, err
	}

	kept := posts[:0]
	found := false
	for _, p := range posts {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return false, nil
	}

	if err := s.writeJSON(ctx, scheduleKey(userID), kept); err != nil {
		return false, err
	}
	if err := s.redis.Set(ctx, statusKey(userID, id), models.DeliveryCancelled, 0).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// HasScheduled reports whether a post is still queued. The worker checks
// this right before delivery so cancellation wins.
func (s *ActivityStore) HasScheduled(ctx context.Context, userID, id string) (bool, error) {
	posts, err := s.Scheduled(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range posts {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// SetDeliveryStatus records the outcome of a delivery attempt.
func (s *ActivityStore) SetDeliveryStatus(ctx context.Context, userID, id, status string) error {
	return s.redis.Set(ctx, statusKey(userID, id), status, 0).Err()
}

// DeliveryStatus returns the recorded status, or "" when unknown.
func (s *ActivityStore) DeliveryStatus(ctx context.Context, userID, id string) (string, error) {
	status, err := s.redis.Get(ctx, statusKey(userID, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read delivery status: %w", err)
	}
	return status, nil
}

func (s *ActivityStore) readJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("stored list %s is corrupt: %w", key, err)
	}
	return nil
}

func (s *ActivityStore) writeJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.redis.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
