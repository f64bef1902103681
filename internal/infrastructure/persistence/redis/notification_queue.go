// Package redis implements the hot tier of the badge engine's caching.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/learnhub/badge-engine/internal/application/eventhandler"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationQueue implements eventhandler.NotificationQueue as a Redis
// list. The presentation layer pops from the tail, so delivery order matches
// award order.
type NotificationQueue struct {
	cache *Cache
}

// NewNotificationQueue creates a NotificationQueue.
func NewNotificationQueue(cache *Cache) *NotificationQueue {
	return &NotificationQueue{cache: cache}
}

// Enqueue pushes one award notification onto the queue.
func (q *NotificationQueue) Enqueue(ctx context.Context, payload eventhandler.NotificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return q.cache.LPush(ctx, NotificationQueueKey(), data)
}

// Dequeue pops the oldest pending notification. Returns (payload, false, nil)
// semantics via the ok flag when the queue is empty.
func (q *NotificationQueue) Dequeue(ctx context.Context) (eventhandler.NotificationPayload, bool, error) {
	var payload eventhandler.NotificationPayload

	raw, err := q.cache.RPop(ctx, NotificationQueueKey())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return payload, false, nil
		}
		return payload, false, err
	}

	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, false, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return payload, true, nil
}

// Pending returns the number of undelivered notifications.
func (q *NotificationQueue) Pending(ctx context.Context) (int64, error) {
	return q.cache.LLen(ctx, NotificationQueueKey())
}
