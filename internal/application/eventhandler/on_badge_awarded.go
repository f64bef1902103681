// Package eventhandler contains the subscribers wired onto the in-process
// event bus. Handlers are side channels: a handler failure is logged and
// never rolled back into the award path that published the event.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
	"github.com/learnhub/badge-engine/pkg/retry"
)

// NotificationQueue is the outbound queue the presentation layer drains
// (a redis list in production).
type NotificationQueue interface {
	Enqueue(ctx context.Context, payload NotificationPayload) error
}

// NotificationPayload is the message format pushed for each award. It is
// presentation-ready: the consumer only formats, never re-derives.
type NotificationPayload struct {
	UserID     string    `json:"user_id"`
	BadgeID    string    `json:"badge_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Occurrence int       `json:"occurrence"`
	Coins      int       `json:"coins"`
	XP         int       `json:"xp"`
	Evidence   []string  `json:"evidence"`
	AwardedAt  time.Time `json:"awarded_at"`
}

// BadgeAwardedHandler translates award events into notification payloads.
type BadgeAwardedHandler struct {
	queue   NotificationQueue
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewBadgeAwardedHandler creates the handler.
func NewBadgeAwardedHandler(queue NotificationQueue, logger *slog.Logger) *BadgeAwardedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &BadgeAwardedHandler{queue: queue, logger: logger}
	// Enqueue failures are usually transient redis hiccups; anything that
	// survives three attempts is logged and dropped.
	h.retrier = retry.New(
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(200*time.Millisecond),
		retry.WithMaxDelay(2*time.Second),
		retry.WithRetryIf(func(err error) bool { return err != nil }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("retrying notification enqueue",
				"attempt", attempt, "delay", delay, "error", err)
		}),
	)
	return h
}

// Handle is the shared.EventHandler registered for award.badge_awarded.
func (h *BadgeAwardedHandler) Handle(event shared.Event) error {
	awarded, ok := event.(shared.BadgeAwardedEvent)
	if !ok {
		h.logger.Warn("unexpected event payload on badge_awarded topic",
			"type", string(event.EventType()))
		return nil
	}

	title := fmt.Sprintf("Badge earned: %s", awarded.BadgeName)
	if awarded.Occurrence > 1 {
		title = fmt.Sprintf("Badge earned: %s (×%d)", awarded.BadgeName, awarded.Occurrence)
	}

	payload := NotificationPayload{
		UserID:     awarded.UserID,
		BadgeID:    awarded.BadgeID,
		Title:      title,
		Body:       fmt.Sprintf("You earned %d coins and %d XP in %s.", awarded.Coins, awarded.XP, awarded.CourseID),
		Occurrence: awarded.Occurrence,
		Coins:      awarded.Coins,
		XP:         awarded.XP,
		Evidence:   awarded.EvidenceSummary,
		AwardedAt:  awarded.OccurredAt(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.queue.Enqueue(ctx, payload)
	})
	if err != nil {
		h.logger.Error("failed to enqueue award notification",
			"user", awarded.UserID, "badge", awarded.BadgeID, "error", err)
		return err
	}
	return nil
}
