package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

type fakeQueue struct {
	mu       sync.Mutex
	payloads []NotificationPayload
	failures int
}

func (f *fakeQueue) Enqueue(_ context.Context, payload NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("redis timeout")
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func awardedEvent() shared.BadgeAwardedEvent {
	return shared.NewBadgeAwardedEvent(
		"a81bc81b-dead-4e5d-abff-90865d1e13b1", "grinder", "Grinder", "algebra-101",
		2, 5, 25, []string{"a3", "a4"},
	)
}

func TestBadgeAwardedHandler_EnqueuesPayload(t *testing.T) {
	queue := &fakeQueue{}
	handler := NewBadgeAwardedHandler(queue, nil)

	err := handler.Handle(awardedEvent())
	require.NoError(t, err)
	require.Len(t, queue.payloads, 1)

	p := queue.payloads[0]
	assert.Equal(t, "grinder", p.BadgeID)
	// Repeat awards carry the occurrence in the title.
	assert.Equal(t, "Badge earned: Grinder (×2)", p.Title)
	assert.Contains(t, p.Body, "5 coins")
	assert.Contains(t, p.Body, "25 XP")
	assert.Equal(t, []string{"a3", "a4"}, p.Evidence)
}

func TestBadgeAwardedHandler_FirstOccurrenceTitle(t *testing.T) {
	queue := &fakeQueue{}
	handler := NewBadgeAwardedHandler(queue, nil)

	event := shared.NewBadgeAwardedEvent(
		"a81bc81b-dead-4e5d-abff-90865d1e13b1", "first-steps", "First Steps", "algebra-101",
		1, 10, 50, []string{"week01-quiz"},
	)
	require.NoError(t, handler.Handle(event))
	assert.Equal(t, "Badge earned: First Steps", queue.payloads[0].Title)
}

func TestBadgeAwardedHandler_RetriesTransientEnqueueFailure(t *testing.T) {
	queue := &fakeQueue{failures: 1}
	handler := NewBadgeAwardedHandler(queue, nil)

	start := time.Now()
	err := handler.Handle(awardedEvent())
	require.NoError(t, err)
	assert.Len(t, queue.payloads, 1)
	// One backoff delay happened between the attempts.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestBadgeAwardedHandler_GivesUpAfterMaxAttempts(t *testing.T) {
	queue := &fakeQueue{failures: 10}
	handler := NewBadgeAwardedHandler(queue, nil)

	err := handler.Handle(awardedEvent())
	assert.Error(t, err)
	assert.Empty(t, queue.payloads)
}

func TestBadgeAwardedHandler_IgnoresUnexpectedPayload(t *testing.T) {
	queue := &fakeQueue{}
	handler := NewBadgeAwardedHandler(queue, nil)

	err := handler.Handle(shared.NewRunCompletedEvent(1, 2, 0, time.Second))
	assert.NoError(t, err)
	assert.Empty(t, queue.payloads)
}
