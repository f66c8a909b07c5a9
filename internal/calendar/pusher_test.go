package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/dental-reception/internal/logging"
)

// flakySink fails the first failures deliveries, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	attempts int
	events   []Event
}

func (s *flakySink) Push(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *flakySink) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *flakySink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestRetryingPusherDeliversAfterFailures(t *testing.T) {
	sink := &flakySink{failures: 2}
	p := NewRetryingPusher(sink, logging.Default()).
		WithMaxAttempts(5).
		WithBaseDelay(time.Millisecond)

	ev := Event{AppointmentID: uuid.New()}
	require.NoError(t, p.Push(context.Background(), ev))
	p.Close()

	delivered := sink.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, ev.AppointmentID, delivered[0].AppointmentID)
}

func TestRetryingPusherGivesUp(t *testing.T) {
	sink := &flakySink{failures: 100}
	p := NewRetryingPusher(sink, logging.Default()).
		WithMaxAttempts(3).
		WithBaseDelay(time.Millisecond)

	require.NoError(t, p.Push(context.Background(), Event{AppointmentID: uuid.New()}))
	p.Close()

	assert.Empty(t, sink.delivered())
	assert.Equal(t, 3, sink.attemptCount())
}

func TestRetryingPusherDrainsOnClose(t *testing.T) {
	sink := &flakySink{}
	p := NewRetryingPusher(sink, logging.Default()).WithBaseDelay(time.Millisecond)

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Push(context.Background(), Event{AppointmentID: uuid.New()}))
	}
	p.Close()

	assert.Len(t, sink.delivered(), 10)
}
