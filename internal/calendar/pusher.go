package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/hackgods/dental-reception/internal/logging"
)

// Pusher delivers a committed booking to the clinic calendar.
type Pusher interface {
	Push(ctx context.Context, ev Event) error
}

// LinkPusher renders the event link and logs it. Stands in for a real
// delivery integration in dev environments.
type LinkPusher struct {
	clinicName string
	location   string
	logger     *logging.Logger
}

func NewLinkPusher(clinicName, location string, logger *logging.Logger) *LinkPusher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LinkPusher{clinicName: clinicName, location: location, logger: logger}
}

func (p *LinkPusher) Push(ctx context.Context, ev Event) error {
	link := EventLink(ev, p.clinicName, p.location)
	p.logger.Info("calendar event ready",
		"appointment_id", ev.AppointmentID,
		"patient_id", ev.PatientID,
		"slot_start", ev.SlotStart,
		"slot_end", ev.SlotEnd,
		"link", link,
	)
	return nil
}

// RetryingPusher decouples calendar delivery from the booking decision.
// Push hands the event to a background worker and returns immediately;
// the worker retries with backoff and gives up after maxAttempts, logging
// the loss. The ledger confirmation is never affected.
type RetryingPusher struct {
	next        Pusher
	logger      *logging.Logger
	maxAttempts int
	baseDelay   time.Duration

	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

func NewRetryingPusher(next Pusher, logger *logging.Logger) *RetryingPusher {
	if logger == nil {
		logger = logging.Default()
	}
	p := &RetryingPusher{
		next:        next,
		logger:      logger,
		maxAttempts: 5,
		baseDelay:   2 * time.Second,
		queue:       make(chan Event, 64),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *RetryingPusher) WithMaxAttempts(n int) *RetryingPusher {
	if n > 0 {
		p.maxAttempts = n
	}
	return p
}

func (p *RetryingPusher) WithBaseDelay(d time.Duration) *RetryingPusher {
	if d > 0 {
		p.baseDelay = d
	}
	return p
}

// Push enqueues the event. A full queue drops the push with a log line
// rather than blocking a booking commit.
func (p *RetryingPusher) Push(ctx context.Context, ev Event) error {
	select {
	case p.queue <- ev:
	default:
		p.logger.Error("calendar push queue full, dropping event", "appointment_id", ev.AppointmentID)
	}
	return nil
}

// Close drains the queue and stops the worker.
func (p *RetryingPusher) Close() {
	p.once.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

func (p *RetryingPusher) run() {
	defer p.wg.Done()

	for ev := range p.queue {
		p.deliver(ev)
	}
}

func (p *RetryingPusher) deliver(ev Event) {
	delay := p.baseDelay
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := p.next.Push(ctx, ev)
		cancel()
		if err == nil {
			return
		}

		p.logger.Error("calendar push failed",
			"appointment_id", ev.AppointmentID,
			"attempt", attempt,
			"error", err,
		)
		if attempt < p.maxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}

	p.logger.Error("calendar push abandoned after max attempts", "appointment_id", ev.AppointmentID)
}
