package payments

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tenantpay/internal/metrics"
	"tenantpay/internal/models"
	"tenantpay/internal/store"
	"tenantpay/internal/timeutil"

	"github.com/google/uuid"
)

// PollEventType identifies one emission of the status poll stream
type PollEventType string

const (
	EventProcessing PollEventType = "PROCESSING"
	EventCompleted  PollEventType = "COMPLETED"
	EventFailed     PollEventType = "FAILED"
	EventTimeout    PollEventType = "TIMEOUT"
)

// PollEvent is one emission of the poll stream. Breakup is set on
// COMPLETED, Reason on FAILED.
type PollEvent struct {
	Type            PollEventType          `json:"type"`
	MerchantOrderID string                 `json:"merchant_order_id"`
	Attempt         int                    `json:"attempt"`
	Breakup         *models.PaymentBreakup `json:"breakup,omitempty"`
	Reason          string                 `json:"reason,omitempty"`
}

// Notifier receives a copy of every poll event (diagnostics feed)
type Notifier interface {
	PublishPollEvent(ev PollEvent)
}

// PollHandle controls one running poll loop
type PollHandle struct {
	events <-chan PollEvent
	cancel context.CancelFunc
}

// Events streams poll events. The channel is closed once the loop stops,
// whether by terminal state or cancellation.
func (h *PollHandle) Events() <-chan PollEvent {
	return h.events
}

// Cancel stops the loop. Safe to call more than once and after the loop
// has already reached a terminal state.
func (h *PollHandle) Cancel() {
	h.cancel()
}

// Poller reconciles payment completion through timed status queries with
// a bounded attempt budget. COMPLETED/FAILED/TIMEOUT are terminal: the
// loop stops, the pending record is cleared, and on COMPLETED a history
// entry is appended exactly once.
type Poller struct {
	backend     Backend
	pending     store.PendingStore
	history     store.HistoryStore
	clock       Clock
	interval    time.Duration
	maxAttempts int
	notifier    Notifier

	mu     sync.Mutex
	active map[string]struct{}
}

// PollerOption customizes a Poller
type PollerOption func(*Poller)

// WithClock substitutes the wall clock (tests)
func WithClock(c Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithInterval overrides the wait between status queries
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithMaxAttempts overrides the attempt budget
func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) { p.maxAttempts = n }
}

// WithNotifier mirrors poll events to a diagnostics feed
func WithNotifier(n Notifier) PollerOption {
	return func(p *Poller) { p.notifier = n }
}

func NewPoller(backend Backend, pending store.PendingStore, history store.HistoryStore, opts ...PollerOption) *Poller {
	p := &Poller{
		backend:     backend,
		pending:     pending,
		history:     history,
		clock:       RealClock(),
		interval:    30 * time.Second,
		maxAttempts: 20,
		active:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll starts a poll loop for a merchant order. Only one loop per order
// may be active at a time.
func (p *Poller) Poll(ctx context.Context, merchantOrderID string, breakup models.PaymentBreakup, paymentType models.PaymentType) (*PollHandle, error) {
	if merchantOrderID == "" {
		return nil, fmt.Errorf("merchant order id is required")
	}

	p.mu.Lock()
	if _, ok := p.active[merchantOrderID]; ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("poll already in progress for order %s", merchantOrderID)
	}
	p.active[merchantOrderID] = struct{}{}
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	// Buffered for every possible emission so the loop never blocks on
	// a slow consumer
	events := make(chan PollEvent, p.maxAttempts+2)
	handle := &PollHandle{events: events, cancel: cancel}

	go p.run(ctx, merchantOrderID, breakup, paymentType, events)

	return handle, nil
}

func (p *Poller) run(ctx context.Context, orderID string, breakup models.PaymentBreakup, paymentType models.PaymentType, events chan<- PollEvent) {
	defer func() {
		p.mu.Lock()
		delete(p.active, orderID)
		p.mu.Unlock()
		close(events)
	}()

	p.emit(events, PollEvent{Type: EventProcessing, MerchantOrderID: orderID, Attempt: 0})

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		// The next wait starts only after the previous query returned,
		// so queries for one order are strictly sequential
		select {
		case <-ctx.Done():
			log.Printf("[Poller] Cancelled while waiting, order %s", orderID)
			metrics.PollOutcomesTotal.WithLabelValues(metrics.OutcomeCancelled).Inc()
			return
		case <-p.clock.After(p.interval):
		}

		state, err := p.backend.VerifyStatus(ctx, orderID)
		metrics.PollAttemptsTotal.Inc()

		// No side effects after cancellation, even if the in-flight
		// query already returned a terminal state
		if ctx.Err() != nil {
			metrics.PollOutcomesTotal.WithLabelValues(metrics.OutcomeCancelled).Inc()
			return
		}

		if err != nil {
			// Transient query errors consume the attempt budget like a
			// PENDING response and are not surfaced individually
			log.Printf("[Poller] Attempt %d/%d failed for order %s: %v", attempt, p.maxAttempts, orderID, err)
			metrics.PollTransientErrorsTotal.Inc()
			continue
		}

		switch state {
		case models.PaymentStateCompleted:
			p.complete(ctx, orderID, breakup, paymentType)
			p.emit(events, PollEvent{Type: EventCompleted, MerchantOrderID: orderID, Attempt: attempt, Breakup: &breakup})
			metrics.PollOutcomesTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()
			return

		case models.PaymentStateFailed:
			if err := p.pending.ClearPending(ctx, orderID); err != nil {
				log.Printf("[Poller] Failed to clear pending record for order %s: %v", orderID, err)
			}
			p.emit(events, PollEvent{Type: EventFailed, MerchantOrderID: orderID, Attempt: attempt, Reason: "Payment failed at the gateway"})
			metrics.PollOutcomesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			return

		default:
			p.emit(events, PollEvent{Type: EventProcessing, MerchantOrderID: orderID, Attempt: attempt})
		}
	}

	// Budget exhausted while still pending: the true outcome is unknown.
	// TIMEOUT is surfaced as "check later", never as a failure.
	log.Printf("[Poller] Attempt budget exhausted for order %s", orderID)
	if err := p.pending.ClearPending(ctx, orderID); err != nil {
		log.Printf("[Poller] Failed to clear pending record for order %s: %v", orderID, err)
	}
	p.emit(events, PollEvent{Type: EventTimeout, MerchantOrderID: orderID, Attempt: p.maxAttempts})
	metrics.PollOutcomesTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
}

// complete appends the history entry (idempotent on merchant order id)
// and clears the pending record
func (p *Poller) complete(ctx context.Context, orderID string, breakup models.PaymentBreakup, paymentType models.PaymentType) {
	now := timeutil.Now()
	entry := models.PaymentHistoryEntry{
		ID:              uuid.New().String(),
		MerchantOrderID: orderID,
		Amount:          breakup.BaseAmount,
		FeeAmount:       breakup.FeeAmount,
		TotalAmount:     breakup.TotalAmount,
		PaymentDate:     now,
		Status:          "completed",
		Month:           timeutil.MonthLabel(now),
		PaymentType:     paymentType,
	}

	appended, err := p.history.AppendHistory(ctx, entry)
	if err != nil {
		log.Printf("[Poller] Failed to append history for order %s: %v", orderID, err)
	} else if !appended {
		log.Printf("[Poller] Payment already recorded: %s", orderID)
	}

	if err := p.pending.ClearPending(ctx, orderID); err != nil {
		log.Printf("[Poller] Failed to clear pending record for order %s: %v", orderID, err)
	}
}

func (p *Poller) emit(events chan<- PollEvent, ev PollEvent) {
	events <- ev
	if p.notifier != nil {
		p.notifier.PublishPollEvent(ev)
	}
}
