package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tenantpay/internal/models"
	"tenantpay/internal/store"
)

// immediateClock fires every wait at once so poll loops run flat-out
type immediateClock struct{}

func (immediateClock) Now() time.Time { return time.Now() }

func (immediateClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// stuckClock never fires, keeping the loop parked in its wait
type stuckClock struct{}

func (stuckClock) Now() time.Time { return time.Now() }

func (stuckClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

type statusResponse struct {
	state models.PaymentState
	err   error
}

// scriptedBackend replays a fixed sequence of status responses,
// repeating the last one once exhausted
type scriptedBackend struct {
	mu          sync.Mutex
	responses   []statusResponse
	statusCalls int

	initResp *models.InitiatePaymentResponse
	initErr  error
}

func (b *scriptedBackend) InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	return b.initResp, b.initErr
}

func (b *scriptedBackend) VerifyStatus(ctx context.Context, merchantOrderID string) (models.PaymentState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCalls++
	i := b.statusCalls - 1
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	r := b.responses[i]
	return r.state, r.err
}

func (b *scriptedBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

func testBreakup() models.PaymentBreakup {
	return models.PaymentBreakup{BaseAmount: 5000, FeeRate: 2.0, FeeAmount: 100, TotalAmount: 5100}
}

func seedPending(t *testing.T, s store.PendingStore, orderID string) {
	t.Helper()
	err := s.SavePending(context.Background(), &models.PendingPayment{
		MerchantOrderID: orderID,
		Breakup:         testBreakup(),
		PaymentType:     models.PaymentTypeRent,
	})
	if err != nil {
		t.Fatalf("failed to seed pending record: %v", err)
	}
}

func drain(t *testing.T, h *PollHandle) []PollEvent {
	t.Helper()
	var events []PollEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-h.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("poll stream did not close in time")
		}
	}
}

func TestPoller_completedAppendsHistoryAndClearsPending(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStatePending},
		{state: models.PaymentStateCompleted},
	}}

	p := NewPoller(backend, s, s, WithClock(immediateClock{}), WithMaxAttempts(20))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	events := drain(t, h)
	last := events[len(events)-1]
	if last.Type != EventCompleted {
		t.Fatalf("expected COMPLETED, got %s", last.Type)
	}
	if last.Breakup == nil || last.Breakup.TotalAmount != 5100 {
		t.Fatalf("expected breakup on COMPLETED event, got %+v", last.Breakup)
	}

	// Terminal state absorbs: the loop stopped after the second query
	if calls := backend.calls(); calls != 2 {
		t.Fatalf("expected 2 status queries, got %d", calls)
	}

	history, _ := s.History(context.Background())
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].MerchantOrderID != "m1" || history[0].Status != "completed" {
		t.Fatalf("unexpected history entry: %+v", history[0])
	}
	if history[0].Month == "" {
		t.Fatal("expected month label on history entry")
	}

	if pending, _ := s.GetPending(context.Background()); pending != nil {
		t.Fatalf("expected pending record cleared, got %+v", pending)
	}
}

func TestPoller_failedClearsPendingWithoutHistory(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStateFailed},
	}}

	p := NewPoller(backend, s, s, WithClock(immediateClock{}))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	events := drain(t, h)
	last := events[len(events)-1]
	if last.Type != EventFailed {
		t.Fatalf("expected FAILED, got %s", last.Type)
	}
	if last.Reason == "" {
		t.Fatal("expected a failure reason")
	}

	if history, _ := s.History(context.Background()); len(history) != 0 {
		t.Fatalf("expected no history entries, got %d", len(history))
	}
	if pending, _ := s.GetPending(context.Background()); pending != nil {
		t.Fatal("expected pending record cleared on failure")
	}
}

func TestPoller_timeoutAfterAttemptBudget(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStatePending},
	}}

	p := NewPoller(backend, s, s, WithClock(immediateClock{}), WithMaxAttempts(20))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	events := drain(t, h)
	last := events[len(events)-1]
	if last.Type != EventTimeout {
		t.Fatalf("expected TIMEOUT, got %s", last.Type)
	}
	if last.Attempt != 20 {
		t.Fatalf("expected timeout at attempt 20, got %d", last.Attempt)
	}

	// Never silently continues past the budget
	if calls := backend.calls(); calls != 20 {
		t.Fatalf("expected exactly 20 status queries, got %d", calls)
	}

	// TIMEOUT is terminal and unknown-outcome: no history entry
	if history, _ := s.History(context.Background()); len(history) != 0 {
		t.Fatalf("expected no history entries, got %d", len(history))
	}
	if pending, _ := s.GetPending(context.Background()); pending != nil {
		t.Fatal("expected pending record cleared on timeout")
	}
}

func TestPoller_transientErrorsConsumeBudget(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{err: errors.New("connection refused")},
		{state: models.PaymentStatePending},
		{err: errors.New("connection refused")},
	}}

	p := NewPoller(backend, s, s, WithClock(immediateClock{}), WithMaxAttempts(5))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	events := drain(t, h)
	last := events[len(events)-1]
	if last.Type != EventTimeout {
		t.Fatalf("expected TIMEOUT, got %s", last.Type)
	}
	if calls := backend.calls(); calls != 5 {
		t.Fatalf("expected 5 status queries, got %d", calls)
	}
}

func TestPoller_duplicateCompletedDoesNotDoubleAppend(t *testing.T) {
	s := store.NewMemoryStore(10)
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStateCompleted},
	}}
	p := NewPoller(backend, s, s, WithClock(immediateClock{}))

	// A duplicate late COMPLETED response: the same order polled twice
	for i := 0; i < 2; i++ {
		seedPending(t, s, "m1")
		h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		drain(t, h)
	}

	history, _ := s.History(context.Background())
	if len(history) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(history))
	}
}

func TestPoller_onePollPerOrder(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStatePending},
	}}

	p := NewPoller(backend, s, s, WithClock(stuckClock{}))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("first poll failed: %v", err)
	}

	if _, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent); err == nil {
		t.Fatal("expected second poll for same order to be rejected")
	}

	// A different order is fine
	h2, err := p.Poll(context.Background(), "m2", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll for different order failed: %v", err)
	}

	h.Cancel()
	h2.Cancel()
	drain(t, h)
	drain(t, h2)

	// After the loop has stopped, the order may be polled again
	if _, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent); err != nil {
		t.Fatalf("re-poll after stop failed: %v", err)
	}
}

func TestPoller_cancelBeforeTerminalHasNoSideEffects(t *testing.T) {
	s := store.NewMemoryStore(10)
	seedPending(t, s, "m1")
	backend := &scriptedBackend{responses: []statusResponse{
		{state: models.PaymentStateCompleted},
	}}

	p := NewPoller(backend, s, s, WithClock(stuckClock{}))
	h, err := p.Poll(context.Background(), "m1", testBreakup(), models.PaymentTypeRent)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	h.Cancel()
	events := drain(t, h)

	for _, ev := range events {
		if ev.Type != EventProcessing {
			t.Fatalf("expected only PROCESSING before cancel, got %s", ev.Type)
		}
	}

	if calls := backend.calls(); calls != 0 {
		t.Fatalf("expected no status queries after immediate cancel, got %d", calls)
	}
	if history, _ := s.History(context.Background()); len(history) != 0 {
		t.Fatal("expected no history writes after cancel")
	}
	if pending, _ := s.GetPending(context.Background()); pending == nil {
		t.Fatal("expected pending record untouched after cancel")
	}
}

func TestPoller_requiresOrderID(t *testing.T) {
	s := store.NewMemoryStore(10)
	p := NewPoller(&scriptedBackend{responses: []statusResponse{{state: models.PaymentStatePending}}}, s, s)

	if _, err := p.Poll(context.Background(), "", testBreakup(), models.PaymentTypeRent); err == nil {
		t.Fatal("expected error for empty merchant order id")
	}
}
