package payments

import (
	"context"
	"errors"
	"log"

	"tenantpay/internal/fees"
	"tenantpay/internal/metrics"
	"tenantpay/internal/models"
	"tenantpay/internal/store"
	"tenantpay/internal/timeutil"
)

// AuthChecker confirms the current credential is usable
type AuthChecker interface {
	Confirm(ctx context.Context) error
}

// Backend is the subset of the rental API the payment flow depends on
type Backend interface {
	InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error)
	VerifyStatus(ctx context.Context, merchantOrderID string) (models.PaymentState, error)
}

// Initiator submits a payment intent to the backend, persists the
// pending record and opens the gateway redirect. It never retries on
// its own; the caller re-invokes explicitly.
type Initiator struct {
	auth     AuthChecker
	backend  Backend
	pending  store.PendingStore
	fees     *fees.Calculator
	launcher URLLauncher
}

func NewInitiator(
	auth AuthChecker,
	backend Backend,
	pending store.PendingStore,
	calculator *fees.Calculator,
	launcher URLLauncher,
) *Initiator {
	return &Initiator{
		auth:     auth,
		backend:  backend,
		pending:  pending,
		fees:     calculator,
		launcher: launcher,
	}
}

// Preview computes the local fee breakup shown before initiation. It is
// display-only; the backend's figures are authoritative once the payment
// is initiated.
func (i *Initiator) Preview(baseAmount float64) models.PaymentBreakup {
	return i.fees.Breakup(baseAmount)
}

// Initiate runs the full initiation step: auth check, backend call,
// pending record, redirect launch. All failures come back as *FlowError.
func (i *Initiator) Initiate(ctx context.Context, baseAmount float64, paymentType models.PaymentType) (*models.PendingPayment, error) {
	if err := i.auth.Confirm(ctx); err != nil {
		metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultAuthRequired).Inc()
		return nil, newFlowError(KindAuthRequired, "Please sign in again to continue", err)
	}

	preview := i.fees.Breakup(baseAmount)
	if preview.TotalAmount <= 0 {
		metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, newFlowError(KindInitiationFailed, "Payment amount must be greater than zero", nil)
	}

	resp, err := i.backend.InitiatePayment(ctx, &models.InitiatePaymentRequest{
		Amount:      preview.BaseAmount,
		PaymentType: paymentType,
	})
	if err != nil {
		return nil, i.classifyInitiationError(err)
	}

	// The backend-computed breakup is authoritative for the persisted
	// record; the local preview is only a display fallback.
	breakup := preview
	if resp.Breakup != nil {
		breakup = *resp.Breakup
	}

	p := &models.PendingPayment{
		MerchantOrderID: resp.MerchantOrderID,
		OrderID:         resp.OrderID,
		Breakup:         breakup,
		PaymentType:     paymentType,
		RedirectURL:     resp.RedirectURL,
		CreatedAt:       timeutil.Now(),
	}

	// Persist before opening the redirect so a crash mid-redirect does
	// not lose the pending state
	if err := i.pending.SavePending(ctx, p); err != nil {
		metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, newFlowError(KindInitiationFailed, "Failed to save payment session", err)
	}

	if err := i.launcher.OpenURL(ctx, resp.RedirectURL); err != nil {
		log.Printf("[Initiator] Failed to open redirect for order %s: %v", resp.MerchantOrderID, err)
		metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultRedirectUnavailable).Inc()
		return nil, newFlowError(KindRedirectUnavailable, "Could not open the payment page on this device", err)
	}

	log.Printf("[Initiator] Payment initiated: order %s, total %.2f (%s)", p.MerchantOrderID, breakup.TotalAmount, paymentType)
	metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.FeeAmount.Observe(breakup.FeeAmount)

	return p, nil
}

func (i *Initiator) classifyInitiationError(err error) error {
	var fe *FlowError
	if errors.As(err, &fe) {
		return err
	}

	if isDuplicateMessage(err.Error()) {
		metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		return newFlowError(KindDuplicatePayment, err.Error(), err)
	}

	metrics.PaymentInitiationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
	msg := err.Error()
	if msg == "" {
		msg = "Payment could not be initiated. Please try again."
	}
	return newFlowError(KindInitiationFailed, msg, err)
}
