package models

import "time"

// PaymentType represents what obligation a payment settles
type PaymentType string

const (
	PaymentTypeRent         PaymentType = "rent"
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeMaintenance  PaymentType = "maintenance"
)

// PaymentState is the gateway-side state reported by the backend
type PaymentState string

const (
	PaymentStatePending   PaymentState = "PENDING"
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateFailed    PaymentState = "FAILED"
)

// PaymentBreakup is the computed payment figure set shown to the tenant.
// Amounts are in rupees; FeeRate is a percentage.
type PaymentBreakup struct {
	BaseAmount  float64 `json:"base_amount"`
	FeeRate     float64 `json:"fee_rate"`
	FeeAmount   float64 `json:"fee_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// PendingPayment is the local record of an in-flight payment awaiting
// gateway confirmation. One active session at a time.
type PendingPayment struct {
	MerchantOrderID string         `json:"merchant_order_id"`
	OrderID         string         `json:"order_id"`
	Breakup         PaymentBreakup `json:"breakup"`
	PaymentType     PaymentType    `json:"payment_type"`
	RedirectURL     string         `json:"redirect_url"`
	CreatedAt       time.Time      `json:"created_at"`
}

// PaymentHistoryEntry is an immutable record of a completed payment.
// Entries are kept newest-first up to a retention cap.
type PaymentHistoryEntry struct {
	ID              string      `json:"id"`
	MerchantOrderID string      `json:"merchant_order_id"`
	Amount          float64     `json:"amount"`
	FeeAmount       float64     `json:"fee_amount"`
	TotalAmount     float64     `json:"total_amount"`
	PaymentDate     time.Time   `json:"payment_date"`
	Status          string      `json:"status"`
	Month           string      `json:"month"`
	PaymentType     PaymentType `json:"payment_type"`
	TransactionID   string      `json:"transaction_id,omitempty"`
	InvoiceID       string      `json:"invoice_id,omitempty"`
}

// InitiatePaymentRequest is sent to the backend payment-initiation endpoint
type InitiatePaymentRequest struct {
	Amount      float64     `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
}

// InitiatePaymentResponse is returned by the backend on initiation.
// The backend-computed breakup, when present, is authoritative.
type InitiatePaymentResponse struct {
	Success         bool            `json:"success"`
	RedirectURL     string          `json:"redirect_url,omitempty"`
	MerchantOrderID string          `json:"merchant_order_id,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	Breakup         *PaymentBreakup `json:"payment_breakup,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// VerifyStatusResponse is returned by the backend status endpoint
type VerifyStatusResponse struct {
	Success bool         `json:"success"`
	State   PaymentState `json:"state,omitempty"`
	Error   string       `json:"error,omitempty"`
}
