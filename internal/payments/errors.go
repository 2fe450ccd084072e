package payments

import (
	"errors"
	"strings"
)

// FlowErrorKind classifies initiation failures so the UI can present a
// distinct message per kind
type FlowErrorKind string

const (
	KindAuthRequired        FlowErrorKind = "auth_required"
	KindInitiationFailed    FlowErrorKind = "initiation_failed"
	KindDuplicatePayment    FlowErrorKind = "duplicate_payment"
	KindRedirectUnavailable FlowErrorKind = "redirect_unavailable"
)

// FlowError is any surfaced failure of the payment flow
type FlowError struct {
	Kind    FlowErrorKind
	Message string
	cause   error
}

func (e *FlowError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *FlowError) Unwrap() error {
	return e.cause
}

func newFlowError(kind FlowErrorKind, message string, cause error) *FlowError {
	return &FlowError{Kind: kind, Message: message, cause: cause}
}

// ErrorKind returns the flow error kind, or "" for other errors
func ErrorKind(err error) FlowErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// isDuplicateMessage reports whether a backend error message indicates
// the obligation is already settled ("Rent for this month has already
// been fully paid" and close variants).
func isDuplicateMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "already") && strings.Contains(m, "paid")
}
