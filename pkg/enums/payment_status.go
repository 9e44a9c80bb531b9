package enums

import "fmt"

// PaymentStatus tracks the lifecycle of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
}

// Forward progress ranks. failed carries no rank; it is reachable from
// any non-completed status and never from completed.
var paymentStatusRank = map[PaymentStatus]int{
	PaymentStatusPending:    0,
	PaymentStatusProcessing: 1,
	PaymentStatusCompleted:  2,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from p to next preserves the
// forward-only payment ordering.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if p == next {
		return false
	}
	if next == PaymentStatusFailed {
		return p != PaymentStatusCompleted
	}
	fromRank, fromOK := paymentStatusRank[p]
	toRank, toOK := paymentStatusRank[next]
	if !fromOK || !toOK {
		return false
	}
	return toRank > fromRank
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
