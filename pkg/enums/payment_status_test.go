package enums

import "testing"

func TestPaymentStatusCanTransitionTo(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to PaymentStatus }{
		{PaymentStatusPending, PaymentStatusProcessing},
		{PaymentStatusPending, PaymentStatusCompleted},
		{PaymentStatusProcessing, PaymentStatusCompleted},
		{PaymentStatusPending, PaymentStatusFailed},
		{PaymentStatusProcessing, PaymentStatusFailed},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to PaymentStatus }{
		{PaymentStatusCompleted, PaymentStatusFailed},
		{PaymentStatusCompleted, PaymentStatusPending},
		{PaymentStatusCompleted, PaymentStatusProcessing},
		{PaymentStatusProcessing, PaymentStatusPending},
		{PaymentStatusFailed, PaymentStatusCompleted},
		{PaymentStatusPending, PaymentStatusPending},
	}
	for _, tc := range denied {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}
