package orders

import (
	"fmt"

	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
)

// orderTransitions is the closed allow-list of order-level moves. Anything
// not listed is illegal, regardless of which entry point asks.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingPayment: {
		enums.OrderStatusProcessing,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPaymentFailed,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusPaymentFailed,
	},
	// A failed order is only revived by the retry path in the builder.
	enums.OrderStatusPaymentFailed: {
		enums.OrderStatusPendingPayment,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusScheduled,
		enums.OrderStatusScheduleConfirmed,
		enums.OrderStatusSampleCollected,
		enums.OrderStatusSampleReceivedByLab,
		enums.OrderStatusTestingInProgress,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusScheduled: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusScheduleConfirmed,
		enums.OrderStatusSampleCollected,
		enums.OrderStatusSampleReceivedByLab,
		enums.OrderStatusTestingInProgress,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusScheduleConfirmed: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusScheduled,
		enums.OrderStatusSampleCollected,
		enums.OrderStatusSampleReceivedByLab,
		enums.OrderStatusTestingInProgress,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusSampleCollected: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusScheduled,
		enums.OrderStatusScheduleConfirmed,
		enums.OrderStatusSampleReceivedByLab,
		enums.OrderStatusTestingInProgress,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusSampleReceivedByLab: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusScheduled,
		enums.OrderStatusScheduleConfirmed,
		enums.OrderStatusSampleCollected,
		enums.OrderStatusTestingInProgress,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusTestingInProgress: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusScheduled,
		enums.OrderStatusScheduleConfirmed,
		enums.OrderStatusSampleCollected,
		enums.OrderStatusSampleReceivedByLab,
		enums.OrderStatusReportReady,
	},
	enums.OrderStatusReportReady: {},
}

// CanTransitionOrder reports whether from -> to appears on the allow-list.
// Self-transitions are not moves.
func CanTransitionOrder(from, to enums.OrderStatus) bool {
	if from == to {
		return false
	}
	for _, candidate := range orderTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ManualTransitionAllowed enforces the rules of the manual status API:
// confirmed is webhook-only, fulfillment stages require a completed payment,
// and post-payment orders never regress to pending_payment.
func ManualTransitionAllowed(order *models.Order, target enums.OrderStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	if target == enums.OrderStatusConfirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "confirmed is set by payment confirmation only")
	}
	if target.IsFulfillment() && order.PaymentStatus != enums.PaymentStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfillment statuses require a completed payment")
	}
	if target == enums.OrderStatusPendingPayment &&
		(order.PaymentStatus == enums.PaymentStatusCompleted || order.OrderStatus.IsFulfillment()) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders cannot return to pending_payment")
	}
	return nil
}

// GuardOutcome is the decision of the confirmed-order guard.
type GuardOutcome int

const (
	// GuardProceed means the mutation may go ahead.
	GuardProceed GuardOutcome = iota
	// GuardAlreadyConfirmed means the order is terminal for this mutation
	// and the caller should treat the request as a successful no-op.
	GuardAlreadyConfirmed
)

// ConfirmedGuard is consulted by every mutating entry point before touching
// an order. Confirmation and failure signals for an already-confirmed order
// are safe no-ops, never errors.
func ConfirmedGuard(order *models.Order) GuardOutcome {
	if order.OrderStatus == enums.OrderStatusConfirmed || order.PaymentStatus == enums.PaymentStatusCompleted {
		return GuardAlreadyConfirmed
	}
	return GuardProceed
}
