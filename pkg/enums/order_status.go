package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order from checkout through
// report delivery.
type OrderStatus string

const (
	OrderStatusPendingPayment       OrderStatus = "pending_payment"
	OrderStatusProcessing           OrderStatus = "processing"
	OrderStatusConfirmed            OrderStatus = "confirmed"
	OrderStatusPaymentFailed        OrderStatus = "payment_failed"
	OrderStatusScheduled            OrderStatus = "scheduled"
	OrderStatusScheduleConfirmed    OrderStatus = "schedule_confirmed_by_lab"
	OrderStatusSampleCollected      OrderStatus = "sample_collected"
	OrderStatusSampleReceivedByLab  OrderStatus = "sample_received_by_lab"
	OrderStatusTestingInProgress    OrderStatus = "testing_in_progress"
	OrderStatusReportReady          OrderStatus = "report_ready"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusProcessing,
	OrderStatusConfirmed,
	OrderStatusPaymentFailed,
	OrderStatusScheduled,
	OrderStatusScheduleConfirmed,
	OrderStatusSampleCollected,
	OrderStatusSampleReceivedByLab,
	OrderStatusTestingInProgress,
	OrderStatusReportReady,
}

// Statuses where technician assignment and scheduling fields carry no
// meaning and are cleared unless explicitly supplied.
var technicianIrrelevantStatuses = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusSampleReceivedByLab,
	OrderStatusTestingInProgress,
	OrderStatusReportReady,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsPrePayment reports whether the order has not yet settled a payment.
func (o OrderStatus) IsPrePayment() bool {
	return o == OrderStatusPendingPayment || o == OrderStatusProcessing || o == OrderStatusPaymentFailed
}

// IsFulfillment reports whether the order is in the post-payment
// lab workflow.
func (o OrderStatus) IsFulfillment() bool {
	switch o {
	case OrderStatusConfirmed,
		OrderStatusScheduled,
		OrderStatusScheduleConfirmed,
		OrderStatusSampleCollected,
		OrderStatusSampleReceivedByLab,
		OrderStatusTestingInProgress,
		OrderStatusReportReady:
		return true
	}
	return false
}

// TechnicianIrrelevant reports whether technician and schedule fields
// should be cleared when moving into this status.
func (o OrderStatus) TechnicianIrrelevant() bool {
	for _, candidate := range technicianIrrelevantStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
