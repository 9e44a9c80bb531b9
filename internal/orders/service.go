package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
	"gorm.io/gorm"
)

const systemActor = "system"

type service struct {
	repo       Repository
	tx         txRunner
	cart       CartService
	coupons    CouponValidator
	enrollment EnrollmentService
	gateway    GatewayClient
	logg       *logger.Logger

	keySecret     string
	webhookSecret string

	deliveryChargePaise int64
	currency            string
}

// Options carries the checkout tunables the service needs beyond its
// collaborators.
type Options struct {
	KeySecret           string
	WebhookSecret       string
	DeliveryChargePaise int64
	Currency            string
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	cart CartService,
	coupons CouponValidator,
	enrollment EnrollmentService,
	gateway GatewayClient,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if enrollment == nil {
		return nil, fmt.Errorf("enrollment service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.KeySecret == "" {
		return nil, fmt.Errorf("razorpay key secret required")
	}
	if opts.WebhookSecret == "" {
		return nil, fmt.Errorf("razorpay webhook secret required")
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &service{
		repo:                repo,
		tx:                  tx,
		cart:                cart,
		coupons:             coupons,
		enrollment:          enrollment,
		gateway:             gateway,
		logg:                logg,
		keySecret:           opts.KeySecret,
		webhookSecret:       opts.WebhookSecret,
		deliveryChargePaise: opts.DeliveryChargePaise,
		currency:            opts.Currency,
	}, nil
}

// appendOrderHistory writes one order-level audit row.
func appendOrderHistory(ctx context.Context, repo Repository, order *models.Order, status enums.OrderStatus, notes *string, changedBy string) error {
	previous := order.OrderStatus
	if changedBy == "" {
		changedBy = systemActor
	}
	return repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:        order.ID,
		Status:         status,
		PreviousStatus: &previous,
		Notes:          notes,
		ChangedBy:      &changedBy,
	})
}

// appendItemHistory writes one item-level audit row.
func appendItemHistory(ctx context.Context, repo Repository, item *models.OrderItem, status enums.OrderStatus, notes *string, changedBy string) error {
	previous := item.OrderStatus
	if changedBy == "" {
		changedBy = systemActor
	}
	return repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:        item.OrderID,
		OrderItemID:    &item.ID,
		Status:         status,
		PreviousStatus: &previous,
		Notes:          notes,
		ChangedBy:      &changedBy,
	})
}

// transitionPayment moves a payment along the monotone ladder, recording the
// transition row. Illegal moves fail before anything is written.
func transitionPayment(
	ctx context.Context,
	repo Repository,
	payment *models.Payment,
	to enums.PaymentStatus,
	reason string,
	trigger enums.TransitionTrigger,
	webhookLogID *uuid.UUID,
	extraUpdates map[string]any,
) error {
	if !payment.Status.CanTransitionTo(to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment cannot move from %s to %s", payment.Status, to))
	}
	updates := map[string]any{"status": to}
	for k, v := range extraUpdates {
		updates[k] = v
	}
	if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return err
	}
	from := payment.Status
	if err := repo.CreatePaymentTransition(ctx, &models.PaymentTransition{
		PaymentID:        payment.ID,
		FromStatus:       &from,
		ToStatus:         to,
		TransitionReason: &reason,
		TriggeredBy:      trigger,
		WebhookLogID:     webhookLogID,
	}); err != nil {
		return err
	}
	payment.Status = to
	return nil
}

// openingTransition records the birth of a payment attempt with a nil
// from-status.
func openingTransition(ctx context.Context, repo Repository, payment *models.Payment, reason string, trigger enums.TransitionTrigger) error {
	return repo.CreatePaymentTransition(ctx, &models.PaymentTransition{
		PaymentID:        payment.ID,
		FromStatus:       nil,
		ToStatus:         payment.Status,
		TransitionReason: &reason,
		TriggeredBy:      trigger,
	})
}

// MarkPaymentFailed is the single failure path shared by the verify endpoint,
// the webhook processor, and the reconcile job. Failing a completed payment is
// a logged no-op.
func (s *service) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string, trigger enums.TransitionTrigger) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return s.failOrderLocked(ctx, repo, order, reason, trigger, nil)
	})
}

// failOrderLocked marks the latest payment attempt and the order as failed.
// The caller must hold the order row lock.
func (s *service) failOrderLocked(
	ctx context.Context,
	repo Repository,
	order *models.Order,
	reason string,
	trigger enums.TransitionTrigger,
	webhookLogID *uuid.UUID,
) error {
	lg := s.logg.WithOrderID(ctx, order.ID.String())
	if ConfirmedGuard(order) == GuardAlreadyConfirmed {
		s.logg.Warn(lg, "failure signal for completed payment ignored")
		return nil
	}
	payment, err := repo.FindLatestPaymentByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no payment attempt for order")
	}
	if payment.Status == enums.PaymentStatusFailed {
		s.logg.Info(lg, "payment already failed")
	} else if err := transitionPayment(ctx, repo, payment, enums.PaymentStatusFailed, reason, trigger, webhookLogID, nil); err != nil {
		return err
	}
	if order.OrderStatus != enums.OrderStatusPaymentFailed {
		now := time.Now().UTC()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"order_status":      enums.OrderStatusPaymentFailed,
			"payment_status":    enums.PaymentStatusFailed,
			"status_updated_at": now,
		}); err != nil {
			return err
		}
		items, err := repo.FindItemsByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := repo.UpdateOrderItemsByOrder(ctx, order.ID, map[string]any{
			"order_status": enums.OrderStatusPaymentFailed,
		}); err != nil {
			return err
		}
		if err := appendOrderHistory(ctx, repo, order, enums.OrderStatusPaymentFailed, &reason, string(trigger)); err != nil {
			return err
		}
		for i := range items {
			if err := appendItemHistory(ctx, repo, &items[i], enums.OrderStatusPaymentFailed, &reason, string(trigger)); err != nil {
				return err
			}
		}
		order.OrderStatus = enums.OrderStatusPaymentFailed
		order.PaymentStatus = enums.PaymentStatusFailed
	}
	s.logg.Warn(lg, "order marked payment_failed")
	return nil
}
