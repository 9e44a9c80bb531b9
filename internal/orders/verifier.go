package orders

import (
	"context"

	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/razorpay"
	"gorm.io/gorm"
)

// VerifyPayment handles the frontend's payment callback. It is advisory: a
// good signature moves the order to processing, but only the gateway webhook
// confirms it. A bad signature fails the attempt immediately.
func (s *service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	lg := s.logg.WithOrderID(ctx, input.OrderID.String())

	order, err := s.repo.FindOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	// Replays after the webhook already confirmed are fine.
	if ConfirmedGuard(order) == GuardAlreadyConfirmed {
		s.logg.Info(lg, "verify called for already-confirmed order")
		return verifyResult(order, "success", "payment already confirmed"), nil
	}
	if order.OrderStatus == enums.OrderStatusPaymentFailed || order.PaymentStatus == enums.PaymentStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"payment already failed, create a new order").
			WithDetails(map[string]any{"payment_status": string(enums.PaymentStatusFailed)})
	}

	if !razorpay.VerifyPaymentSignature(s.keySecret, input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature) {
		s.logg.Warn(lg, "payment signature mismatch")
		if err := s.MarkPaymentFailed(ctx, order.ID, "signature verification failed", enums.TransitionTriggerUser); err != nil {
			s.logg.Error(lg, "failed to record signature failure", err)
		}
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindOrderForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to lock order")
		}
		if ConfirmedGuard(locked) == GuardAlreadyConfirmed {
			order = locked
			return nil
		}
		payment, err := repo.FindLatestPaymentByOrder(ctx, locked.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no payment attempt for order")
		}
		if payment.Status == enums.PaymentStatusPending {
			if err := transitionPayment(ctx, repo, payment, enums.PaymentStatusProcessing,
				"frontend signature verified", enums.TransitionTriggerUser, nil, map[string]any{
					"razorpay_payment_id": input.RazorpayPaymentID,
					"razorpay_signature":  input.RazorpaySignature,
				}); err != nil {
				return err
			}
		}
		if locked.OrderStatus == enums.OrderStatusPendingPayment {
			if err := repo.UpdateOrder(ctx, locked.ID, map[string]any{
				"order_status":        enums.OrderStatusProcessing,
				"payment_status":      enums.PaymentStatusProcessing,
				"razorpay_payment_id": input.RazorpayPaymentID,
				"razorpay_signature":  input.RazorpaySignature,
			}); err != nil {
				return err
			}
			if err := repo.UpdateOrderItemsByOrder(ctx, locked.ID, map[string]any{
				"order_status": enums.OrderStatusProcessing,
			}); err != nil {
				return err
			}
			notes := "payment signature verified, awaiting gateway confirmation"
			if err := appendOrderHistory(ctx, repo, locked, enums.OrderStatusProcessing, &notes, input.UserID.String()); err != nil {
				return err
			}
			locked.OrderStatus = enums.OrderStatusProcessing
			locked.PaymentStatus = enums.PaymentStatusProcessing
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(lg, "payment verification accepted")
	if ConfirmedGuard(order) == GuardAlreadyConfirmed {
		return verifyResult(order, "success", "payment already confirmed"), nil
	}
	return verifyResult(order, "processing", "payment verified, awaiting gateway confirmation"), nil
}

func verifyResult(order *models.Order, status, message string) *VerifyPaymentResult {
	return &VerifyPaymentResult{
		Status:        status,
		Message:       message,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: string(order.PaymentStatus),
		OrderStatus:   string(order.OrderStatus),
	}
}
