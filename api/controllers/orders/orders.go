package orders

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/api/middleware"
	"github.com/nucleotide-health/nucleotide-backend/api/responses"
	"github.com/nucleotide-health/nucleotide-backend/api/validators"
	ordersvc "github.com/nucleotide-health/nucleotide-backend/internal/orders"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

// Razorpay webhook bodies are small; anything larger is not ours.
const maxWebhookBodyBytes = 1 << 20

type createOrderPayload struct {
	CartItemID string  `json:"cart_item_id" validate:"required,uuid4"`
	AddressID  *string `json:"address_id,omitempty" validate:"omitempty,uuid4"`
}

type verifyPaymentPayload struct {
	OrderID           string `json:"order_id" validate:"required,uuid4"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type updateStatusPayload struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`

	OrderItemID *string `json:"order_item_id,omitempty" validate:"omitempty,uuid4"`
	AddressID   *string `json:"address_id,omitempty" validate:"omitempty,uuid4"`

	ScheduledDate     *time.Time `json:"scheduled_date,omitempty"`
	TechnicianName    *string    `json:"technician_name,omitempty"`
	TechnicianContact *string    `json:"technician_contact,omitempty"`

	ChangedBy string `json:"changed_by,omitempty"`
}

// Create starts checkout for the caller's cart and opens a gateway order.
func Create(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartItemID, err := uuid.Parse(payload.CartItemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item id"))
			return
		}

		input := ordersvc.CreateOrderInput{
			UserID:     userID,
			CartItemID: cartItemID,
		}
		if payload.AddressID != nil {
			addressID, err := uuid.Parse(*payload.AddressID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
				return
			}
			input.AddressID = &addressID
		}

		result, err := svc.CreateOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Verify records the frontend-reported payment signature. The outcome is
// advisory; the webhook remains the source of truth for confirmation.
func Verify(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload verifyPaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.VerifyPayment(ctx, ordersvc.VerifyPaymentInput{
			UserID:            userID,
			OrderID:           orderID,
			RazorpayOrderID:   payload.RazorpayOrderID,
			RazorpayPaymentID: payload.RazorpayPaymentID,
			RazorpaySignature: payload.RazorpaySignature,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Webhook ingests gateway deliveries. The raw body is passed through
// untouched because the signature covers the exact bytes on the wire.
func Webhook(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable webhook body"))
			return
		}

		result, err := svc.ProcessWebhook(ctx, body, r.Header.Get(webhookSignatureHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UpdateStatus applies a manual fulfillment transition at order, item, or
// address scope.
func UpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderNumber := chi.URLParam(r, "orderNumber")
		if orderNumber == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
			return
		}

		var payload updateStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := enums.OrderStatus(payload.Status)
		if !status.IsValid() {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
					WithDetails(map[string]string{"status": payload.Status}))
			return
		}

		input := ordersvc.UpdateStatusInput{
			OrderNumber:       orderNumber,
			Status:            status,
			Notes:             sanitized(payload.Notes, 1000),
			ScheduledDate:     payload.ScheduledDate,
			TechnicianName:    sanitized(payload.TechnicianName, 120),
			TechnicianContact: sanitized(payload.TechnicianContact, 40),
			ChangedBy:         validators.SanitizeString(payload.ChangedBy, 120),
		}

		if payload.OrderItemID != nil {
			itemID, err := uuid.Parse(*payload.OrderItemID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order item id"))
				return
			}
			input.OrderItemID = &itemID
		}
		if payload.AddressID != nil {
			addressID, err := uuid.Parse(*payload.AddressID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
				return
			}
			input.AddressID = &addressID
		}

		result, err := svc.UpdateStatus(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// List returns the caller's paid orders grouped per product bundle.
func List(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summaries, err := svc.ListOrders(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": summaries})
	}
}

// Tracking returns per-item progress for one of the caller's paid orders.
func Tracking(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := callerID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderNumber := chi.URLParam(r, "orderNumber")
		if orderNumber == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
			return
		}

		result, err := svc.Tracking(ctx, userID, orderNumber)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func sanitized(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
