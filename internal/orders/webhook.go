package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/razorpay"
	"github.com/nucleotide-health/nucleotide-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	webhookEventPaymentCaptured = "payment.captured"
	webhookEventPaymentFailed   = "payment.failed"
	webhookEventOrderPaid       = "order.paid"
)

type webhookEntity struct {
	ID               string   `json:"id"`
	OrderID          string   `json:"order_id"`
	Status           string   `json:"status"`
	ErrorCode        string   `json:"error_code"`
	ErrorDescription string   `json:"error_description"`
	Payments         []string `json:"payments"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	EventID string `json:"event_id"`
	Payload struct {
		Payment struct {
			Entity webhookEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity webhookEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ProcessWebhook is the authoritative payment path. Every delivery is logged
// before any state changes; internal failures surface as errors so the
// gateway retries, while unknown orders and repeats acknowledge cleanly.
func (s *service) ProcessWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing webhook signature")
	}

	// The signature covers the raw bytes, so it is checked before any
	// decoding; the envelope parse below is best-effort until then.
	signatureValid := razorpay.VerifyWebhookSignature(s.webhookSecret, body, signature)

	var envelope webhookEnvelope
	parseErr := json.Unmarshal(body, &envelope)

	var payload types.JSONMap
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = types.JSONMap{"raw": string(body)}
	}

	log := &models.WebhookLog{
		EventType:      envelope.Event,
		Payload:        payload,
		SignatureValid: signatureValid,
	}
	if envelope.EventID != "" {
		log.EventID = &envelope.EventID
	}
	if !signatureValid {
		reason := "webhook signature verification failed"
		log.SignatureVerificationError = &reason
	}
	if _, err := s.repo.CreateWebhookLog(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to log webhook delivery")
	}

	lg := s.logg.WithWebhookEvent(ctx, envelope.Event, envelope.EventID)
	if !signatureValid {
		s.logg.Warn(lg, "webhook rejected: bad signature")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "webhook signature verification failed")
	}
	if parseErr != nil {
		err := pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "malformed webhook payload")
		s.markWebhookFailed(ctx, log.ID, err)
		return nil, err
	}

	result, err := s.dispatchWebhook(ctx, lg, log, &envelope)
	if err != nil {
		s.markWebhookFailed(ctx, log.ID, err)
		return nil, err
	}
	s.markWebhookProcessed(ctx, log.ID)
	return result, nil
}

func (s *service) dispatchWebhook(ctx context.Context, lg context.Context, log *models.WebhookLog, envelope *webhookEnvelope) (*WebhookResult, error) {
	switch envelope.Event {
	case webhookEventPaymentCaptured, webhookEventOrderPaid:
		return s.handlePaymentCaptured(ctx, lg, log, envelope)
	case webhookEventPaymentFailed:
		return s.handlePaymentFailed(ctx, lg, log, envelope)
	default:
		s.logg.Info(lg, "unhandled webhook event acknowledged")
		return &WebhookResult{Status: "ignored", Message: fmt.Sprintf("event %s not handled", envelope.Event)}, nil
	}
}

// gatewayOrderID prefers the payment entity's order reference and falls back
// to the order entity for order.paid deliveries.
func gatewayOrderID(envelope *webhookEnvelope) string {
	if id := envelope.Payload.Payment.Entity.OrderID; id != "" {
		return id
	}
	return envelope.Payload.Order.Entity.ID
}

// gatewayPaymentRef reads the captured payment id, falling back to the order
// entity's payment list for order.paid deliveries.
func gatewayPaymentRef(envelope *webhookEnvelope) string {
	if id := envelope.Payload.Payment.Entity.ID; id != "" {
		return id
	}
	if payments := envelope.Payload.Order.Entity.Payments; len(payments) > 0 {
		return payments[0]
	}
	return ""
}

func (s *service) handlePaymentCaptured(ctx context.Context, lg context.Context, log *models.WebhookLog, envelope *webhookEnvelope) (*WebhookResult, error) {
	orderRef := gatewayOrderID(envelope)
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing order reference")
	}
	gatewayPaymentID := gatewayPaymentRef(envelope)

	payment, err := s.repo.FindLatestPaymentByGatewayOrderID(ctx, orderRef)
	if err != nil {
		if isNotFound(err) {
			// Not ours. Acknowledge so the gateway stops retrying.
			s.logg.Warn(lg, "webhook for unknown gateway order acknowledged")
			return &WebhookResult{Status: "ignored", Message: "no matching payment"}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up payment")
	}

	s.recordWebhookSubjects(ctx, log.ID, payment, orderRef, gatewayPaymentID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to lock order")
		}
		if ConfirmedGuard(order) == GuardAlreadyConfirmed {
			s.logg.Info(lg, "duplicate confirmation acknowledged")
			return nil
		}
		return s.confirmOrderLocked(ctx, tx, repo, order, payment, log.ID, gatewayPaymentID)
	})
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Status: "processed", Message: "payment confirmed"}, nil
}

// confirmOrderLocked is the one place an order becomes confirmed. The caller
// must hold the order row lock.
func (s *service) confirmOrderLocked(
	ctx context.Context,
	tx *gorm.DB,
	repo Repository,
	order *models.Order,
	payment *models.Payment,
	webhookLogID uuid.UUID,
	gatewayPaymentID string,
) error {
	now := time.Now().UTC()
	lg := s.logg.WithOrderID(ctx, order.ID.String())

	extra := map[string]any{}
	if gatewayPaymentID != "" {
		extra["razorpay_payment_id"] = gatewayPaymentID
	}
	if err := transitionPayment(ctx, repo, payment, enums.PaymentStatusCompleted,
		"gateway confirmed capture", enums.TransitionTriggerWebhook, &webhookLogID, extra); err != nil {
		return err
	}

	orderUpdates := map[string]any{
		"order_status":      enums.OrderStatusConfirmed,
		"payment_status":    enums.PaymentStatusCompleted,
		"payment_date":      now,
		"status_updated_at": now,
	}
	if gatewayPaymentID != "" {
		orderUpdates["razorpay_payment_id"] = gatewayPaymentID
	}
	if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
		return err
	}

	items, err := repo.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := repo.UpdateOrderItemsByOrder(ctx, order.ID, map[string]any{
		"order_status": enums.OrderStatusConfirmed,
	}); err != nil {
		return err
	}
	notes := "payment confirmed by gateway"
	if err := appendOrderHistory(ctx, repo, order, enums.OrderStatusConfirmed, &notes, systemActor); err != nil {
		return err
	}
	for i := range items {
		if err := appendItemHistory(ctx, repo, &items[i], enums.OrderStatusConfirmed, &notes, systemActor); err != nil {
			return err
		}
	}
	order.OrderStatus = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusCompleted

	// Post-confirmation side effects run inside the transaction but never
	// roll back a confirmed payment. Failures are logged for the
	// reconciliation job to pick up.
	s.runConfirmationSideEffects(ctx, lg, tx, repo, order)

	s.logg.Info(lg, "order confirmed")
	return nil
}

// runConfirmationSideEffects clears the user's cart and enrolls the test
// participants recorded in the order snapshots. Best effort.
func (s *service) runConfirmationSideEffects(ctx context.Context, lg context.Context, tx *gorm.DB, repo Repository, order *models.Order) {
	items, err := s.cart.LiveItems(ctx, order.UserID)
	if err != nil {
		s.logg.Error(lg, "cart lookup failed after confirmation", err)
	} else if len(items) > 0 {
		if err := s.cart.ClearCart(ctx, tx, order.UserID, items[0].CartID); err != nil {
			s.logg.Error(lg, "cart clear failed after confirmation", err)
		}
	}

	snapshots, err := repo.FindSnapshotsByOrder(ctx, order.ID)
	if err != nil {
		s.logg.Error(lg, "snapshot lookup failed after confirmation", err)
		return
	}
	for _, snapshot := range snapshots {
		input, ok := enrollmentFromSnapshot(order, snapshot)
		if !ok {
			continue
		}
		if err := s.enrollment.Upsert(ctx, tx, input); err != nil {
			s.logg.Error(lg, "enrollment upsert failed after confirmation", err)
		}
	}
}

func enrollmentFromSnapshot(order *models.Order, snapshot models.OrderSnapshot) (EnrollmentInput, bool) {
	memberID, ok := snapshotUUID(snapshot.MemberData, "member_id")
	if !ok {
		return EnrollmentInput{}, false
	}
	productID, ok := snapshotUUID(snapshot.ProductData, "product_id")
	if !ok {
		return EnrollmentInput{}, false
	}
	input := EnrollmentInput{
		UserID:    order.UserID,
		MemberID:  memberID,
		ProductID: productID,
		OrderID:   order.ID,
	}
	if name, ok := snapshot.MemberData["name"].(string); ok {
		input.MemberName = name
	}
	if mobile, ok := snapshot.MemberData["mobile"].(string); ok {
		input.MemberMobile = mobile
	}
	if plan, ok := snapshot.ProductData["plan_type"].(string); ok && plan != "" {
		input.PlanType = &plan
	}
	return input, true
}

func snapshotUUID(data types.JSONMap, key string) (uuid.UUID, bool) {
	raw, ok := data[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *service) handlePaymentFailed(ctx context.Context, lg context.Context, log *models.WebhookLog, envelope *webhookEnvelope) (*WebhookResult, error) {
	orderRef := gatewayOrderID(envelope)
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing order reference")
	}

	payment, err := s.repo.FindLatestPaymentByGatewayOrderID(ctx, orderRef)
	if err != nil {
		if isNotFound(err) {
			s.logg.Warn(lg, "failure webhook for unknown gateway order acknowledged")
			return &WebhookResult{Status: "ignored", Message: "no matching payment"}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up payment")
	}

	s.recordWebhookSubjects(ctx, log.ID, payment, orderRef, envelope.Payload.Payment.Entity.ID)

	reason := envelope.Payload.Payment.Entity.ErrorDescription
	if reason == "" {
		reason = "payment failed at gateway"
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to lock order")
		}
		logID := log.ID
		return s.failOrderLocked(ctx, repo, order, reason, enums.TransitionTriggerWebhook, &logID)
	})
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Status: "processed", Message: "payment failure recorded"}, nil
}

// recordWebhookSubjects back-fills the delivery log with the entities it
// resolved to. Best effort.
func (s *service) recordWebhookSubjects(ctx context.Context, logID uuid.UUID, payment *models.Payment, gatewayOrderID, gatewayPaymentID string) {
	updates := map[string]any{
		"payment_id":        payment.ID,
		"order_id":          payment.OrderID,
		"razorpay_order_id": gatewayOrderID,
	}
	if gatewayPaymentID != "" {
		updates["razorpay_payment_id"] = gatewayPaymentID
	}
	if err := s.repo.UpdateWebhookLog(ctx, logID, updates); err != nil {
		s.logg.Error(ctx, "failed to annotate webhook log", err)
	}
}

func (s *service) markWebhookProcessed(ctx context.Context, logID uuid.UUID) {
	now := time.Now().UTC()
	if err := s.repo.UpdateWebhookLog(ctx, logID, map[string]any{
		"processed":    true,
		"processed_at": now,
	}); err != nil {
		s.logg.Error(ctx, "failed to mark webhook processed", err)
	}
}

func (s *service) markWebhookFailed(ctx context.Context, logID uuid.UUID, cause error) {
	msg := cause.Error()
	if err := s.repo.UpdateWebhookLog(ctx, logID, map[string]any{
		"processing_error": msg,
	}); err != nil {
		s.logg.Error(ctx, "failed to mark webhook errored", err)
	}
}
