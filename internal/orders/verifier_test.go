package orders

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayment(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// seedPendingOrder runs a full checkout and returns the created order result.
func seedPendingOrder(t *testing.T, f *fixture) (*CreateOrderResult, uuid.UUID) {
	t.Helper()
	productID, memberID, addressID, userID := f.seedCatalog(500000, 450000)
	item := cartItem(userID, productID, memberID, addressID, "g1")
	f.cart.liveItems = []models.CartItem{item}
	result, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:     userID,
		CartItemID: item.ID,
	})
	require.NoError(t, err)
	return result, userID
}

func TestVerifyPayment_NonOwnerForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, _ := seedPendingOrder(t, f)

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		UserID:            uuid.New(),
		OrderID:           result.OrderID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc",
		RazorpaySignature: signPayment(result.RazorpayOrderID, "pay_abc"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestVerifyPayment_GoodSignatureMovesToProcessing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, userID := seedPendingOrder(t, f)

	out, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		UserID:            userID,
		OrderID:           result.OrderID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc",
		RazorpaySignature: signPayment(result.RazorpayOrderID, "pay_abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "processing", out.Status)

	order := f.repo.orders[result.OrderID]
	assert.Equal(t, enums.OrderStatusProcessing, order.OrderStatus)
	assert.Equal(t, enums.PaymentStatusProcessing, order.PaymentStatus)
	require.NotNil(t, order.RazorpayPaymentID)
	assert.Equal(t, "pay_abc", *order.RazorpayPaymentID)

	// Verification never confirms; only the webhook does.
	assert.NotEqual(t, enums.OrderStatusConfirmed, order.OrderStatus)
	require.Len(t, f.repo.payments, 1)
	assert.Equal(t, enums.PaymentStatusProcessing, f.repo.payments[0].Status)
}

func TestVerifyPayment_TamperedSignatureFailsOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, userID := seedPendingOrder(t, f)

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		UserID:            userID,
		OrderID:           result.OrderID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc",
		RazorpaySignature: "deadbeef",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeSignature, typed.Code())

	order := f.repo.orders[result.OrderID]
	assert.Equal(t, enums.OrderStatusPaymentFailed, order.OrderStatus)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)
}

func TestVerifyPayment_AlreadyConfirmedIsNoOp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, userID := seedPendingOrder(t, f)

	order := f.repo.orders[result.OrderID]
	order.OrderStatus = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusCompleted

	out, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		UserID:            userID,
		OrderID:           result.OrderID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc",
		RazorpaySignature: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Contains(t, out.Message, "already confirmed")
	assert.Equal(t, enums.OrderStatusConfirmed, f.repo.orders[result.OrderID].OrderStatus)
}

func TestVerifyPayment_FailedOrderDemandsNewOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, userID := seedPendingOrder(t, f)
	require.NoError(t, f.svc.MarkPaymentFailed(context.Background(), result.OrderID, "card declined", enums.TransitionTriggerWebhook))

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		UserID:            userID,
		OrderID:           result.OrderID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpayPaymentID: "pay_abc",
		RazorpaySignature: signPayment(result.RazorpayOrderID, "pay_abc"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "create a new order")
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "failed", details["payment_status"])
}

func TestMarkPaymentFailed_CompletedPaymentIsNoOp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, _ := seedPendingOrder(t, f)

	order := f.repo.orders[result.OrderID]
	order.OrderStatus = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusCompleted
	f.repo.payments[0].Status = enums.PaymentStatusCompleted

	require.NoError(t, f.svc.MarkPaymentFailed(context.Background(), result.OrderID, "late failure", enums.TransitionTriggerWebhook))
	assert.Equal(t, enums.OrderStatusConfirmed, order.OrderStatus)
	assert.Equal(t, enums.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, enums.PaymentStatusCompleted, f.repo.payments[0].Status)
}
