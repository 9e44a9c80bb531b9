package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedConfirmedOrder builds a paid three-item order ready for fulfillment
// moves.
func seedConfirmedOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	productID, memberID, addressID, userID := f.seedCatalog(900000, 800000)

	secondMember := uuid.New()
	thirdMember := uuid.New()
	f.repo.members[secondMember] = models.Member{ID: secondMember, UserID: userID, Name: "Ravi"}
	f.repo.members[thirdMember] = models.Member{ID: thirdMember, UserID: userID, Name: "Meera"}

	secondAddress := uuid.New()
	f.repo.addresses[secondAddress] = models.Address{
		ID: secondAddress, UserID: userID,
		StreetAddress: "4 Park St", City: "Kolkata", State: "WB", PostalCode: "700016",
	}

	items := []models.CartItem{
		cartItem(userID, productID, memberID, addressID, "fam-1"),
		cartItem(userID, productID, secondMember, addressID, "fam-1"),
		cartItem(userID, productID, thirdMember, secondAddress, "fam-1"),
	}
	f.cart.liveItems = items

	result, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:     userID,
		CartItemID: items[0].ID,
	})
	require.NoError(t, err)

	body := capturedBody(result.RazorpayOrderID, "pay_abc")
	_, err = f.svc.ProcessWebhook(context.Background(), body, signWebhook(body))
	require.NoError(t, err)

	order, err := f.repo.FindOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, order.OrderStatus)
	return order
}

func TestUpdateStatus_ManualConfirmRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	order := seedConfirmedOrder(t, f)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "payment confirmation")
}

func TestUpdateStatus_FulfillmentRequiresPaidOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result, _ := seedPendingOrder(t, f)
	order := f.repo.orders[result.OrderID]

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusScheduled,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUpdateStatus_OrderScopeMovesEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	order := seedConfirmedOrder(t, f)

	visit := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	tech := "Suresh"
	contact := "9888877777"
	out, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber:       order.OrderNumber,
		Status:            enums.OrderStatusScheduled,
		ScheduledDate:     &visit,
		TechnicianName:    &tech,
		TechnicianContact: &contact,
		ChangedBy:         "ops-user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, ScopeOrder, out.Scope)
	assert.Equal(t, enums.OrderStatusScheduled, out.OrderStatus)
	assert.Equal(t, 3, out.UpdatedItems)

	stored := f.repo.orders[order.ID]
	assert.Equal(t, enums.OrderStatusScheduled, stored.OrderStatus)
	require.NotNil(t, stored.TechnicianName)
	assert.Equal(t, "Suresh", *stored.TechnicianName)
	require.NotNil(t, stored.ScheduledDate)
	for _, item := range f.repo.items {
		assert.Equal(t, enums.OrderStatusScheduled, item.OrderStatus)
	}
}

func TestUpdateStatus_TechnicianFieldsClearedWhenIrrelevant(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	order := seedConfirmedOrder(t, f)

	visit := time.Now().UTC()
	tech := "Suresh"
	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber:    order.OrderNumber,
		Status:         enums.OrderStatusScheduled,
		ScheduledDate:  &visit,
		TechnicianName: &tech,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusSampleReceivedByLab,
	})
	require.NoError(t, err)

	stored := f.repo.orders[order.ID]
	assert.Equal(t, enums.OrderStatusSampleReceivedByLab, stored.OrderStatus)
	assert.Nil(t, stored.TechnicianName)
	assert.Nil(t, stored.ScheduledDate)
}

func TestUpdateStatus_ItemScopeRecomputesMajority(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	order := seedConfirmedOrder(t, f)
	items, err := f.repo.FindItemsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// One item collected: order stays confirmed (1 of 3).
	out, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusSampleCollected,
		OrderItemID: &items[0].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, ScopeItem, out.Scope)
	assert.Equal(t, enums.OrderStatusConfirmed, out.OrderStatus)

	// Second item collected: majority flips the order.
	out, err = f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusSampleCollected,
		OrderItemID: &items[1].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusSampleCollected, out.OrderStatus)
	assert.Equal(t, enums.OrderStatusSampleCollected, f.repo.orders[order.ID].OrderStatus)
}

func TestUpdateStatus_AddressScope(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	order := seedConfirmedOrder(t, f)
	items, err := f.repo.FindItemsByOrder(context.Background(), order.ID)
	require.NoError(t, err)

	// Two of the three items share the first address.
	addressID := items[0].AddressID
	require.NotNil(t, addressID)

	out, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: order.OrderNumber,
		Status:      enums.OrderStatusSampleCollected,
		AddressID:   addressID,
	})
	require.NoError(t, err)
	assert.Equal(t, ScopeAddress, out.Scope)
	assert.Equal(t, 2, out.UpdatedItems)
	assert.Equal(t, enums.OrderStatusSampleCollected, out.OrderStatus)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderNumber: "ORD0000000000FFFFFFFF",
		Status:      enums.OrderStatusScheduled,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
