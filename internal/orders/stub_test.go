package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
	"github.com/nucleotide-health/nucleotide-backend/pkg/razorpay"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository used by the service tests.
type fakeRepo struct {
	orders      map[uuid.UUID]*models.Order
	items       []*models.OrderItem
	snapshots   []*models.OrderSnapshot
	payments    []*models.Payment
	transitions []*models.PaymentTransition
	history     []*models.OrderStatusHistory
	webhookLogs []*models.WebhookLog

	products  map[uuid.UUID]models.Product
	members   map[uuid.UUID]models.Member
	addresses map[uuid.UUID]models.Address
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:    map[uuid.UUID]*models.Order{},
		products:  map[uuid.UUID]models.Product{},
		members:   map[uuid.UUID]models.Member{},
		addresses: map[uuid.UUID]models.Address{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now().UTC()
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeRepo) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	for i := range items {
		item := items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CreatedAt = time.Now().UTC()
		f.items = append(f.items, &item)
	}
	return nil
}

func (f *fakeRepo) CreateSnapshot(_ context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error) {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	f.snapshots = append(f.snapshots, snapshot)
	return snapshot, nil
}

func (f *fakeRepo) CreatePayment(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now().UTC()
	f.payments = append(f.payments, payment)
	return payment, nil
}

func (f *fakeRepo) CreatePaymentTransition(_ context.Context, transition *models.PaymentTransition) error {
	if transition.ID == uuid.Nil {
		transition.ID = uuid.New()
	}
	f.transitions = append(f.transitions, transition)
	return nil
}

func (f *fakeRepo) CreateStatusHistory(_ context.Context, entry *models.OrderStatusHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeRepo) findOrder(id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	items, _ := f.FindItemsByOrder(context.Background(), id)
	order.Items = items
	return order, nil
}

func (f *fakeRepo) FindOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findOrder(id)
}

func (f *fakeRepo) FindOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	for id, order := range f.orders {
		if order.OrderNumber == orderNumber {
			return f.findOrder(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindOrderForUpdate(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findOrder(id)
}

func (f *fakeRepo) FindReusableOrder(_ context.Context, userID uuid.UUID) (*models.Order, error) {
	var latest *models.Order
	for _, order := range f.orders {
		if order.UserID != userID || !order.OrderStatus.IsPrePayment() {
			continue
		}
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			continue
		}
		if latest == nil || order.CreatedAt.After(latest.CreatedAt) {
			latest = order
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findOrder(latest.ID)
}

func (f *fakeRepo) FindItemsByOrder(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, item := range f.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindSnapshotsByOrder(_ context.Context, orderID uuid.UUID) ([]models.OrderSnapshot, error) {
	var out []models.OrderSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.OrderID == orderID {
			out = append(out, *snapshot)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindHistoryByOrder(_ context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var out []models.OrderStatusHistory
	for _, entry := range f.history {
		if entry.OrderID == orderID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindLatestPaymentByOrder(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var latest *models.Payment
	for _, payment := range f.payments {
		if payment.OrderID != orderID {
			continue
		}
		if latest == nil || !payment.CreatedAt.Before(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepo) FindLatestPaymentByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Payment, error) {
	var latest *models.Payment
	for _, payment := range f.payments {
		if payment.RazorpayOrderID == nil || *payment.RazorpayOrderID != gatewayOrderID {
			continue
		}
		if latest == nil || !payment.CreatedAt.Before(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepo) UpdateOrder(_ context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyOrderUpdates(order, updates)
	return nil
}

func (f *fakeRepo) UpdateOrderItem(_ context.Context, itemID uuid.UUID, updates map[string]any) error {
	for _, item := range f.items {
		if item.ID == itemID {
			applyItemUpdates(item, updates)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateOrderItemsByOrder(_ context.Context, orderID uuid.UUID, updates map[string]any) error {
	for _, item := range f.items {
		if item.OrderID == orderID {
			applyItemUpdates(item, updates)
		}
	}
	return nil
}

func (f *fakeRepo) UpdatePayment(_ context.Context, paymentID uuid.UUID, updates map[string]any) error {
	for _, payment := range f.payments {
		if payment.ID == paymentID {
			applyPaymentUpdates(payment, updates)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateWebhookLog(_ context.Context, log *models.WebhookLog) (*models.WebhookLog, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	f.webhookLogs = append(f.webhookLogs, log)
	return log, nil
}

func (f *fakeRepo) UpdateWebhookLog(_ context.Context, logID uuid.UUID, updates map[string]any) error {
	for _, log := range f.webhookLogs {
		if log.ID == logID {
			applyWebhookLogUpdates(log, updates)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListConfirmedOrdersForUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for id, order := range f.orders {
		if order.UserID != userID || order.OrderStatus.IsPrePayment() {
			continue
		}
		loaded, _ := f.findOrder(id)
		snapshots, _ := f.FindSnapshotsByOrder(context.Background(), id)
		loaded.Snapshots = snapshots
		out = append(out, *loaded)
	}
	return out, nil
}

func (f *fakeRepo) ListConfirmedOrdersWithLiveCart(_ context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for id, order := range f.orders {
		if order.OrderStatus != enums.OrderStatusConfirmed {
			continue
		}
		loaded, _ := f.findOrder(id)
		out = append(out, *loaded)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) FindProductsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

func (f *fakeRepo) FindMembersByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	out := map[uuid.UUID]models.Member{}
	for _, id := range ids {
		if member, ok := f.members[id]; ok {
			out[id] = member
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAddressesByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Address, error) {
	out := map[uuid.UUID]models.Address{}
	for _, id := range ids {
		if address, ok := f.addresses[id]; ok && !address.IsDeleted {
			out[id] = address
		}
	}
	return out, nil
}

func applyOrderUpdates(order *models.Order, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "order_status":
			order.OrderStatus = value.(enums.OrderStatus)
		case "payment_status":
			order.PaymentStatus = value.(enums.PaymentStatus)
		case "status_updated_at":
			order.StatusUpdatedAt = value.(time.Time)
		case "payment_date":
			t := value.(time.Time)
			order.PaymentDate = &t
		case "razorpay_order_id":
			order.RazorpayOrderID = stringPtrOrNil(value)
		case "razorpay_payment_id":
			order.RazorpayPaymentID = stringPtrOrNil(value)
		case "razorpay_signature":
			order.RazorpaySignature = stringPtrOrNil(value)
		case "scheduled_date":
			if value == nil {
				order.ScheduledDate = nil
			} else {
				t := value.(time.Time)
				order.ScheduledDate = &t
			}
		case "technician_name":
			order.TechnicianName = stringPtrOrNil(value)
		case "technician_contact":
			order.TechnicianContact = stringPtrOrNil(value)
		case "notes":
			order.Notes = stringPtrOrNil(value)
		case "subtotal_paise":
			order.SubtotalPaise = value.(int64)
		case "delivery_charge_paise":
			order.DeliveryChargePaise = value.(int64)
		case "discount_paise":
			order.DiscountPaise = value.(int64)
		case "coupon_code":
			order.CouponCode = stringPtrOrNil(value)
		case "coupon_discount_paise":
			order.CouponDiscountPaise = value.(int64)
		case "total_paise":
			order.TotalPaise = value.(int64)
		}
	}
}

func applyItemUpdates(item *models.OrderItem, updates map[string]any) {
	for key, value := range updates {
		if key == "order_status" {
			item.OrderStatus = value.(enums.OrderStatus)
		}
	}
}

func applyPaymentUpdates(payment *models.Payment, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "status":
			payment.Status = value.(enums.PaymentStatus)
		case "razorpay_payment_id":
			payment.RazorpayPaymentID = stringPtrOrNil(value)
		case "razorpay_signature":
			payment.RazorpaySignature = stringPtrOrNil(value)
		}
	}
}

func applyWebhookLogUpdates(log *models.WebhookLog, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "processed":
			log.Processed = value.(bool)
		case "processed_at":
			t := value.(time.Time)
			log.ProcessedAt = &t
		case "processing_error":
			log.ProcessingError = stringPtrOrNil(value)
		case "payment_id":
			id := value.(uuid.UUID)
			log.PaymentID = &id
		case "order_id":
			id := value.(uuid.UUID)
			log.OrderID = &id
		case "razorpay_order_id":
			log.RazorpayOrderID = stringPtrOrNil(value)
		case "razorpay_payment_id":
			log.RazorpayPaymentID = stringPtrOrNil(value)
		}
	}
}

func stringPtrOrNil(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return &v
	case *string:
		return v
	default:
		return nil
	}
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCart struct {
	liveItems     []models.CartItem
	liveItemsErr  error
	appliedCoupon *models.CouponApplication
	clearCalls    int
	clearErr      error
}

func (f *fakeCart) LiveItems(_ context.Context, _ uuid.UUID) ([]models.CartItem, error) {
	return f.liveItems, f.liveItemsErr
}

func (f *fakeCart) AppliedCoupon(_ context.Context, _ uuid.UUID) (*models.CouponApplication, error) {
	return f.appliedCoupon, nil
}

func (f *fakeCart) ClearCart(_ context.Context, _ *gorm.DB, _, _ uuid.UUID) error {
	f.clearCalls++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.liveItems = nil
	return nil
}

type fakeCoupons struct {
	discount int64
	err      error
}

func (f *fakeCoupons) ValidateAndDiscount(_ context.Context, _ string, _ uuid.UUID, _ int64) (int64, error) {
	return f.discount, f.err
}

type fakeEnrollment struct {
	upserts []EnrollmentInput
	err     error
}

func (f *fakeEnrollment) Upsert(_ context.Context, _ *gorm.DB, input EnrollmentInput) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, input)
	return nil
}

type fakeGateway struct {
	orders  []*razorpay.Order
	err     error
	created int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, receipt string, _ map[string]string) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	order := &razorpay.Order{
		ID:       "order_fake" + uuid.NewString()[:8],
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	f.orders = append(f.orders, order)
	return order, nil
}

type fixture struct {
	repo       *fakeRepo
	cart       *fakeCart
	coupons    *fakeCoupons
	enrollment *fakeEnrollment
	gateway    *fakeGateway
	svc        Service
}

const (
	testKeySecret     = "test-key-secret"
	testWebhookSecret = "test-webhook-secret"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.ErrorLevel})

	f := &fixture{
		repo:       newFakeRepo(),
		cart:       &fakeCart{},
		coupons:    &fakeCoupons{},
		enrollment: &fakeEnrollment{},
		gateway:    &fakeGateway{},
	}
	svc, err := NewService(f.repo, fakeTx{}, f.cart, f.coupons, f.enrollment, f.gateway, logg, Options{
		KeySecret:           testKeySecret,
		WebhookSecret:       testWebhookSecret,
		DeliveryChargePaise: 0,
		Currency:            "INR",
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// seedCatalog registers a product, member, and address and returns their ids.
func (f *fixture) seedCatalog(pricePaise, specialPaise int64) (productID, memberID, addressID, userID uuid.UUID) {
	productID = uuid.New()
	memberID = uuid.New()
	addressID = uuid.New()
	userID = uuid.New()
	mobile := "9000000001"
	f.repo.products[productID] = models.Product{
		ID:                productID,
		Name:              "Whole Genome Panel",
		PricePaise:        pricePaise,
		SpecialPricePaise: specialPaise,
		PlanType:          "single",
		IsActive:          true,
	}
	f.repo.members[memberID] = models.Member{
		ID:     memberID,
		UserID: userID,
		Name:   "Asha",
		Mobile: &mobile,
	}
	f.repo.addresses[addressID] = models.Address{
		ID:            addressID,
		UserID:        userID,
		StreetAddress: "12 MG Road",
		City:          "Bengaluru",
		State:         "KA",
		PostalCode:    "560001",
	}
	return productID, memberID, addressID, userID
}

func cartItem(userID, productID, memberID, addressID uuid.UUID, groupID string) models.CartItem {
	return models.CartItem{
		ID:        uuid.New(),
		CartID:    uuid.New(),
		UserID:    userID,
		ProductID: productID,
		MemberID:  memberID,
		AddressID: addressID,
		Quantity:  1,
		GroupID:   groupID,
	}
}
