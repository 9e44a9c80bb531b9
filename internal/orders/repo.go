package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateSnapshot(ctx context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error) {
	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) CreatePaymentTransition(ctx context.Context, transition *models.PaymentTransition) error {
	return r.db.WithContext(ctx).Create(transition).Error
}

func (r *repository) CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderForUpdate serializes concurrent webhook deliveries for the same
// order. Items are loaded separately since FOR UPDATE does not join.
func (r *repository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	items, err := r.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) FindReusableOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND order_status IN ?", userID, []enums.OrderStatus{
			enums.OrderStatusPendingPayment,
			enums.OrderStatusProcessing,
			enums.OrderStatusPaymentFailed,
		}).
		Where("payment_status <> ?", enums.PaymentStatusCompleted).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindSnapshotsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderSnapshot, error) {
	var snapshots []models.OrderSnapshot
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *repository) FindHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *repository) FindLatestPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindLatestPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", gatewayOrderID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) UpdateOrderItemsByOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(updates).Error
}

func (r *repository) CreateWebhookLog(ctx context.Context, log *models.WebhookLog) (*models.WebhookLog, error) {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, err
	}
	return log, nil
}

func (r *repository) UpdateWebhookLog(ctx context.Context, logID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WebhookLog{}).
		Where("id = ?", logID).
		Updates(updates).Error
}

func (r *repository) ListConfirmedOrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Snapshots").
		Where("user_id = ? AND order_status <> ? AND order_status <> ? AND order_status <> ?",
			userID,
			enums.OrderStatusPendingPayment,
			enums.OrderStatusProcessing,
			enums.OrderStatusPaymentFailed,
		).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListConfirmedOrdersWithLiveCart finds confirmed orders whose user still
// owns non-deleted cart items, the reconciliation backlog.
func (r *repository) ListConfirmedOrdersWithLiveCart(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Where("order_status = ?", enums.OrderStatusConfirmed).
		Where("EXISTS (SELECT 1 FROM cart_items ci WHERE ci.user_id = orders.user_id AND ci.is_deleted = ?)", false).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, product := range products {
		result[product.ID] = product
	}
	return result, nil
}

func (r *repository) FindMembersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	result := make(map[uuid.UUID]models.Member, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var members []models.Member
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, member := range members {
		result[member.ID] = member
	}
	return result, nil
}

func (r *repository) FindAddressesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Address, error) {
	result := make(map[uuid.UUID]models.Address, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var addresses []models.Address
	if err := r.db.WithContext(ctx).Where("id IN ? AND is_deleted = ?", ids, false).Find(&addresses).Error; err != nil {
		return nil, err
	}
	for _, address := range addresses {
		result[address.ID] = address
	}
	return result, nil
}
