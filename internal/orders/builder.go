package orders

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/types"
	"gorm.io/gorm"
)

// pricedLine is one cart item with its resolved charge. Bundle pricing charges
// the group's plan price on the first line of each group and zero on the rest.
type pricedLine struct {
	item       models.CartItem
	product    models.Product
	unitPaise  int64
	totalPaise int64
}

// quote is the priced view of the whole cart.
type quote struct {
	lines               []pricedLine
	subtotalPaise       int64
	discountPaise       int64
	couponCode          *string
	couponDiscountPaise int64
	totalPaise          int64
	addressID           *uuid.UUID
}

// CreateOrder turns the user's live cart into a payable order. When the user
// already has a live unpaid order it is reused with a fresh payment attempt
// instead of minting a duplicate.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	lg := s.logg.WithUserID(ctx, input.UserID.String())

	items, err := s.cart.LiveItems(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !containsCartItem(items, input.CartItemID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item was removed from cart")
	}

	q, err := s.priceCart(ctx, input, items)
	if err != nil {
		return nil, err
	}

	reused, err := s.repo.FindReusableOrder(ctx, input.UserID)
	if err != nil && !isNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check for reusable order")
	}

	// The gateway order is created before the DB transaction so a DB failure
	// leaves only an orphaned gateway order, which expires on its own.
	receipt := fmt.Sprintf("order_%s_%s", input.UserID, receiptNonce())
	gatewayOrder, err := s.gateway.CreateOrder(ctx, q.totalPaise, s.currency, receipt, map[string]string{
		"user_id": input.UserID.String(),
	})
	if err != nil {
		return nil, err
	}

	if reused != nil {
		result, err := s.reviveOrder(ctx, reused, q, gatewayOrder.ID)
		if err != nil {
			return nil, err
		}
		s.logg.Info(s.logg.WithOrderID(lg, result.OrderID.String()), "reused live order for retry")
		return result, nil
	}

	result, err := s.buildOrder(ctx, input, q, gatewayOrder.ID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderNumber(lg, result.OrderNumber), "order created")
	return result, nil
}

// priceCart resolves products, applies bundle pricing per group, re-validates
// the applied coupon, and settles the totals.
func (s *service) priceCart(ctx context.Context, input CreateOrderInput, items []models.CartItem) (*quote, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := s.repo.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load products")
	}

	// Stable grouping: a group is priced exactly once, on its first line in
	// cart order. Ungrouped items price themselves.
	grouped := make(map[string]bool, len(items))
	q := &quote{}
	for _, it := range items {
		product, ok := products[it.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", it.ProductID))
		}
		line := pricedLine{item: it, product: product}
		groupKey := it.GroupID
		if groupKey == "" {
			groupKey = it.ID.String()
		}
		if !grouped[groupKey] {
			grouped[groupKey] = true
			qty := int64(it.Quantity)
			if qty < 1 {
				qty = 1
			}
			line.unitPaise = product.SpecialPricePaise
			line.totalPaise = product.SpecialPricePaise * qty
			q.subtotalPaise += line.totalPaise
			if product.PricePaise > product.SpecialPricePaise {
				q.discountPaise += (product.PricePaise - product.SpecialPricePaise) * qty
			}
		}
		q.lines = append(q.lines, line)
	}

	q.couponCode, q.couponDiscountPaise, err = s.resolveCoupon(ctx, input.UserID, q.subtotalPaise)
	if err != nil {
		return nil, err
	}

	q.addressID, err = resolveAddress(input, items)
	if err != nil {
		return nil, err
	}

	q.totalPaise = q.subtotalPaise + s.deliveryChargePaise - q.couponDiscountPaise
	if q.totalPaise < 0 {
		q.totalPaise = 0
	}
	return q, nil
}

// resolveCoupon re-validates the cart's applied coupon against the fresh
// subtotal. A validation failure at this point falls back to the discount
// captured at application time rather than blocking checkout.
func (s *service) resolveCoupon(ctx context.Context, userID uuid.UUID, subtotalPaise int64) (*string, int64, error) {
	applied, err := s.cart.AppliedCoupon(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, nil
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load applied coupon")
	}
	if applied == nil {
		return nil, 0, nil
	}
	discount, err := s.coupons.ValidateAndDiscount(ctx, applied.CouponCode, userID, subtotalPaise)
	if err != nil {
		lg := s.logg.WithFields(ctx, map[string]any{
			"coupon_code": applied.CouponCode,
			"user_id":     userID.String(),
		})
		s.logg.Warn(lg, "coupon re-validation failed, keeping stored discount")
		return &applied.CouponCode, applied.DiscountAmountPaise, nil
	}
	return &applied.CouponCode, discount, nil
}

// resolveAddress prefers an explicitly supplied address, which must be one of
// the addresses the cart items ship to, otherwise the first address referenced
// by the cart.
func resolveAddress(input CreateOrderInput, items []models.CartItem) (*uuid.UUID, error) {
	if input.AddressID != nil {
		for _, it := range items {
			if it.AddressID == *input.AddressID {
				return input.AddressID, nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is not associated with any cart item")
	}
	ids := make([]string, 0, len(items))
	byString := make(map[string]uuid.UUID, len(items))
	for _, it := range items {
		key := it.AddressID.String()
		if _, seen := byString[key]; !seen {
			byString[key] = it.AddressID
			ids = append(ids, key)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)
	first := byString[ids[0]]
	return &first, nil
}

// buildOrder persists a brand-new order aggregate with its first payment
// attempt.
func (s *service) buildOrder(ctx context.Context, input CreateOrderInput, q *quote, gatewayOrderID string) (*CreateOrderResult, error) {
	now := time.Now().UTC()
	var result *CreateOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order := &models.Order{
			OrderNumber:         NewOrderNumber(now),
			UserID:              input.UserID,
			AddressID:           q.addressID,
			SubtotalPaise:       q.subtotalPaise,
			DeliveryChargePaise: s.deliveryChargePaise,
			DiscountPaise:       q.discountPaise,
			CouponCode:          q.couponCode,
			CouponDiscountPaise: q.couponDiscountPaise,
			TotalPaise:          q.totalPaise,
			PaymentMethod:       enums.PaymentMethodRazorpay,
			PaymentStatus:       enums.PaymentStatusPending,
			RazorpayOrderID:     &gatewayOrderID,
			OrderStatus:         enums.OrderStatusPendingPayment,
			StatusUpdatedAt:     now,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
		}

		if err := s.writeLinesAndSnapshots(ctx, repo, order, q); err != nil {
			return err
		}

		payment := &models.Payment{
			OrderID:         order.ID,
			PaymentMethod:   enums.PaymentMethodRazorpay,
			Status:          enums.PaymentStatusPending,
			RazorpayOrderID: &gatewayOrderID,
			AmountPaise:     q.totalPaise,
			Currency:        s.currency,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create payment")
		}
		if err := openingTransition(ctx, repo, payment, "checkout started", enums.TransitionTriggerUser); err != nil {
			return err
		}

		notes := "order created from cart"
		if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPendingPayment,
			Notes:     &notes,
			ChangedBy: changedByPtr(input.UserID.String()),
		}); err != nil {
			return err
		}

		result = &CreateOrderResult{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			RazorpayOrderID: gatewayOrderID,
			AmountPaise:     q.totalPaise,
			Currency:        s.currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reviveOrder attaches a fresh gateway order and payment attempt to a live
// unpaid order, resetting it to pending_payment.
func (s *service) reviveOrder(ctx context.Context, order *models.Order, q *quote, gatewayOrderID string) (*CreateOrderResult, error) {
	now := time.Now().UTC()
	var result *CreateOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindOrderForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to lock order")
		}
		if ConfirmedGuard(locked) == GuardAlreadyConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
		}

		if err := repo.UpdateOrder(ctx, locked.ID, map[string]any{
			"subtotal_paise":        q.subtotalPaise,
			"delivery_charge_paise": s.deliveryChargePaise,
			"discount_paise":        q.discountPaise,
			"coupon_code":           q.couponCode,
			"coupon_discount_paise": q.couponDiscountPaise,
			"total_paise":           q.totalPaise,
			"razorpay_order_id":     gatewayOrderID,
			"razorpay_payment_id":   nil,
			"razorpay_signature":    nil,
			"payment_status":        enums.PaymentStatusPending,
			"order_status":          enums.OrderStatusPendingPayment,
			"status_updated_at":     now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reset order")
		}
		if err := repo.UpdateOrderItemsByOrder(ctx, locked.ID, map[string]any{
			"order_status": enums.OrderStatusPendingPayment,
		}); err != nil {
			return err
		}

		payment := &models.Payment{
			OrderID:         locked.ID,
			PaymentMethod:   enums.PaymentMethodRazorpay,
			Status:          enums.PaymentStatusPending,
			RazorpayOrderID: &gatewayOrderID,
			AmountPaise:     q.totalPaise,
			Currency:        s.currency,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create retry payment")
		}
		if err := openingTransition(ctx, repo, payment, "payment retry", enums.TransitionTriggerSystem); err != nil {
			return err
		}

		notes := "payment retry with fresh gateway order"
		if err := appendOrderHistory(ctx, repo, locked, enums.OrderStatusPendingPayment, &notes, systemActor); err != nil {
			return err
		}

		result = &CreateOrderResult{
			OrderID:         locked.ID,
			OrderNumber:     locked.OrderNumber,
			RazorpayOrderID: gatewayOrderID,
			AmountPaise:     q.totalPaise,
			Currency:        s.currency,
			Retry:           true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// writeLinesAndSnapshots persists order items and the point-in-time snapshot
// each one fulfils from, so later views survive product and member edits.
func (s *service) writeLinesAndSnapshots(ctx context.Context, repo Repository, order *models.Order, q *quote) error {
	memberIDs := make([]uuid.UUID, 0, len(q.lines))
	addressIDs := make([]uuid.UUID, 0, len(q.lines))
	for _, line := range q.lines {
		memberIDs = append(memberIDs, line.item.MemberID)
		addressIDs = append(addressIDs, line.item.AddressID)
	}
	members, err := repo.FindMembersByIDs(ctx, memberIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load members")
	}
	addresses, err := repo.FindAddressesByIDs(ctx, addressIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load addresses")
	}

	for i := range q.lines {
		line := &q.lines[i]
		member := members[line.item.MemberID]
		address := addresses[line.item.AddressID]

		snapshot := &models.OrderSnapshot{
			OrderID:     order.ID,
			ProductData: productSnapshot(line.product, line.item.GroupID),
			MemberData:  memberSnapshot(member),
			AddressData: addressSnapshot(address),
			CartItemData: &types.JSONMap{
				"cart_item_id": line.item.ID.String(),
				"group_id":     line.item.GroupID,
				"quantity":     line.item.Quantity,
			},
		}
		if _, err := repo.CreateSnapshot(ctx, snapshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to snapshot order line")
		}

		memberID := line.item.MemberID
		addressID := line.item.AddressID
		productID := line.item.ProductID
		item := models.OrderItem{
			OrderID:         order.ID,
			ProductID:       &productID,
			MemberID:        &memberID,
			AddressID:       &addressID,
			SnapshotID:      &snapshot.ID,
			Quantity:        line.item.Quantity,
			UnitPricePaise:  line.unitPaise,
			TotalPricePaise: line.totalPaise,
			OrderStatus:     enums.OrderStatusPendingPayment,
		}
		if err := repo.CreateOrderItems(ctx, []models.OrderItem{item}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order item")
		}
	}
	return nil
}

func productSnapshot(product models.Product, groupID string) types.JSONMap {
	snap := types.JSONMap{
		"product_id":    product.ID.String(),
		"name":          product.Name,
		"price":         product.PricePaise,
		"special_price": product.SpecialPricePaise,
		"plan_type":     product.PlanType,
		"group_id":      groupID,
	}
	if product.Category != nil {
		snap["category"] = *product.Category
	}
	return snap
}

func memberSnapshot(member models.Member) types.JSONMap {
	snap := types.JSONMap{
		"member_id": member.ID.String(),
		"name":      member.Name,
	}
	if member.Relation != nil {
		snap["relation"] = *member.Relation
	}
	if member.Mobile != nil {
		snap["mobile"] = *member.Mobile
	}
	return snap
}

func addressSnapshot(address models.Address) types.JSONMap {
	return types.JSONMap{
		"address_id":  address.ID.String(),
		"street":      address.StreetAddress,
		"city":        address.City,
		"state":       address.State,
		"postal_code": address.PostalCode,
	}
}

func containsCartItem(items []models.CartItem, id uuid.UUID) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func receiptNonce() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func changedByPtr(v string) *string {
	if v == "" {
		v = systemActor
	}
	return &v
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return true
	}
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}
