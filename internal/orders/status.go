package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"gorm.io/gorm"
)

// UpdateStatus applies a manual fulfillment status change. The scope is one
// item, every item at an address, or the whole order; item-scoped changes
// recompute the order-level status from the item majority.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error) {
	lg := s.logg.WithOrderNumber(ctx, input.OrderNumber)

	order, err := s.repo.FindOrderByNumber(ctx, input.OrderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if err := ManualTransitionAllowed(order, input.Status); err != nil {
		return nil, err
	}

	scope := ScopeOrder
	if input.OrderItemID != nil {
		scope = ScopeItem
	} else if input.AddressID != nil {
		scope = ScopeAddress
	}

	var result *UpdateStatusResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindOrderForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to lock order")
		}
		if err := ManualTransitionAllowed(locked, input.Status); err != nil {
			return err
		}

		switch scope {
		case ScopeItem:
			result, err = s.updateItemStatus(ctx, repo, locked, input)
		case ScopeAddress:
			result, err = s.updateAddressStatus(ctx, repo, locked, input)
		default:
			result, err = s.updateOrderStatus(ctx, repo, locked, input)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(lg, "order status updated")
	return result, nil
}

// updateOrderStatus moves the order and every item to the target status.
func (s *service) updateOrderStatus(ctx context.Context, repo Repository, order *models.Order, input UpdateStatusInput) (*UpdateStatusResult, error) {
	if !CanTransitionOrder(order.OrderStatus, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.OrderStatus, input.Status))
	}

	updates := s.orderStatusUpdates(input)
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return nil, err
	}
	if err := repo.UpdateOrderItemsByOrder(ctx, order.ID, map[string]any{
		"order_status": input.Status,
	}); err != nil {
		return nil, err
	}
	if err := appendOrderHistory(ctx, repo, order, input.Status, input.Notes, input.ChangedBy); err != nil {
		return nil, err
	}
	for i := range order.Items {
		if order.Items[i].OrderStatus == input.Status {
			continue
		}
		if err := appendItemHistory(ctx, repo, &order.Items[i], input.Status, input.Notes, input.ChangedBy); err != nil {
			return nil, err
		}
	}
	return &UpdateStatusResult{
		OrderNumber:  order.OrderNumber,
		Scope:        ScopeOrder,
		Status:       input.Status,
		OrderStatus:  input.Status,
		UpdatedItems: len(order.Items),
	}, nil
}

// updateItemStatus moves a single item and recomputes the order status.
func (s *service) updateItemStatus(ctx context.Context, repo Repository, order *models.Order, input UpdateStatusInput) (*UpdateStatusResult, error) {
	var target *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == *input.OrderItemID {
			target = &order.Items[i]
			break
		}
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
	}
	if !CanTransitionOrder(target.OrderStatus, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("item cannot move from %s to %s", target.OrderStatus, input.Status))
	}

	if err := repo.UpdateOrderItem(ctx, target.ID, map[string]any{
		"order_status": input.Status,
	}); err != nil {
		return nil, err
	}
	if err := appendItemHistory(ctx, repo, target, input.Status, input.Notes, input.ChangedBy); err != nil {
		return nil, err
	}
	target.OrderStatus = input.Status

	orderStatus, err := s.syncOrderStatus(ctx, repo, order, input)
	if err != nil {
		return nil, err
	}
	return &UpdateStatusResult{
		OrderNumber:  order.OrderNumber,
		Scope:        ScopeItem,
		Status:       input.Status,
		OrderStatus:  orderStatus,
		UpdatedItems: 1,
	}, nil
}

// updateAddressStatus moves every item fulfilled at one address.
func (s *service) updateAddressStatus(ctx context.Context, repo Repository, order *models.Order, input UpdateStatusInput) (*UpdateStatusResult, error) {
	updated := 0
	for i := range order.Items {
		item := &order.Items[i]
		if item.AddressID == nil || *item.AddressID != *input.AddressID {
			continue
		}
		if !CanTransitionOrder(item.OrderStatus, input.Status) {
			continue
		}
		if err := repo.UpdateOrderItem(ctx, item.ID, map[string]any{
			"order_status": input.Status,
		}); err != nil {
			return nil, err
		}
		if err := appendItemHistory(ctx, repo, item, input.Status, input.Notes, input.ChangedBy); err != nil {
			return nil, err
		}
		item.OrderStatus = input.Status
		updated++
	}
	if updated == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no items at address eligible for this status")
	}

	orderStatus, err := s.syncOrderStatus(ctx, repo, order, input)
	if err != nil {
		return nil, err
	}
	return &UpdateStatusResult{
		OrderNumber:  order.OrderNumber,
		Scope:        ScopeAddress,
		Status:       input.Status,
		OrderStatus:  orderStatus,
		UpdatedItems: updated,
	}, nil
}

// syncOrderStatus recomputes the order-level status as the majority status of
// its items, applying the same guards as a direct order-level change. On a
// tie or a disallowed move the order keeps its current status.
func (s *service) syncOrderStatus(ctx context.Context, repo Repository, order *models.Order, input UpdateStatusInput) (enums.OrderStatus, error) {
	majority, ok := majorityStatus(order.Items)
	if !ok || majority == order.OrderStatus {
		return order.OrderStatus, nil
	}
	if err := ManualTransitionAllowed(order, majority); err != nil {
		return order.OrderStatus, nil
	}
	if !CanTransitionOrder(order.OrderStatus, majority) {
		return order.OrderStatus, nil
	}

	synced := input
	synced.Status = majority
	updates := s.orderStatusUpdates(synced)
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return order.OrderStatus, err
	}
	notes := "order status synced from item majority"
	if err := appendOrderHistory(ctx, repo, order, majority, &notes, input.ChangedBy); err != nil {
		return order.OrderStatus, err
	}
	order.OrderStatus = majority
	return majority, nil
}

// majorityStatus returns the most common item status. Ties are not a
// majority.
func majorityStatus(items []models.OrderItem) (enums.OrderStatus, bool) {
	if len(items) == 0 {
		return "", false
	}
	counts := make(map[enums.OrderStatus]int, len(items))
	for _, item := range items {
		counts[item.OrderStatus]++
	}
	var best enums.OrderStatus
	bestCount := 0
	tied := false
	for status, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, tied = status, count, false
		case count == bestCount:
			tied = true
		}
	}
	if tied {
		return "", false
	}
	return best, true
}

// orderStatusUpdates assembles the order-level column changes for a manual
// move, handling the scheduling fields: statuses where a technician visit is
// irrelevant clear stale technician data unless the caller supplies fresh
// values.
func (s *service) orderStatusUpdates(input UpdateStatusInput) map[string]any {
	updates := map[string]any{
		"order_status":      input.Status,
		"status_updated_at": time.Now().UTC(),
	}
	if input.ScheduledDate != nil {
		updates["scheduled_date"] = *input.ScheduledDate
	}
	if input.TechnicianName != nil {
		updates["technician_name"] = *input.TechnicianName
	}
	if input.TechnicianContact != nil {
		updates["technician_contact"] = *input.TechnicianContact
	}
	if input.Status.TechnicianIrrelevant() {
		if input.ScheduledDate == nil {
			updates["scheduled_date"] = nil
		}
		if input.TechnicianName == nil {
			updates["technician_name"] = nil
		}
		if input.TechnicianContact == nil {
			updates["technician_contact"] = nil
		}
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	return updates
}
