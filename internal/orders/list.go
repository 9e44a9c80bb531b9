package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
)

// ListOrders returns the user's paid orders grouped per product bundle.
// Recipient and product details come from the order snapshots so the view
// survives later edits to members, addresses, and catalog rows.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error) {
	orders, err := s.repo.ListConfirmedOrdersForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, s.summarizeOrder(&orders[i]))
	}
	return summaries, nil
}

func (s *service) summarizeOrder(order *models.Order) OrderSummary {
	summary := OrderSummary{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OrderStatus: order.OrderStatus,
		TotalPaise:  order.TotalPaise,
		CreatedAt:   order.CreatedAt,
	}

	snapshotsByID := make(map[uuid.UUID]*models.OrderSnapshot, len(order.Snapshots))
	for i := range order.Snapshots {
		snapshotsByID[order.Snapshots[i].ID] = &order.Snapshots[i]
	}

	groupIndex := make(map[string]int)
	for i := range order.Items {
		item := &order.Items[i]

		var snapshot *models.OrderSnapshot
		if item.SnapshotID != nil {
			snapshot = snapshotsByID[*item.SnapshotID]
		}

		groupID, productName, planType := groupMeta(snapshot)
		if groupID == "" {
			groupID = item.ID.String()
		}

		idx, ok := groupIndex[groupID]
		if !ok {
			summary.Groups = append(summary.Groups, OrderGroup{
				GroupID:     groupID,
				ProductName: productName,
				PlanType:    planType,
			})
			idx = len(summary.Groups) - 1
			groupIndex[groupID] = idx
		}

		summary.Groups[idx].Items = append(summary.Groups[idx].Items, OrderGroupItem{
			OrderItemID: item.ID,
			MemberName:  snapshotString(snapshot, snapshotMember, "name"),
			City:        snapshotString(snapshot, snapshotAddress, "city"),
			Status:      item.OrderStatus,
		})
	}
	return summary
}

type snapshotSection int

const (
	snapshotProduct snapshotSection = iota
	snapshotMember
	snapshotAddress
)

func groupMeta(snapshot *models.OrderSnapshot) (groupID, productName, planType string) {
	if snapshot == nil {
		return "", "", ""
	}
	groupID = snapshotString(snapshot, snapshotProduct, "group_id")
	productName = snapshotString(snapshot, snapshotProduct, "name")
	planType = snapshotString(snapshot, snapshotProduct, "plan_type")
	return groupID, productName, planType
}

func snapshotString(snapshot *models.OrderSnapshot, section snapshotSection, key string) string {
	if snapshot == nil {
		return ""
	}
	var data map[string]any
	switch section {
	case snapshotProduct:
		data = snapshot.ProductData
	case snapshotMember:
		data = snapshot.MemberData
	case snapshotAddress:
		data = snapshot.AddressData
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// Tracking returns per-item status and the audit trail for one paid order.
// Unpaid orders are not trackable.
func (s *service) Tracking(ctx context.Context, userID uuid.UUID, orderNumber string) (*TrackingResult, error) {
	order, err := s.repo.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.OrderStatus.IsPrePayment() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order is not trackable yet")
	}

	snapshots, err := s.repo.FindSnapshotsByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load snapshots")
	}
	snapshotsByID := make(map[uuid.UUID]*models.OrderSnapshot, len(snapshots))
	for i := range snapshots {
		snapshotsByID[snapshots[i].ID] = &snapshots[i]
	}

	history, err := s.repo.FindHistoryByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load status history")
	}
	historyByItem := make(map[uuid.UUID][]TrackingEvent)
	for _, entry := range history {
		if entry.OrderItemID == nil {
			continue
		}
		historyByItem[*entry.OrderItemID] = append(historyByItem[*entry.OrderItemID], TrackingEvent{
			Status:    entry.Status,
			Notes:     entry.Notes,
			ChangedBy: entry.ChangedBy,
			CreatedAt: entry.CreatedAt,
		})
	}

	result := &TrackingResult{
		OrderNumber: order.OrderNumber,
		OrderStatus: order.OrderStatus,
	}
	for i := range order.Items {
		item := &order.Items[i]
		var snapshot *models.OrderSnapshot
		if item.SnapshotID != nil {
			snapshot = snapshotsByID[*item.SnapshotID]
		}
		result.Items = append(result.Items, TrackingItem{
			OrderItemID: item.ID,
			MemberName:  snapshotString(snapshot, snapshotMember, "name"),
			Status:      item.OrderStatus,
			History:     historyByItem[item.ID],
		})
	}
	return result, nil
}
