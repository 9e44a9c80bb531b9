package orders

import (
	"context"

	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// ReconcileConfirmedCarts sweeps confirmed orders whose cart clear was missed
// at confirmation time and clears them now. Returns the number of carts
// cleared; per-order failures are aggregated so one bad row does not stall
// the sweep.
func (s *service) ReconcileConfirmedCarts(ctx context.Context, batchSize int) (int, error) {
	orders, err := s.repo.ListConfirmedOrdersWithLiveCart(ctx, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list reconciliation backlog")
	}
	if len(orders) == 0 {
		return 0, nil
	}

	cleared := 0
	var errs error
	for i := range orders {
		order := &orders[i]
		lg := s.logg.WithOrderID(ctx, order.ID.String())

		items, err := s.cart.LiveItems(ctx, order.UserID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		cartID := items[0].CartID

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.cart.ClearCart(ctx, tx, order.UserID, cartID)
		})
		if err != nil {
			s.logg.Error(lg, "reconcile cart clear failed", err)
			errs = multierr.Append(errs, err)
			continue
		}
		s.logg.Info(lg, "stale cart cleared for confirmed order")
		cleared++
	}
	return cleared, errs
}
