package cron

import (
	"context"
	"fmt"

	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

const defaultReconcileBatchSize = 200

// cartReconciler is the slice of the order service the job needs.
type cartReconciler interface {
	ReconcileConfirmedCarts(ctx context.Context, batchSize int) (int, error)
}

// CartReconcileJob sweeps confirmed orders whose cart clear was missed at
// webhook time and clears them.
type CartReconcileJob struct {
	orders    cartReconciler
	logg      *logger.Logger
	batchSize int
}

// NewCartReconcileJob builds the reconciliation job.
func NewCartReconcileJob(orders cartReconciler, logg *logger.Logger, batchSize int) (*CartReconcileJob, error) {
	if orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	return &CartReconcileJob{orders: orders, logg: logg, batchSize: batchSize}, nil
}

// Name implements Job.
func (j *CartReconcileJob) Name() string { return "cart_reconcile" }

// Run implements Job.
func (j *CartReconcileJob) Run(ctx context.Context) error {
	cleared, err := j.orders.ReconcileConfirmedCarts(ctx, j.batchSize)
	lg := j.logg.WithField(ctx, "cleared", cleared)
	if err != nil {
		j.logg.Error(lg, "cart reconciliation finished with errors", err)
		return err
	}
	j.logg.Info(lg, "cart reconciliation complete")
	return nil
}
