package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for cart items and coupon
// applications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindLiveItemsByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindAppliedCouponByUser(ctx context.Context, userID uuid.UUID) (*models.CouponApplication, error)

	// SoftDeleteItems marks every live item of the cart deleted without
	// removing the rows; order snapshots keep referencing them.
	SoftDeleteItems(ctx context.Context, userID, cartID uuid.UUID) error
	DeleteCouponApplications(ctx context.Context, userID uuid.UUID) error
}
