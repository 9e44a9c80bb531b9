package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service exposes the cart operations the order pipeline depends on.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the cart service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// LiveItems returns the user's non-deleted cart items in cart order.
func (s *Service) LiveItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.repo.FindLiveItemsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart items")
	}
	return items, nil
}

// AppliedCoupon returns the user's latest coupon application, or nil.
func (s *Service) AppliedCoupon(ctx context.Context, userID uuid.UUID) (*models.CouponApplication, error) {
	application, err := s.repo.FindAppliedCouponByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load coupon application")
	}
	return application, nil
}

// ClearCart soft-deletes the cart's live items and removes any coupon
// application, inside the caller's transaction when one is given.
func (s *Service) ClearCart(ctx context.Context, tx *gorm.DB, userID, cartID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	if err := repo.SoftDeleteItems(ctx, userID, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear cart items")
	}
	if err := repo.DeleteCouponApplications(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to remove coupon application")
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "cart cleared")
	return nil
}
