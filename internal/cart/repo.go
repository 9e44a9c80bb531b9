package cart

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindLiveItemsByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindAppliedCouponByUser(ctx context.Context, userID uuid.UUID) (*models.CouponApplication, error) {
	var application models.CouponApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		First(&application).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (r *repository) SoftDeleteItems(ctx context.Context, userID, cartID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND cart_id = ? AND is_deleted = ?", userID, cartID, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": now,
		}).Error
}

func (r *repository) DeleteCouponApplications(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CouponApplication{}).Error
}
