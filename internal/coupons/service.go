package coupons

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository defines persistence operations for coupon validation.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	// CountRedemptions counts completed orders that used the coupon.
	CountRedemptions(ctx context.Context, code string) (int64, error)
	CountRedemptionsByUser(ctx context.Context, code string, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) CountRedemptions(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("coupon_code = ? AND payment_status = ?", code, enums.PaymentStatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *repository) CountRedemptionsByUser(ctx context.Context, code string, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("coupon_code = ? AND user_id = ? AND payment_status = ?", code, userID, enums.PaymentStatusCompleted).
		Count(&count).Error
	return count, err
}

// Service validates coupon codes and computes their discount.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// ValidateAndDiscount checks the coupon against the current subtotal and
// returns the discount in paise.
func (s *Service) ValidateAndDiscount(ctx context.Context, code string, userID uuid.UUID, subtotalPaise int64) (int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load coupon")
	}

	if !coupon.Active {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is inactive")
	}
	now := s.now().UTC()
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is outside its validity window")
	}
	if subtotalPaise < coupon.MinOrderAmountPaise {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order subtotal below coupon minimum of %d paise", coupon.MinOrderAmountPaise))
	}

	if coupon.MaxUses != nil {
		total, err := s.repo.CountRedemptions(ctx, normalized)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count coupon redemptions")
		}
		if total >= int64(*coupon.MaxUses) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon redemption limit reached")
		}
	}
	if coupon.MaxUsesPerUser > 0 {
		byUser, err := s.repo.CountRedemptionsByUser(ctx, normalized, userID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count user redemptions")
		}
		if byUser >= int64(coupon.MaxUsesPerUser) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon already used by this account")
		}
	}

	return discountFor(coupon, subtotalPaise), nil
}

// discountFor computes the paise discount, never exceeding the subtotal.
func discountFor(coupon *models.Coupon, subtotalPaise int64) int64 {
	var discount int64
	switch coupon.DiscountType {
	case enums.CouponTypePercentage:
		discount = decimal.NewFromInt(subtotalPaise).
			Mul(decimal.NewFromInt(coupon.DiscountValue)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if coupon.MaxDiscountPaise != nil && discount > *coupon.MaxDiscountPaise {
			discount = *coupon.MaxDiscountPaise
		}
	case enums.CouponTypeFixed:
		discount = coupon.DiscountValue
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
