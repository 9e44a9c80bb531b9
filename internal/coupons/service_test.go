package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRepo struct {
	coupons     map[string]*models.Coupon
	total       int64
	byUser      int64
	lastCode    string
	lastUserID  uuid.UUID
	countCalled bool
}

func (s *stubRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.lastCode = code
	coupon, ok := s.coupons[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return coupon, nil
}

func (s *stubRepo) CountRedemptions(_ context.Context, _ string) (int64, error) {
	s.countCalled = true
	return s.total, nil
}

func (s *stubRepo) CountRedemptionsByUser(_ context.Context, _ string, userID uuid.UUID) (int64, error) {
	s.lastUserID = userID
	return s.byUser, nil
}

func validCoupon(discountType enums.CouponType, value int64) *models.Coupon {
	maxUses := 100
	return &models.Coupon{
		ID:                  uuid.New(),
		Code:                "GENE10",
		DiscountType:        discountType,
		DiscountValue:       value,
		MinOrderAmountPaise: 100000,
		MaxUses:             &maxUses,
		MaxUsesPerUser:      1,
		ValidFrom:           time.Now().Add(-time.Hour),
		ValidUntil:          time.Now().Add(time.Hour),
		Active:              true,
	}
}

func newTestService(t *testing.T, coupon *models.Coupon) (*Service, *stubRepo) {
	t.Helper()
	repo := &stubRepo{coupons: map[string]*models.Coupon{}}
	if coupon != nil {
		repo.coupons[coupon.Code] = coupon
	}
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestValidateAndDiscount_NormalizesCode(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t, validCoupon(enums.CouponTypePercentage, 10))

	discount, err := svc.ValidateAndDiscount(context.Background(), "  gene10 ", uuid.New(), 500000)
	require.NoError(t, err)
	assert.Equal(t, "GENE10", repo.lastCode)
	assert.Equal(t, int64(50000), discount)
}

func TestValidateAndDiscount_PercentageCap(t *testing.T) {
	t.Parallel()
	coupon := validCoupon(enums.CouponTypePercentage, 50)
	ceiling := int64(30000)
	coupon.MaxDiscountPaise = &ceiling
	svc, _ := newTestService(t, coupon)

	discount, err := svc.ValidateAndDiscount(context.Background(), "GENE10", uuid.New(), 500000)
	require.NoError(t, err)
	assert.Equal(t, ceiling, discount)
}

func TestValidateAndDiscount_FixedNeverExceedsSubtotal(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, validCoupon(enums.CouponTypeFixed, 900000))

	discount, err := svc.ValidateAndDiscount(context.Background(), "GENE10", uuid.New(), 400000)
	require.NoError(t, err)
	assert.Equal(t, int64(400000), discount)
}

func TestValidateAndDiscount_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(c *models.Coupon, r *stubRepo)
		subtotal int64
		message string
	}{
		{
			name:     "inactive",
			mutate:   func(c *models.Coupon, _ *stubRepo) { c.Active = false },
			subtotal: 500000,
			message:  "inactive",
		},
		{
			name:     "expired",
			mutate:   func(c *models.Coupon, _ *stubRepo) { c.ValidUntil = time.Now().Add(-time.Minute) },
			subtotal: 500000,
			message:  "validity window",
		},
		{
			name:     "not yet valid",
			mutate:   func(c *models.Coupon, _ *stubRepo) { c.ValidFrom = time.Now().Add(time.Hour) },
			subtotal: 500000,
			message:  "validity window",
		},
		{
			name:     "below minimum",
			mutate:   func(_ *models.Coupon, _ *stubRepo) {},
			subtotal: 50000,
			message:  "minimum",
		},
		{
			name: "global limit reached",
			mutate: func(c *models.Coupon, r *stubRepo) {
				limit := 5
				c.MaxUses = &limit
				r.total = 5
			},
			subtotal: 500000,
			message:  "redemption limit",
		},
		{
			name:     "per-user limit reached",
			mutate:   func(_ *models.Coupon, r *stubRepo) { r.byUser = 1 },
			subtotal: 500000,
			message:  "already used",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			coupon := validCoupon(enums.CouponTypePercentage, 10)
			svc, repo := newTestService(t, coupon)
			tc.mutate(coupon, repo)

			_, err := svc.ValidateAndDiscount(context.Background(), "GENE10", uuid.New(), tc.subtotal)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Message(), tc.message)
		})
	}
}

func TestValidateAndDiscount_UnknownCode(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, nil)

	_, err := svc.ValidateAndDiscount(context.Background(), "NOPE", uuid.New(), 500000)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
