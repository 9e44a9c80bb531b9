package enrollment

import (
	"context"
	"fmt"

	"github.com/nucleotide-health/nucleotide-backend/internal/orders"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	pkgerrors "github.com/nucleotide-health/nucleotide-backend/pkg/errors"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service records test participants when orders are confirmed.
type Service struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewService builds the enrollment service.
func NewService(db *gorm.DB, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{db: db, logg: logg}, nil
}

// Upsert records one participant keyed by (user, member, product). Repeat
// confirmations refresh the denormalized fields and the order link without
// resetting test progress.
func (s *Service) Upsert(ctx context.Context, tx *gorm.DB, input orders.EnrollmentInput) error {
	db := s.db
	if tx != nil {
		db = tx
	}

	orderID := input.OrderID
	row := models.Enrollment{
		UserID:       input.UserID,
		MemberID:     input.MemberID,
		ProductID:    input.ProductID,
		OrderID:      &orderID,
		MemberName:   input.MemberName,
		MemberMobile: input.MemberMobile,
		PlanType:     input.PlanType,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "member_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_id", "member_name", "member_mobile", "plan_type", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to upsert enrollment")
	}
	return nil
}
