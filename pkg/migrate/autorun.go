package migrate

import (
	"context"
	"fmt"

	"github.com/nucleotide-health/nucleotide-backend/pkg/config"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Address{},
		&models.Member{},
		&models.Product{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponApplication{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderSnapshot{},
		&models.Payment{},
		&models.PaymentTransition{},
		&models.OrderStatusHistory{},
		&models.WebhookLog{},
		&models.Enrollment{},
	}
}

// Run applies the schema for all models on the provided client.
func Run(ctx context.Context, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}
	return nil
}

// MaybeRunDev migrates the schema automatically when the app is running in
// dev mode and the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running schema auto-migration (dev auto-run)")

	if err := Run(ctx, client); err != nil {
		return err
	}

	logg.Info(ctx, "schema auto-migration completed")
	return nil
}
