package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nucleotide-health/nucleotide-backend/api/controllers"
	ordercontrollers "github.com/nucleotide-health/nucleotide-backend/api/controllers/orders"
	"github.com/nucleotide-health/nucleotide-backend/api/middleware"
	"github.com/nucleotide-health/nucleotide-backend/internal/orders"
	"github.com/nucleotide-health/nucleotide-backend/pkg/config"
	"github.com/nucleotide-health/nucleotide-backend/pkg/logger"
)

// NewRouter wires the HTTP surface. The webhook and the status update routes
// are unauthenticated: the webhook authenticates by signature, and status
// updates come from the lab operations tooling on a private network.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	ordersSvc orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/webhook", ordercontrollers.Webhook(ordersSvc, logg))
		r.Put("/{orderNumber}/status", ordercontrollers.UpdateStatus(ordersSvc, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/create", ordercontrollers.Create(ordersSvc, logg))
			r.Post("/verify-payment", ordercontrollers.Verify(ordersSvc, logg))
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Get("/{orderNumber}/tracking", ordercontrollers.Tracking(ordersSvc, logg))
		})
	})

	return r
}
