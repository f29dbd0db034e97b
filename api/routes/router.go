package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vendorpool-backend/api/controllers"
	commitmentcontrollers "github.com/angelmondragon/vendorpool-backend/api/controllers/commitments"
	dealcontrollers "github.com/angelmondragon/vendorpool-backend/api/controllers/deals"
	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	"github.com/angelmondragon/vendorpool-backend/internal/commitments"
	"github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/internal/warehouses"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/db"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	profiles middleware.ProfileRoleLookup,
	dealService deals.Service,
	commitmentService commitments.Service,
	warehouseService warehouses.Service,
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
		var cache controllers.Pinger
		if redisClient != nil {
			cache = redisClient
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, profiles, logg))
		r.Use(middleware.Idempotency(idempotencyStore(redisClient), logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/warehouses", controllers.Warehouses(warehouseService, logg))

		r.Route("/deals", func(r chi.Router) {
			r.Get("/", dealcontrollers.List(dealService, logg))
			r.Get("/{dealId}", dealcontrollers.Get(dealService, logg))
		})

		r.Route("/commitments", func(r chi.Router) {
			mountVendorCommitments(r, commitmentService, logg, commitmentWriteLimit(cfg, redisClient, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
				r.Route("/deals", func(r chi.Router) {
					r.Get("/", dealcontrollers.List(dealService, logg))
					r.Post("/", dealcontrollers.AdminCreate(dealService, logg))
					r.Patch("/{dealId}", dealcontrollers.AdminUpdate(dealService, logg))
					r.Delete("/{dealId}", dealcontrollers.AdminDelete(dealService, logg))
				})
				r.Patch("/invoices/{invoiceId}/paid", commitmentcontrollers.AdminMarkInvoicePaid(commitmentService, logg))
			})

			r.Route("/commitments", func(r chi.Router) {
				r.Get("/", commitmentcontrollers.AdminList(commitmentService, logg))
				r.Route("/{commitmentId}", func(r chi.Router) {
					r.Patch("/status", commitmentcontrollers.AdminSetStatus(commitmentService, logg))
					r.Patch("/tracking", commitmentcontrollers.AdminUpdateTracking(commitmentService, logg))
					r.Delete("/tracking", commitmentcontrollers.RemoveTracking(commitmentService, logg))
					r.Patch("/label-request", commitmentcontrollers.AdminReviewLabel(commitmentService, logg))
				})
			})
		})
	})

	return r
}

// mountVendorCommitments registers the caller-scoped commitment routes. Only
// the mutating routes pass through limit; reads are never throttled.
func mountVendorCommitments(r chi.Router, svc commitments.Service, logg *logger.Logger, limit func(http.Handler) http.Handler) {
	writes := r.With(limit)

	r.Get("/", commitmentcontrollers.List(svc, logg))
	writes.Post("/", commitmentcontrollers.Create(svc, logg))

	r.Get("/{commitmentId}", commitmentcontrollers.Get(svc, logg))
	writes.Patch("/{commitmentId}/delivery", commitmentcontrollers.SetDelivery(svc, logg))
	writes.Patch("/{commitmentId}/quantity", commitmentcontrollers.UpdateQuantity(svc, logg))
	writes.Post("/{commitmentId}/tracking", commitmentcontrollers.SubmitTracking(svc, logg))
	writes.Delete("/{commitmentId}/tracking", commitmentcontrollers.RemoveTracking(svc, logg))
	writes.Post("/{commitmentId}/label-request", commitmentcontrollers.RequestLabel(svc, logg))
	writes.Post("/{commitmentId}/cancel", commitmentcontrollers.Cancel(svc, logg))
}

// commitmentWriteLimit throttles commitment writes per IP and per user. It is
// a pass-through when Redis is not configured.
func commitmentWriteLimit(cfg *config.Config, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	policy := middleware.NewRateLimitPolicy(
		"commitments",
		cfg.RateLimit.Window,
		cfg.RateLimit.CommitmentsPerIP,
		cfg.RateLimit.CommitmentsPerUser,
	)
	return middleware.RateLimit(policy, client, logg)
}

// idempotencyStore avoids handing the middleware a typed nil.
func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}
