package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bizops-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/bizops-backend/api/controllers/orders"
	"github.com/angelmondragon/bizops-backend/api/middleware"
	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/internal/orders"
	products "github.com/angelmondragon/bizops-backend/internal/products"
	"github.com/angelmondragon/bizops-backend/internal/reports"
	"github.com/angelmondragon/bizops-backend/pkg/config"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/metrics"
	"github.com/angelmondragon/bizops-backend/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer needs: health, idempotency
// records and rate-limit counters.
type RedisStore interface {
	redis.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services bundles the domain services mounted under /api/v1.
type Services struct {
	Products  products.Service
	Orders    orders.Service
	Inventory inventory.Service
	Reports   reports.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(httpMetrics),
	)

	var redisPinger controllers.Pinger
	if redisStore != nil {
		redisPinger = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	managerOnly := middleware.RequireRole(logg, enums.MemberRoleManager)
	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.TenantContext(logg))
		r.Use(middleware.RateLimit(apiPolicy, rateLimiter(redisStore), logg))
		r.Use(middleware.Idempotency(idempotencyStore(redisStore), logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.With(managerOnly).Post("/", controllers.ProductCreate(svc.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svc.Products, logg))
			r.With(managerOnly).Put("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			r.With(managerOnly).Delete("/{productId}", controllers.ProductDelete(svc.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(svc.Orders, logg))
			r.With(managerOnly).Post("/{orderId}/complete", ordercontrollers.Complete(svc.Orders, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(managerOnly).Post("/adjust-stock", controllers.InventoryAdjustStock(svc.Inventory, logg))
			r.Get("/transactions", controllers.InventoryTransactions(svc.Inventory, logg))
			r.Get("/low-stock-alerts", controllers.InventoryLowStockAlerts(svc.Inventory, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily-sales", controllers.ReportDailySales(svc.Reports, logg))
			r.Get("/daily-sales/export", controllers.ReportDailySalesExport(svc.Reports, logg))
			r.Get("/top-products", controllers.ReportTopProducts(svc.Reports, logg))
			r.Get("/inventory-summary", controllers.ReportInventorySummary(svc.Reports, logg))
			r.Get("/sales-by-payment-method", controllers.ReportSalesByPaymentMethod(svc.Reports, logg))
		})
	})

	return r
}

// The helpers below keep a nil RedisStore from becoming a non-nil interface
// holding a nil value, which the middleware would then call.
func rateLimiter(store RedisStore) interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
} {
	if store == nil {
		return nil
	}
	return store
}

func idempotencyStore(store RedisStore) redis.IdempotencyStore {
	if store == nil {
		return nil
	}
	return store
}
