package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neiist-dev/shop-backend/api/controllers"
	"github.com/neiist-dev/shop-backend/api/middleware"
	"github.com/neiist-dev/shop-backend/internal/catalog"
	"github.com/neiist-dev/shop-backend/internal/orders"
	"github.com/neiist-dev/shop-backend/pkg/config"
	"github.com/neiist-dev/shop-backend/pkg/db"
	"github.com/neiist-dev/shop-backend/pkg/logger"
	"github.com/neiist-dev/shop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	rateStore middleware.RateLimiterStore,
	metricsGatherer prometheus.Gatherer,
	catalogService catalog.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(catalogService, logg))
		r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
		r.Get("/{productId}/options", controllers.ProductOptions(catalogService, logg))
		r.Post("/{productId}/resolve", controllers.ResolveProductVariant(catalogService, logg))
	})

	orderPolicy := middleware.NewOrderRateLimitPolicy(
		cfg.RateLimit.OrderWindow,
		cfg.RateLimit.OrderIPLimit,
	)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(middleware.OrderRateLimit(orderPolicy, rateStore, logg)).Post("/", controllers.CreateOrder(ordersService, logg))
		r.Get("/", controllers.ListOrders(ordersService, logg))
		r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
		r.Delete("/{orderId}", controllers.DeleteOrder(ordersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActingMember(logg))
			r.Post("/{orderId}/transition", controllers.TransitionOrder(ordersService, logg))
			r.Post("/{orderId}/unset-paid", controllers.UnsetOrderPaid(ordersService, logg))
			r.Post("/{orderId}/unset-delivered", controllers.UnsetOrderDelivered(ordersService, logg))
		})
	})

	return r
}
