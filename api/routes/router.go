package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberlane/storefront-backend/api/controllers"
	"github.com/emberlane/storefront-backend/api/middleware"
	"github.com/emberlane/storefront-backend/internal/bus"
	"github.com/emberlane/storefront-backend/internal/cart"
	"github.com/emberlane/storefront-backend/internal/catalog"
	"github.com/emberlane/storefront-backend/internal/orders"
	"github.com/emberlane/storefront-backend/internal/wishlist"
	"github.com/emberlane/storefront-backend/pkg/config"
	"github.com/emberlane/storefront-backend/pkg/db"
	"github.com/emberlane/storefront-backend/pkg/enums"
	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	hub *bus.Hub,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	wishlistService wishlist.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/ws", controllers.EventsFeed(hub, logg))

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.CatalogProducts(catalogService, logg))
		r.Get("/products/{productId}", controllers.CatalogProductDetail(catalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/", controllers.CartAdd(cartService, logg))
			r.Put("/{productId}", controllers.CartSetQuantity(cartService, logg))
			r.Delete("/{productId}", controllers.CartRemove(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Post("/", controllers.OrdersCreate(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(wishlistService, logg))
			r.Post("/{productId}", controllers.WishlistAdd(wishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(wishlistService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(ordersService, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderStatusUpdate(ordersService, logg))
			r.Patch("/{orderId}/payment-status", controllers.AdminOrderPaymentStatusUpdate(ordersService, logg))
		})
	})

	return r
}
