package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lapzone/lapzone-backend/api/controllers"
	"github.com/lapzone/lapzone-backend/api/middleware"
	authsvc "github.com/lapzone/lapzone-backend/internal/auth"
	cartsvc "github.com/lapzone/lapzone-backend/internal/cart"
	checkoutsvc "github.com/lapzone/lapzone-backend/internal/checkout"
	mailingsvc "github.com/lapzone/lapzone-backend/internal/mailing"
	ordersvc "github.com/lapzone/lapzone-backend/internal/orders"
	productsvc "github.com/lapzone/lapzone-backend/internal/products"
	"github.com/lapzone/lapzone-backend/pkg/auth/session"
	"github.com/lapzone/lapzone-backend/pkg/config"
	"github.com/lapzone/lapzone-backend/pkg/db"
	"github.com/lapzone/lapzone-backend/pkg/logger"
	"github.com/lapzone/lapzone-backend/pkg/metrics"
	"github.com/lapzone/lapzone-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth     authsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Products productsvc.Service
	Mailing  mailingsvc.Service
}

// NewRouter assembles the HTTP surface: health and metrics endpoints plus
// the versioned storefront API.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]db.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.Login(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
				Post("/logout", controllers.Logout(deps.Auth, logg))
			r.Post("/refresh", controllers.Refresh(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{idOrSlug}", controllers.GetProduct(deps.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart, logg))
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/add", controllers.AddCartItem(deps.Cart, logg))
			r.Post("/update", controllers.UpdateCartItem(deps.Cart, logg))
			r.Post("/remove", controllers.RemoveCartItem(deps.Cart, logg))
		})

		r.With(
			middleware.CartSession(cfg.Cart, logg),
			middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg),
		).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(deps.Orders, logg))
			r.Delete("/{id}", controllers.DeleteOrder(deps.Orders, logg))
		})

		r.Route("/mailing", func(r chi.Router) {
			r.Post("/subscriptions", controllers.Subscribe(deps.Mailing, logg))
			r.Delete("/subscriptions", controllers.Unsubscribe(deps.Mailing, logg))
		})
	})

	return r
}
