package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/20bec4199/blissora/internal/auth"
	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/service"
	"github.com/20bec4199/blissora/pkg/health"
	"github.com/20bec4199/blissora/pkg/middleware"
)

// RouterConfig bundles the handlers' cross-cutting settings.
type RouterConfig struct {
	Cookies   CookieConfig
	ClientURL string
	CORS      middleware.CORSConfig
}

// Services bundles the service layer the router exposes.
type Services struct {
	Auth     *service.AuthService
	Product  *service.ProductService
	Category *service.CategoryService
	Cart     *service.CartService
	Order    *service.OrderService
	Payment  *service.PaymentService
	Review   *service.ReviewService
	Admin    *service.AdminService
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	svcs Services,
	minter *auth.TokenMinter,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("blissora"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("blissora"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Access tokens arrive via the Authorization header or the access
	// cookie; the middleware accepts either.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := minter.ValidateAccess(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Name:   claims.Name,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
	authn := middleware.Auth(tokenValidator, AccessCookieName)

	authHandler := NewAuthHandler(svcs.Auth, cfg.Cookies, cfg.ClientURL, logger)
	productHandler := NewProductHandler(svcs.Product, logger)
	categoryHandler := NewCategoryHandler(svcs.Category, logger)
	cartHandler := NewCartHandler(svcs.Cart, logger)
	orderHandler := NewOrderHandler(svcs.Order, svcs.Payment, logger)
	reviewHandler := NewReviewHandler(svcs.Review, svcs.Auth, logger)
	adminHandler := NewAdminHandler(svcs.Admin, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth. Refresh, me and logout authenticate with the refresh
		// cookie itself, not the access token.
		r.Route("/auth", func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/google", authHandler.GoogleRedirect)
			r.Get("/google/callback", authHandler.GoogleCallback)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})

		// Public catalog.
		r.Get("/products", productHandler.List)
		r.Get("/products/slug/{slug}", productHandler.GetBySlug)
		r.Get("/products/{id}", productHandler.Get)
		r.Get("/products/{id}/reviews", reviewHandler.ListByProduct)
		r.Get("/categories", categoryHandler.List)
		r.Get("/categories/tree", categoryHandler.Tree)
		r.Get("/categories/{id}", categoryHandler.Get)

		// Authenticated profile.
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/users/me", authHandler.Profile)
		})

		// Seller catalog management.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)
			r.Use(middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin))

			r.Post("/products", productHandler.Create)
			r.Put("/products/{id}", productHandler.Update)
			r.Delete("/products/{id}", productHandler.Delete)
		})

		// Cart.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)

			r.Get("/cart", cartHandler.Get)
			r.Delete("/cart", cartHandler.Clear)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{productId}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)
			r.Post("/cart/coupon", cartHandler.ApplyCoupon)
			r.Delete("/cart/coupon", cartHandler.RemoveCoupon)
		})

		// Orders and payments.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)

			r.Post("/orders", orderHandler.Checkout)
			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{id}", orderHandler.Get)
			r.Post("/orders/{id}/cancel", orderHandler.Cancel)
			r.Get("/orders/{id}/payment", orderHandler.GetPayment)
		})

		// Reviews.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)

			r.Post("/products/{id}/reviews", reviewHandler.Create)
			r.Delete("/reviews/{id}", reviewHandler.Delete)
			r.Post("/reviews/{id}/helpful", reviewHandler.MarkHelpful)
		})

		// Admin.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authn)
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Get("/admin/reports/sales", adminHandler.SalesReport)
			r.Get("/admin/users", adminHandler.ListUsers)
			r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
			r.Post("/admin/sellers/{id}/approve", adminHandler.ApproveSeller)
			r.Post("/admin/sellers/{id}/suspend", adminHandler.SuspendSeller)

			r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Post("/orders/{id}/refund", orderHandler.RefundPayment)

			r.Get("/admin/reviews", reviewHandler.Moderation)
			r.Post("/admin/reviews/{id}/approve", reviewHandler.Approve)
			r.Post("/admin/reviews/{id}/reject", reviewHandler.Reject)

			r.Post("/categories", categoryHandler.Create)
			r.Put("/categories/{id}", categoryHandler.Update)
			r.Delete("/categories/{id}", categoryHandler.Delete)
		})
	})

	return r
}
