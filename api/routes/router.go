package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wovenlane/wovenlane-backend/api/controllers"
	"github.com/wovenlane/wovenlane-backend/api/middleware"
	"github.com/wovenlane/wovenlane-backend/internal/auth"
	"github.com/wovenlane/wovenlane-backend/internal/cart"
	"github.com/wovenlane/wovenlane-backend/internal/inventory"
	"github.com/wovenlane/wovenlane-backend/internal/media"
	"github.com/wovenlane/wovenlane-backend/internal/notifications"
	"github.com/wovenlane/wovenlane-backend/internal/orders"
	products "github.com/wovenlane/wovenlane-backend/internal/products"
	"github.com/wovenlane/wovenlane-backend/internal/users"
	"github.com/wovenlane/wovenlane-backend/internal/wishlist"
	"github.com/wovenlane/wovenlane-backend/pkg/auth/session"
	"github.com/wovenlane/wovenlane-backend/pkg/config"
	"github.com/wovenlane/wovenlane-backend/pkg/db"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
	"github.com/wovenlane/wovenlane-backend/pkg/redis"
	"github.com/wovenlane/wovenlane-backend/pkg/storage/gcs"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	GCS     gcs.Pinger
	Session session.Checker

	AuthService         auth.Service
	ProductService      products.Service
	CartService         cart.Service
	WishlistService     wishlist.Service
	OrderService        orders.Service
	InventoryService    inventory.Service
	MediaService        media.Service
	NotificationService notifications.Service
	UserRepo            *users.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.GCS))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			With(middleware.Idempotency(deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Session, logg)).
			Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.ProductService, logg))
		r.Get("/{slug}", controllers.ProductDetail(deps.ProductService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/me", controllers.Me(deps.AuthService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Post("/", controllers.CartAddItem(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.WishlistService, logg))
			r.Post("/", controllers.WishlistAdd(deps.WishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(deps.WishlistService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.OrderService, logg))
		r.Post("/payments/confirm", controllers.PaymentConfirm(deps.OrderService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrderService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(deps.NotificationService, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(deps.NotificationService, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(deps.NotificationService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.OrderService, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(deps.OrderService, logg))
		})

		r.Get("/customers", controllers.AdminCustomerList(deps.UserRepo, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.ProductService, logg))
			r.Post("/", controllers.AdminProductCreate(deps.ProductService, logg))
			r.Get("/{productId}", controllers.AdminProductDetail(deps.ProductService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.ProductService, logg))
			r.Post("/{productId}/archive", controllers.AdminProductArchive(deps.ProductService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.ProductService, logg))
			r.Post("/{productId}/variants", controllers.AdminVariantAdd(deps.ProductService, logg))
			r.Patch("/{productId}/variants/{variantId}", controllers.AdminVariantUpdate(deps.ProductService, logg))
			r.Delete("/{productId}/variants/{variantId}", controllers.AdminVariantDelete(deps.ProductService, logg))
			r.Post("/{productId}/images", controllers.AdminImageAdd(deps.ProductService, logg))
			r.Delete("/{productId}/images/{imageId}", controllers.AdminImageDelete(deps.ProductService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/{variantId}", controllers.InventoryGet(deps.InventoryService, logg))
			r.Put("/{variantId}", controllers.InventoryAdjust(deps.InventoryService, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/presign", controllers.MediaPresignUpload(deps.MediaService, logg))
			r.Get("/download", controllers.MediaPresignDownload(deps.MediaService, logg))
		})
	})

	return r
}
