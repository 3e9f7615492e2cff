package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/homepage"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/payments"
	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	principals middleware.PrincipalLoader,
	authService auth.Service,
	userService users.Service,
	productService products.Service,
	cartService cart.Service,
	orderService orders.Service,
	paymentService payments.Service,
	reviewService reviews.Service,
	wishlistService wishlist.Service,
	homepageService homepage.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL, cfg.App.CORSOrigins),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}

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

	protect := middleware.Auth(cfg.JWT, principals, logg)
	admin := middleware.RequireAdmin(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		r.Handle(cfg.Metrics.Path, metrics.Handler(gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.FeatureFlags.Idempotency {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
			r.Post("/verify-otp", controllers.AuthVerifyOTP(authService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Post("/change-password", controllers.AuthChangePassword(authService, logg))
				r.Get("/update", controllers.UserProfile(userService, logg))
				r.Put("/update", controllers.UserUpdateProfile(userService, logg))
				r.With(admin).Post("/set-admin", controllers.UserSetAdmin(userService, logg))
				r.With(admin).Get("/user-count", controllers.UserCount(userService, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/search", controllers.ProductsSearch(productService, logg))
			r.Get("/filters", controllers.ProductsCatalog(productService, logg))
			r.Get("/filter", controllers.ProductsFilter(productService, logg))
			r.With(protect, admin).Get("/product-count", controllers.ProductsCount(productService, logg))
			r.Get("/", controllers.ProductsList(productService, logg))
			r.Get("/{id}/price-details", controllers.ProductsPriceDetails(productService, logg))
			r.Get("/{id}", controllers.ProductsGet(productService, logg))
			r.Group(func(r chi.Router) {
				r.Use(protect, admin)
				r.Post("/", controllers.AdminCreateProduct(productService, logg))
				r.Put("/{id}", controllers.AdminUpdateProduct(productService, logg))
				r.Delete("/{id}", controllers.AdminDeleteProduct(productService, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(protect)
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/add", controllers.CartAddItem(cartService, logg))
			r.Delete("/remove", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/clear", controllers.CartClear(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			// The gateway posts the verification callback without a session.
			r.Post("/v1/paymentVerification", controllers.PaymentVerify(paymentService, logg))

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Get("/v1/getKey", controllers.PaymentKey(paymentService, logg))
				r.Post("/v1/payment/process", controllers.PaymentProcess(paymentService, logg))

				r.Route("/admin", func(r chi.Router) {
					r.Use(admin)
					r.Get("/all", controllers.AdminOrdersList(orderService, logg))
					r.Get("/count", controllers.AdminOrdersCount(orderService, logg))
					r.Get("/recent", controllers.AdminOrdersRecent(orderService, logg))
				})

				r.Post("/", controllers.OrderCreate(orderService, logg))
				r.Get("/", controllers.OrderListMine(orderService, logg))
				r.Get("/{id}", controllers.OrderGet(orderService, logg))
				r.With(admin).Put("/{id}", controllers.OrderUpdateStatus(orderService, logg))
				r.Post("/{id}/cancel", controllers.OrderCancel(orderService, logg))
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{productId}", controllers.ReviewListForProduct(reviewService, logg))
			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Post("/", controllers.ReviewCreate(reviewService, logg))
				r.Put("/{reviewId}", controllers.ReviewUpdate(reviewService, logg))
				r.Delete("/{reviewId}", controllers.ReviewDelete(reviewService, logg))
			})
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(protect)
			r.Get("/", controllers.WishlistList(wishlistService, logg))
			r.Post("/{productId}", controllers.WishlistAdd(wishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(wishlistService, logg))
		})

		r.Route("/homepage", func(r chi.Router) {
			r.Get("/", controllers.HomepageGet(homepageService, logg))
			r.Group(func(r chi.Router) {
				r.Use(protect, admin)
				r.Put("/", controllers.HomepageReplace(homepageService, logg))
				r.Post("/banners", controllers.HomepageAddBanner(homepageService, logg))
				r.Put("/banners/{bannerId}", controllers.HomepageUpdateBanner(homepageService, logg))
				r.Delete("/banners/{bannerId}", controllers.HomepageDeleteBanner(homepageService, logg))
				r.Post("/featured", controllers.HomepageChangeList(homepageService, homepage.ListFeatured, logg))
				r.Post("/offers", controllers.HomepageChangeList(homepageService, homepage.ListOffers, logg))
			})
		})
	})

	return r
}
