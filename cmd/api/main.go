package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/api/routes"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/homepage"
	"github.com/angelmondragon/shopfront-backend/internal/media"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/payments"
	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/mailer"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/migrate"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/razorpay"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
	"github.com/angelmondragon/shopfront-backend/pkg/storage/cloudinary"
)

const (
	serviceName     = "shopfront-api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName, Level: zerolog.InfoLevel})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	mail, err := mailer.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}
	cloudinaryClient, err := cloudinary.NewClient(cfg.Cloudinary, httpClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cloudinary client", err)
		os.Exit(1)
	}
	images, err := media.NewImages(cloudinaryClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create image service", err)
		os.Exit(1)
	}
	gateway, err := razorpay.NewClient(cfg.Razorpay, httpClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewHTTPMetrics(reg)
	orderMetrics := metrics.NewOrderMetrics(reg)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	productStoreFor := func(tx *gorm.DB) orders.ProductStore { return productRepo.WithTx(tx) }
	cartClearerFor := func(tx *gorm.DB) orders.CartClearer { return cartRepo.WithTx(tx) }

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:    userRepo,
		OTPStore:    auth.NewOTPStore(redisClient, cfg.OTP.TTL),
		Mailer:      mail,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
		OTPConfig:   cfg.OTP,
	})
	exitOnErr(logg, "auth service", err)

	userService, err := users.NewService(users.ServiceParams{Repo: userRepo})
	exitOnErr(logg, "user service", err)

	productService, err := products.NewService(products.ServiceParams{
		Repo:   productRepo,
		Images: images,
		Logger: logg,
	})
	exitOnErr(logg, "product service", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Tx:       dbClient,
		Products: productRepo,
		Logger:   logg,
	})
	exitOnErr(logg, "cart service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orderRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Products: productStoreFor,
		Carts:    cartClearerFor,
		Metrics:  orderMetrics,
		Logger:   logg,
	})
	exitOnErr(logg, "order service", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:     gateway,
		Orders:      orderRepo,
		Tx:          dbClient,
		Outbox:      outboxService,
		Carts:       cartClearerFor,
		Metrics:     orderMetrics,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logg,
	})
	exitOnErr(logg, "payment service", err)

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:     reviews.NewRepository(conn),
		Tx:       dbClient,
		Products: productRepo,
		Ratings:  func(tx *gorm.DB) reviews.RatingWriter { return productRepo.WithTx(tx) },
		Images:   images,
		Logger:   logg,
	})
	exitOnErr(logg, "review service", err)

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
		ProductRepo:  productRepo,
	})
	exitOnErr(logg, "wishlist service", err)

	homepageService, err := homepage.NewService(homepage.ServiceParams{
		Repo:     homepage.NewRepository(conn),
		Tx:       dbClient,
		Products: productRepo,
		Images:   images,
		Logger:   logg,
	})
	exitOnErr(logg, "homepage service", err)

	addr := ":" + cfg.App.Port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			prometheus.DefaultGatherer,
			userRepo,
			authService,
			userService,
			productService,
			cartService,
			orderService,
			paymentService,
			reviewService,
			wishlistService,
			homepageService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnErr(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
