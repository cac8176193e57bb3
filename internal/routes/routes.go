package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/cache"
	"github.com/example/storehub/internal/config"
	"github.com/example/storehub/internal/handlers"
	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, redis *cache.Redis, logger *logrus.Logger) {
	m := metrics.Registry("storehub")

	tokenService := services.NewTokenService(db, cfg)
	verificationService := services.NewVerificationService(db, logger)
	mailer := services.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, m, logger)
	quotaService := services.NewQuotaService(db)
	storeService := services.NewStoreService(db, logger)
	productService := services.NewProductService(db, quotaService, logger)
	geoService := services.NewIPLocationService(db, redis, cfg.IPInfoToken, cfg.GeoCacheTTL, m, logger)
	trackingService := services.NewTrackingService(db, geoService, m, logger)
	ratingService := services.NewRatingService(db, m)
	analyticsService := services.NewAnalyticsService(db, ratingService, m, logger)
	paymentService := services.NewPaymentService(db, redis, cfg.PaymentBaseURL, cfg.PaymentSecretKey, logger)

	authHandler := handlers.NewAuthHandler(db, cfg, tokenService, verificationService, mailer)
	storeHandler := handlers.NewStoreHandler(storeService, quotaService)
	productHandler := handlers.NewProductHandler(productService, storeService)
	trackingHandler := handlers.NewTrackingHandler(trackingService, storeService, productService)
	ratingHandler := handlers.NewRatingHandler(ratingService, storeService, productService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, storeService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	authRequired := middleware.AuthMiddleware(tokenService)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Get("/verification-status", authHandler.VerificationStatus)
	auth.Post("/resend-verification", authHandler.ResendVerification)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/change-password", authRequired, authHandler.ChangePassword)
	auth.Post("/logout", authRequired, authHandler.Logout)
	auth.Get("/me", authRequired, authHandler.Me)

	// Store management
	store := api.Group("/store", authRequired, middleware.RequireVerified())
	store.Post("/", storeHandler.Create)
	store.Put("/", storeHandler.Update)
	store.Get("/", storeHandler.Mine)
	store.Delete("/", storeHandler.Deactivate)
	store.Get("/quota", storeHandler.Quota)

	// Catalog management
	products := api.Group("/products", authRequired, middleware.RequireVerified())
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.Mine)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Public storefront
	public := api.Group("/public")
	public.Get("/stores/:slug", storeHandler.BySlug)
	public.Get("/stores/:slug/products", productHandler.ByStoreSlug)
	public.Get("/products/:slug", productHandler.BySlug)

	// Anonymous tracking
	public.Post("/stores/:slug/views", trackingHandler.StoreView)
	public.Post("/stores/:slug/inquiries", trackingHandler.Inquiry)
	public.Post("/products/:slug/views", trackingHandler.ProductView)
	public.Post("/page-views", trackingHandler.PageView)
	public.Post("/page-views/batch", trackingHandler.PageViewBatch)

	// Anonymous ratings
	public.Post("/stores/:slug/ratings", ratingHandler.RateStore)
	public.Get("/stores/:slug/ratings", ratingHandler.StoreSummary)
	public.Post("/products/:slug/ratings", ratingHandler.RateProduct)
	public.Delete("/products/:slug/ratings", ratingHandler.DeleteProductRating)
	public.Get("/products/:slug/ratings/me", ratingHandler.HasRated)
	public.Post("/products/:slug/like", ratingHandler.ToggleLike)

	// Dashboard analytics
	analytics := api.Group("/analytics", authRequired)
	analytics.Get("/store", analyticsHandler.StoreDashboard)
	analytics.Get("/page-views", analyticsHandler.PageViews)
	analytics.Get("/page-views/stats", analyticsHandler.PageViewStats)

	// Subscriptions
	billing := api.Group("/billing")
	billing.Get("/plans", paymentHandler.Plans)
	billing.Post("/initiate", authRequired, paymentHandler.Initiate)
	billing.Get("/verify", paymentHandler.Verify)
}
