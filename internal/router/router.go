package router

import (
	"net/http"
	"time"

	"pharmart/config"
	"pharmart/internal/cache"
	"pharmart/internal/domain"
	"pharmart/internal/handler"
	"pharmart/internal/middleware"
	"pharmart/internal/repository"
	"pharmart/internal/service"
	"pharmart/internal/ws"
	"pharmart/pkg/cloudinary"
	"pharmart/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewPayoutMethodRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	activityHub := ws.NewActivityHub()
	dashboardCache := cache.New(&cfg.Redis)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	ledgerSvc := service.NewLedgerService(db, txRepo, payoutRepo)
	payoutSvc := service.NewPayoutService(db, payoutRepo, methodRepo, ledgerSvc)
	metricsSvc := service.NewMetricsService(userRepo, orderRepo, payoutRepo, cfg.Currency)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	categoryHandler := handler.NewCategoryHandler(categoryRepo)
	productHandler := handler.NewProductHandler(productRepo, cloud, cfg.Currency)
	orderHandler := handler.NewOrderHandler(orderRepo, productRepo, userRepo, provider, cfg.Currency)
	payoutHandler := handler.NewPayoutHandler(payoutSvc, ledgerSvc, methodRepo, payoutRepo, txRepo, activityHub, cfg.Currency)
	adminHandler := handler.NewAdminHandler(metricsSvc, payoutSvc, userRepo, methodRepo, payoutRepo, txRepo,
		dashboardCache, activityHub, cfg.Redis.DashboardTTL, cfg.Currency)
	webhookHandler := handler.NewPaymentWebhookHandler(db, orderRepo, ledgerSvc, activityHub, cfg.Currency)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}
	api.GET("/categories", categoryHandler.List)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/webhooks/mpesa", webhookHandler.Handle)

	// Authenticated
	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))
	{
		authed.POST("/orders", orderHandler.Create)
		authed.GET("/orders", orderHandler.List)
		authed.GET("/orders/:id", orderHandler.Get)
		authed.POST("/orders/:id/checkout", orderHandler.Checkout)
	}

	// Supplier
	supplier := api.Group("/supplier")
	supplier.Use(middleware.AuthRequired(&cfg.JWT), middleware.RequireRole(domain.RoleSupplier, domain.RoleAdmin))
	{
		supplier.POST("/products", productHandler.Create)
		supplier.PUT("/products/:id", productHandler.Update)
		supplier.DELETE("/products/:id", productHandler.Delete)
		supplier.POST("/products/:id/image", productHandler.UploadImage)
		supplier.PUT("/orders/:id/status", orderHandler.UpdateStatus)

		supplier.GET("/balance", payoutHandler.Balance)
		supplier.POST("/payout-methods", payoutHandler.CreateMethod)
		supplier.GET("/payout-methods", payoutHandler.ListMethods)
		supplier.POST("/payout-methods/:id/primary", payoutHandler.SetPrimaryMethod)
		supplier.DELETE("/payout-methods/:id", payoutHandler.DeleteMethod)
		supplier.POST("/payouts", payoutHandler.RequestPayout)
		supplier.GET("/payouts", payoutHandler.ListPayouts)
		supplier.POST("/payouts/:id/cancel", payoutHandler.CancelPayout)
		supplier.GET("/transactions", payoutHandler.ListTransactions)
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.POST("/categories", categoryHandler.Create)
		admin.GET("/payouts", adminHandler.ListPayouts)
		admin.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
		admin.POST("/payouts/:id/complete", adminHandler.CompletePayout)
		admin.POST("/payouts/:id/fail", adminHandler.FailPayout)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.GET("/suppliers", adminHandler.ListSuppliers)
		admin.POST("/suppliers/:id/verify", adminHandler.VerifySupplier)
		admin.POST("/payout-methods/:id/verify", adminHandler.VerifyPayoutMethod)
		admin.GET("/exports/transactions", adminHandler.ExportTransactions)
		admin.GET("/exports/payouts", adminHandler.ExportPayouts)
	}

	r.GET("/ws/admin/activity", ws.UpgradeActivityWS(&cfg.JWT, activityHub))

	return r
}
