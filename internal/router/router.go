package router

import (
	"net/http"

	"jndata/config"
	"jndata/internal/domain"
	"jndata/internal/handler"
	"jndata/internal/logger"
	"jndata/internal/metrics"
	"jndata/internal/middleware"
	"jndata/internal/repository"
	"jndata/internal/service"
	"jndata/internal/worker"
	"jndata/internal/ws"
	"jndata/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	notifyWorkers = 4
	notifyQueue   = 1024
)

// App is the wired HTTP engine plus the background pieces main has to start and stop.
type App struct {
	Engine     *gin.Engine
	Reconciler *service.Reconciler
	pool       *worker.Pool
	limiter    *middleware.InMemoryRateLimiter
}

// Close stops background workers after the HTTP server has shut down.
func (a *App) Close() {
	a.Reconciler.Stop()
	a.limiter.Close()
	a.pool.Stop()
}

func Setup(cfg *config.Config, db *gorm.DB, gateway payment.Gateway, log *zap.Logger) *App {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Init()
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(metrics.Middleware())
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	store := repository.NewStore(db)
	hub := ws.NewHub()
	pool := worker.NewPool(notifyWorkers, notifyQueue, log)

	// Services
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath, log)
	notifSvc := service.NewNotificationService(store, hub, fcmSvc, pool, log)
	authSvc := service.NewAuthService(&cfg.JWT, store, notifSvc, log)
	pricingSvc := service.NewPricingService(store)
	settlementSvc := service.NewSettlementService(store, pricingSvc, gateway, notifSvc, &cfg.Paystack, log)
	ledgerSvc := service.NewLedgerService(store, notifSvc, &cfg.Ledger, log)
	orderSvc := service.NewOrderService(store, pricingSvc, notifSvc, log)
	catalogSvc := service.NewCatalogService(store, log)
	vendorSvc := service.NewVendorService(store, notifSvc, log)
	reconciler := service.NewReconciler(store, settlementSvc, &cfg.Reconcile, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(vendorSvc, ledgerSvc)
	storefrontHandler := handler.NewStorefrontHandler(vendorSvc, pricingSvc, settlementSvc, orderSvc)
	pricingHandler := handler.NewPricingHandler(pricingSvc, vendorSvc)
	bundleHandler := handler.NewBundleHandler(catalogSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	subVendorHandler := handler.NewSubVendorHandler(authSvc, vendorSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(ledgerSvc)
	notificationHandler := handler.NewNotificationHandler(vendorSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(settlementSvc)
	adminHandler := handler.NewAdminHandler(vendorSvc, settlementSvc, reconciler)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()
	vendorMw := middleware.RequireRole(domain.RoleVendor)
	approvedMw := middleware.ApprovedVendor(store)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws/notifications", ws.UpgradeNotifications(&cfg.JWT, hub))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "wsClients": hub.ClientCount()})
	})

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(limiter, "auth"))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/admin/login", authHandler.AdminLogin)
		authGroup.PATCH("/change-password", authMw, vendorMw, authHandler.ChangePassword)
	}

	// Gateway callbacks are not rate limited; Paystack retries on failure.
	api.POST("/payments/verify", webhookHandler.Handle)
	api.GET("/payments/status/:reference", middleware.RateLimit(limiter, "status"), webhookHandler.Status)

	api.GET("/bundles", bundleHandler.List)
	api.GET("/bundles/:id", bundleHandler.Get)

	// Vendor account routes that work before approval.
	me := api.Group("/vendors/me")
	me.Use(authMw, vendorMw)
	{
		me.GET("", meHandler.Get)
		me.PUT("", meHandler.Update)
		me.GET("/notifications", notificationHandler.List)
		me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	}
	approved := api.Group("/vendors/me")
	approved.Use(authMw, approvedMw)
	{
		approved.GET("/profit", meHandler.Profit)
		approved.GET("/dashboard", meHandler.Dashboard)
		approved.GET("/prices", pricingHandler.List)
		approved.PUT("/prices", pricingHandler.Update)
		approved.GET("/orders", orderHandler.ListMine)
		approved.GET("/withdrawals", withdrawalHandler.ListMine)
		approved.POST("/withdrawals", withdrawalHandler.Create)
		approved.GET("/sub-vendors", subVendorHandler.List)
		approved.POST("/sub-vendors", subVendorHandler.Create)
	}

	storefront := api.Group("/vendors")
	storefront.Use(middleware.RateLimit(limiter, "storefront"))
	{
		storefront.GET("/link/:vendorLink", storefrontHandler.Vendor)
		storefront.GET("/:vendorLink/bundles", storefrontHandler.Bundles)
		storefront.POST("/:vendorLink/pay", storefrontHandler.Pay)
		storefront.POST("/:vendorLink/orders", storefrontHandler.CreateOrder)
	}

	api.PUT("/withdrawals/:id/approve", authMw, adminMw, withdrawalHandler.Process)

	admin := api.Group("/admin")
	admin.Use(authMw, adminMw)
	{
		admin.GET("/vendors", adminHandler.ListVendors)
		admin.GET("/vendors/:id", adminHandler.GetVendor)
		admin.PUT("/vendors/:id/approve", adminHandler.SetApproval)
		admin.PUT("/vendors/:id/prices", pricingHandler.AdminUpdate)

		admin.POST("/bundles", bundleHandler.Create)
		admin.PUT("/bundles/:id", bundleHandler.Update)
		admin.DELETE("/bundles/:id", bundleHandler.Delete)

		admin.GET("/orders", orderHandler.List)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)

		admin.GET("/withdrawals", withdrawalHandler.List)
		admin.PUT("/withdrawals/:id", withdrawalHandler.Process)

		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.POST("/transactions/:reference/verify", adminHandler.VerifyTransaction)
		admin.POST("/reconcile", adminHandler.Reconcile)
		admin.GET("/audit-logs", adminHandler.AuditLogs)
	}

	return &App{Engine: r, Reconciler: reconciler, pool: pool, limiter: limiter}
}
