package router

import (
	"time"

	"bdhishab/internal/config"
	"bdhishab/internal/handler"
	"bdhishab/internal/infra"
	"bdhishab/internal/middleware"
	"bdhishab/internal/repository"
	"bdhishab/internal/service"
	"bdhishab/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb, mailer)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	storeSvc := service.NewStoreService(storeRepo)
	ledgerSvc := service.NewLedgerService(ledgerRepo, storeRepo, dispatcher, cfg)
	saleSvc := service.NewSaleService(saleRepo, ledgerSvc)
	expenseSvc := service.NewExpenseService(expenseRepo, storeRepo, ledgerSvc)
	supplierSvc := service.NewSupplierService(supplierRepo, ledgerSvc)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, supplierRepo, storeRepo, ledgerSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	storesH := handler.NewStoreHandler(storeSvc)
	ledgerH := handler.NewLedgerHandler(ledgerSvc)
	salesH := handler.NewSaleHandler(saleSvc)
	expensesH := handler.NewExpenseHandler(expenseSvc)
	suppliersH := handler.NewSupplierHandler(supplierSvc)
	purchasesH := handler.NewPurchaseHandler(purchaseSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Stores: all roles can read, admin creates
		v1.GET("/stores", middleware.RequireRole("staff", "manager", "admin"), storesH.List)
		v1.GET("/stores/:id", middleware.RequireRole("staff", "manager", "admin"), storesH.Get)
		v1.POST("/stores", middleware.RequireRole("admin"), storesH.Create)

		// Ledger: balance and history readable by all roles; manual
		// movements are manager/admin only
		v1.GET("/stores/:id/balance", middleware.RequireRole("staff", "manager", "admin"), ledgerH.GetBalance)
		v1.GET("/stores/:id/ledger", middleware.RequireRole("staff", "manager", "admin"), ledgerH.ListEntries)
		v1.GET("/stores/:id/ledger/audit", middleware.RequireRole("manager", "admin"), ledgerH.Audit)
		v1.POST("/stores/:id/ledger/add", middleware.RequireRole("manager", "admin"), ledgerH.ManualAdd)
		v1.POST("/stores/:id/ledger/deduct", middleware.RequireRole("manager", "admin"), ledgerH.ManualDeduct)

		// Sales
		v1.POST("/sales", middleware.RequireRole("staff", "manager", "admin"), salesH.Create)
		v1.GET("/sales", middleware.RequireRole("staff", "manager", "admin"), salesH.List)
		v1.GET("/sales/:id", middleware.RequireRole("staff", "manager", "admin"), salesH.Get)
		v1.POST("/sales/:id/refund", middleware.RequireRole("manager", "admin"), salesH.Refund)

		// Expenses
		v1.POST("/expenses", middleware.RequireRole("manager", "admin"), expensesH.Create)
		v1.GET("/expenses", middleware.RequireRole("staff", "manager", "admin"), expensesH.List)

		// Suppliers: admin manages, manager can settle dues
		suppliers := v1.Group("/suppliers")
		{
			suppliers.POST("", middleware.RequireRole("admin"), suppliersH.Create)
			suppliers.GET("", middleware.RequireRole("staff", "manager", "admin"), suppliersH.List)
			suppliers.GET("/:id", middleware.RequireRole("staff", "manager", "admin"), suppliersH.Get)
			suppliers.POST("/:id/settle", middleware.RequireRole("manager", "admin"), suppliersH.Settle)
		}

		// Purchases
		purchases := v1.Group("/purchases")
		{
			purchases.POST("", middleware.RequireRole("manager", "admin"), purchasesH.Create)
			purchases.GET("", middleware.RequireRole("staff", "manager", "admin"), purchasesH.List)
			purchases.GET("/:id", middleware.RequireRole("staff", "manager", "admin"), purchasesH.Get)
			purchases.POST("/:id/pay", middleware.RequireRole("manager", "admin"), purchasesH.Pay)
		}

		// Users: admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
		}
	}

	// Swagger UI is only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
