package router

import (
	"github.com/gin-gonic/gin"

	"github.com/adukenov/uslugi-backend/internal/config"
	"github.com/adukenov/uslugi-backend/internal/http/handlers"
	"github.com/adukenov/uslugi-backend/internal/http/middleware"
	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	catalogHandler *handlers.CatalogHandler,
	orderHandler *handlers.OrderHandler,
	walletHandler *handlers.WalletHandler,
	maintenanceHandler *handlers.MaintenanceHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
		api.GET("/seed", seedHandler.Seed)
	}

	// Каталог (публичный)
	api.GET("/catalog/services", catalogHandler.ListServices)
	api.GET("/catalog/services/:id/sub-services", middleware.UUIDValidator("id"), catalogHandler.ListSubServices)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		specialist := middleware.RequireRole(models.RoleSpecialist)
		customer := middleware.RequireRole(models.RoleCustomer)
		admin := middleware.RequireRole(models.RoleAdmin)

		// Профиль специалиста
		protected.GET("/specialists/me/sub-services", specialist, catalogHandler.GetMySubServices)
		protected.PUT("/specialists/me/sub-services", specialist, catalogHandler.SetMySubServices)

		// Заказы
		protected.POST("/orders", customer, orderHandler.Create)
		protected.GET("/orders/my", customer, orderHandler.ListMy)
		protected.GET("/orders/available", specialist, orderHandler.ListAvailable)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)

		// Отклики
		protected.POST("/orders/:id/proposals", middleware.UUIDValidator("id"), specialist, orderHandler.SubmitProposal)
		protected.GET("/orders/:id/proposals", middleware.UUIDValidator("id"), orderHandler.ListProposals)

		// Жизненный цикл
		protected.POST("/orders/:id/select", middleware.UUIDValidator("id"), customer, orderHandler.SelectProposal)
		protected.POST("/orders/:id/start", middleware.UUIDValidator("id"), specialist, orderHandler.Start)
		protected.POST("/orders/:id/complete", middleware.UUIDValidator("id"), customer, orderHandler.Complete)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), admin, orderHandler.Cancel)

		// Кошелёк
		protected.GET("/wallet", walletHandler.GetWallet)
		protected.POST("/wallet/deposit", walletHandler.Deposit)
		protected.POST("/wallet/transfer", walletHandler.Transfer)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)

		// Обслуживание
		protected.POST("/admin/maintenance/expire-orders", admin, maintenanceHandler.ExpireOrders)
	}

	return r
}
