package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adukenov/uslugi-backend/internal/config"
	"github.com/adukenov/uslugi-backend/internal/db"
	"github.com/adukenov/uslugi-backend/internal/goroutine"
	httpHandlers "github.com/adukenov/uslugi-backend/internal/http/handlers"
	httpRouter "github.com/adukenov/uslugi-backend/internal/http/router"
	"github.com/adukenov/uslugi-backend/internal/logger"
	"github.com/adukenov/uslugi-backend/internal/pkg/clock"
	"github.com/adukenov/uslugi-backend/internal/repository"
	"github.com/adukenov/uslugi-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	systemClock := clock.System()

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)

	// Сервисы.
	catalogService := service.NewCatalogService(catalogRepo)
	walletService := service.NewWalletService(walletRepo, cfg.CommissionRate)
	orderService := service.NewOrderService(orderRepo, catalogRepo, walletService, systemClock)
	sweeperService := service.NewSweeperService(orderRepo, systemClock)
	seedService := service.NewSeedService(userRepo, catalogRepo, walletRepo)

	// Фоновый свипер просроченных заказов.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sweeperService.ExpireStaleOrders(ctx); err != nil {
					logger.Log.WithError(err).Error("Ошибка прогона свипера")
				}
			}
		}
	})

	// HTTP хэндлеры.
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	maintenanceHandler := httpHandlers.NewMaintenanceHandler(sweeperService)
	seedHandler := httpHandlers.NewSeedHandler(seedService, tokenManager)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, healthHandler, catalogHandler, orderHandler, walletHandler, maintenanceHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
