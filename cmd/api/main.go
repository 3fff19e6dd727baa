package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/api"
	"github.com/sanosuguru/go-court-reservation/internal/api/handler"
	"github.com/sanosuguru/go-court-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/config"
	"github.com/sanosuguru/go-court-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-court-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-court-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-court-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-court-reservation/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("設定が不正", zap.Error(err))
	}

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("DB接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Redis接続に失敗", zap.Error(err))
	}
	defer redisClient.Close()

	lockManager := redisinfra.NewLockManager(redisClient)
	availabilityCache := redisinfra.NewAvailabilityCache(redisClient)

	// イベント発行（RabbitMQ未起動時は発行なしで起動を続ける）
	var publisher application.EventPublisher
	rabbitPublisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Warn("RabbitMQ接続に失敗。イベント発行なしで起動します", zap.Error(err))
	} else {
		publisher = rabbitPublisher
		defer rabbitPublisher.Close()
	}

	m := metrics.New()

	// リポジトリ・サービス初期化
	courtRepo := postgres.NewCourtRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	blockRepo := postgres.NewScheduleBlockRepository(db)
	txManager := postgres.NewTxManager(db)

	checker := application.NewConflictChecker(reservationRepo, blockRepo)
	pricingCfg := pricing.DefaultConfig()
	pricingCfg.TaxRate = cfg.Pricing.TaxRate
	pricingCfg.ServiceFeeRate = cfg.Pricing.ServiceFeeRate
	calc := pricing.NewCalculator(pricingCfg)

	courtService := application.NewCourtService(courtRepo)
	availabilityService := application.NewAvailabilityService(courtRepo, checker, calc, availabilityCache, cfg.Booking.CacheTTL)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, courtRepo, checker, calc,
		lockManager, availabilityCache, publisher, m,
	)
	scheduleService := application.NewScheduleService(blockRepo, reservationRepo, courtRepo, availabilityCache)

	courtHandler := handler.NewCourtHandler(courtService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	healthHandler := handler.NewHealthHandler(db)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.POST("/courts", courtHandler.Create)
	v1.GET("/courts", courtHandler.List)
	v1.GET("/courts/:id", courtHandler.GetByID)
	v1.GET("/courts/:id/availability", availabilityHandler.GetSlots)
	v1.GET("/courts/:id/availability/check", availabilityHandler.Check)

	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.GetUserReservations)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/confirm", reservationHandler.ConfirmPayment)
	v1.POST("/reservations/:id/check-in", reservationHandler.CheckIn)
	v1.POST("/reservations/:id/check-out", reservationHandler.CheckOut)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	v1.POST("/schedule/blocks", scheduleHandler.CreateBlock)
	v1.GET("/schedule/blocks", scheduleHandler.ListBlocks)
	v1.DELETE("/schedule/blocks/:id", scheduleHandler.DeleteBlock)
	v1.POST("/schedule/special-rates", scheduleHandler.CreateSpecialRate)

	// 予約スイーパー起動（pending自動キャンセル・no_show遷移）
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	sweeper := worker.NewReservationSweeper(reservationService, cfg.Booking.SweepInterval, cfg.Booking.PendingPaymentTTL, m)
	go sweeper.Start(sweeperCtx)

	// サーバー起動
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	cancelSweeper()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
