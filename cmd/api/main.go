package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/config"
	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/reconcile"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/broker"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/cache"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/postgres"

	expH "github.com/fekuna/omnipos-fulfillment-service/internal/export/handler"
	expRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/export/repository"
	expUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/export/usecase"

	lotH "github.com/fekuna/omnipos-fulfillment-service/internal/lot/handler"
	lotRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/lot/repository"
	lotUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/lot/usecase"

	ordH "github.com/fekuna/omnipos-fulfillment-service/internal/order/handler"
	ordListenerPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/listener"
	ordMsgPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/messaging"
	ordRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/repository"
	ordUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/order/usecase"

	stockH "github.com/fekuna/omnipos-fulfillment-service/internal/stock/handler"
	stockRepoPkg "github.com/fekuna/omnipos-fulfillment-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-fulfillment-service/internal/stock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := runMigrations(db); err != nil {
		appLogger.Fatal("Could not run migrations", zap.Error(err))
	}

	// 4. Initialize Repositories
	lotRepo := lotRepoPkg.NewPGRepository(db)
	stockRepo := stockRepoPkg.NewPGRepository(db)
	expRepo := expRepoPkg.NewPGRepository(db)
	ordRepo := ordRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka
	orderProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
	})
	defer orderProducer.Close()

	paymentConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.PaymentsTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer paymentConsumer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		zap.String("payments_topic", cfg.Kafka.PaymentsTopic),
	)

	// 6. Initialize UseCases
	lotUC := lotUCPkg.NewLotUseCase(lotRepo, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, redisClient, appLogger)
	expUC := expUCPkg.NewExportUseCase(expRepo, lotRepo, ordRepo, appLogger)
	ordUC := ordUCPkg.NewOrderUseCase(ordRepo, expUC, stockUC, ordMsgPkg.NewOrderEventProducer(orderProducer), appLogger)

	// 6.5 Initialize Listeners
	paymentListener := ordListenerPkg.NewPaymentListener(paymentConsumer, ordUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go paymentListener.Start(ctx)

	// 6.8 Reconciliation Job
	reconcileJob := reconcile.NewJob(lotRepo, redisClient, appLogger,
		cfg.Reconcile.BatchSize,
		time.Duration(cfg.Reconcile.LockTTLSecs)*time.Second,
	)
	cronRunner := cron.New()
	if err := reconcileJob.Schedule(cronRunner, cfg.Reconcile.CronSpec); err != nil {
		appLogger.Fatal("Could not schedule reconciliation job", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()
	appLogger.Info("Scheduled reconciliation job", zap.String("cron", cfg.Reconcile.CronSpec))

	// 7. Initialize Handlers and Router
	if cfg.Server.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), auth.Middleware())

	api := router.Group("/api/v1")
	lotH.NewLotHandler(lotUC, appLogger).RegisterRoutes(api)
	stockH.NewStockHandler(stockUC, appLogger).RegisterRoutes(api)
	expH.NewExportHandler(expUC, appLogger).RegisterRoutes(api)
	ordH.NewOrderHandler(ordUC, appLogger).RegisterRoutes(api)
	reconcile.NewHandler(reconcileJob).RegisterRoutes(api)

	// 8. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	appLogger.Info("Server stopped")
}

func runMigrations(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS warehouses (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS skus (
		id VARCHAR(36) PRIMARY KEY,
		product_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_skus_product ON skus (product_id);

	CREATE TABLE IF NOT EXISTS lots (
		id VARCHAR(36) PRIMARY KEY,
		warehouse_id VARCHAR(36) NOT NULL REFERENCES warehouses (id),
		sku_id VARCHAR(36) NOT NULL REFERENCES skus (id),
		lot_name VARCHAR(255) NOT NULL,
		quantity_imported BIGINT NOT NULL CHECK (quantity_imported > 0),
		quantity_sold BIGINT NOT NULL DEFAULT 0 CHECK (quantity_sold >= 0),
		quantity_remaining BIGINT NOT NULL CHECK (quantity_remaining >= 0),
		price_imported DECIMAL(14, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (warehouse_id, sku_id, lot_name)
	);
	CREATE INDEX IF NOT EXISTS idx_lots_sku ON lots (sku_id);

	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) PRIMARY KEY,
		customer_id VARCHAR(36) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'PENDING',
		payment_status VARCHAR(32) NOT NULL DEFAULT 'PENDING',
		payment_method VARCHAR(32) NOT NULL,
		total_price DECIMAL(14, 2) NOT NULL DEFAULT 0,
		export_id VARCHAR(36),
		delivery_time TIMESTAMPTZ,
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);

	CREATE TABLE IF NOT EXISTS order_lines (
		id VARCHAR(36) PRIMARY KEY,
		order_id VARCHAR(36) NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		sku_id VARCHAR(36) NOT NULL REFERENCES skus (id),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		price DECIMAL(14, 2) NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id);

	CREATE TABLE IF NOT EXISTS exports (
		id VARCHAR(36) PRIMARY KEY,
		export_type VARCHAR(16) NOT NULL,
		warehouse_id VARCHAR(36) NOT NULL REFERENCES warehouses (id),
		order_id VARCHAR(36) UNIQUE REFERENCES orders (id),
		import_warehouse_id VARCHAR(36) REFERENCES warehouses (id),
		request_id VARCHAR(64) UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS export_details (
		id VARCHAR(36) PRIMARY KEY,
		export_id VARCHAR(36) NOT NULL REFERENCES exports (id) ON DELETE CASCADE,
		lot_id VARCHAR(36) NOT NULL REFERENCES lots (id),
		sku_id VARCHAR(36) NOT NULL REFERENCES skus (id),
		warehouse_id VARCHAR(36) NOT NULL REFERENCES warehouses (id),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_export_details_lot ON export_details (lot_id);
	CREATE INDEX IF NOT EXISTS idx_export_details_export ON export_details (export_id);
	`

	_, err := db.Exec(schema)
	return err
}
