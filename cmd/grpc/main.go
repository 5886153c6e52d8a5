package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-pharmacy/config"
	"github.com/fekuna/omnipos-pharmacy/internal/broker"
	"github.com/fekuna/omnipos-pharmacy/internal/cache"
	"github.com/fekuna/omnipos-pharmacy/internal/database"
	"github.com/fekuna/omnipos-pharmacy/internal/gateway"
	"github.com/fekuna/omnipos-pharmacy/internal/gateway/memory"
	gatewayRepo "github.com/fekuna/omnipos-pharmacy/internal/gateway/repository"
	"github.com/fekuna/omnipos-pharmacy/internal/handler"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/fekuna/omnipos-pharmacy/internal/product"
	prodUCPkg "github.com/fekuna/omnipos-pharmacy/internal/product/usecase"
	"github.com/fekuna/omnipos-pharmacy/internal/report"
	"github.com/fekuna/omnipos-pharmacy/internal/sale"
	saleListenerPkg "github.com/fekuna/omnipos-pharmacy/internal/sale/listener"
	saleUCPkg "github.com/fekuna/omnipos-pharmacy/internal/sale/usecase"
	settingUCPkg "github.com/fekuna/omnipos-pharmacy/internal/setting/usecase"
	"github.com/fekuna/omnipos-pharmacy/internal/state"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		ServiceName:       "pharmacy",
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []io.Closer

	// 3. Connect to the data gateway
	var gw gateway.Gateway
	if cfg.Gateway.Offline {
		mem := memory.New()
		if path := cfg.Gateway.OfflineSeedPath; path != "" {
			res, err := mem.SeedFile(path)
			if err != nil {
				appLogger.Fatal("Could not load offline seed", zap.String("path", path), zap.Error(err))
			}
			appLogger.Info("Loaded offline seed",
				zap.String("path", path),
				zap.Int("products", res.Products),
				zap.Int("sales", res.Sales),
				zap.Int("rejected_products", len(res.RejectedProducts)),
				zap.Int("rejected_sales", len(res.RejectedSales)),
			)
		}
		gw = mem
		appLogger.Warn("Gateway running offline, data is kept in memory only")
	} else {
		db, err := database.NewPostgres(ctx, &database.Config{
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
		closers = append(closers, db)
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		if cfg.Postgres.MigrateOnStart {
			if err := database.Migrate(db); err != nil {
				appLogger.Fatal("Could not run migrations", zap.Error(err))
			}
		}
		gw = gatewayRepo.NewPGRepository(db, appLogger)
	}

	// 4. Initialize Redis (optional)
	var locker product.Locker
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "pharmacy:",
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, running without cache and locks", zap.Error(err))
		} else {
			closers = append(closers, redisClient)
			gw = gateway.WithCache(gw, redisClient, cfg.Redis.CacheTTL, appLogger)
			locker = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}
	gw = gateway.WithTimeout(gw, cfg.Gateway.Timeout)

	// 5. Initialize live state
	store := state.NewStore(nil, cfg.History.MaxLength, appLogger)

	// 6. Initialize Kafka producer (optional)
	var publisher sale.Publisher
	kafkaCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(kafkaCfg)
		closers = append(closers, producer)
		publisher = producer
	}

	// 7. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(gw, store, locker, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(gw, store, publisher, cfg.Server.TerminalID, appLogger)
	settingUC := settingUCPkg.NewSettingUseCase(gw, store, appLogger)
	engine := report.NewEngine(gw, appLogger,
		report.WithExpiryWindow(cfg.Report.ExpiryWindowDays),
		report.WithCOGSRatio(cfg.Report.COGSRatio),
		report.WithAssumedMargin(cfg.Report.AssumedMargin),
	)

	if err := prodUC.Refresh(ctx); err != nil {
		appLogger.Error("Initial product load failed, starting with an empty catalog", zap.Error(err))
	}
	if err := saleUC.RefreshSales(ctx); err != nil {
		appLogger.Error("Initial sales load failed", zap.Error(err))
	}
	p, _ := store.Depth()
	appLogger.Info("Live state ready",
		zap.Int("products", len(store.Snapshot().Products)),
		zap.Int("sales_today", len(store.Snapshot().Sales)),
		zap.Int("history", p),
	)

	// 8. Initialize Listeners
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(kafkaCfg)
		closers = append(closers, consumer)
		saleListener := saleListenerPkg.NewSaleListener(consumer, saleUC, cfg.Server.TerminalID, appLogger)
		go saleListener.Start(ctx)
		appLogger.Info("Listening for sales from other terminals",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// 9. Initialize Handlers
	pharmacyHandler := handler.NewPharmacyHandler(engine, prodUC, saleUC, settingUC, store, appLogger)

	// 10. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			handler.ContextInterceptor(appLogger),
			handler.RecoveryInterceptor(appLogger),
		),
	)

	handler.RegisterPharmacyServiceServer(grpcServer, pharmacyHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	// 11. Start metrics server
	metricsPort := cfg.Server.MetricsPort
	if !strings.HasPrefix(metricsPort, ":") {
		metricsPort = ":" + metricsPort
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: metricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	appLogger.Info("Starting gRPC server",
		zap.String("port", port),
		zap.String("metrics_port", metricsPort),
		zap.String("terminal_id", cfg.Server.TerminalID),
	)

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("metrics server shutdown", zap.Error(err))
	}
	if err := broker.CloseAll(closers...); err != nil {
		appLogger.Warn("errors while closing connections", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
