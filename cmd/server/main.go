package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
	residencyapp "github.com/pgledger/backend/internal/application/residency"
	"github.com/pgledger/backend/internal/infrastructure/cache"
	"github.com/pgledger/backend/internal/infrastructure/config"
	"github.com/pgledger/backend/internal/infrastructure/event"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"github.com/pgledger/backend/internal/infrastructure/persistence"
	"github.com/pgledger/backend/internal/infrastructure/scheduler"
	"github.com/pgledger/backend/internal/infrastructure/telemetry"
	"github.com/pgledger/backend/internal/interfaces/http/handler"
	"github.com/pgledger/backend/internal/interfaces/http/middleware"
	"github.com/pgledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/pgledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			PG Ledger API
//	@version		1.0
//	@description	Tenant registry, monthly bill generation and payment ledger for a paying-guest residency

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

// lockWait bounds how long a request waits for a busy room or ledger lock
const lockWait = 3 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting PG Ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", handler.Version),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	meter := tp.Meter("pg-ledger")
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate || cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.Driver); err != nil {
			log.Fatal("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Locks and idempotency keys
	coord, err := cache.NewCoordination(ctx, cfg.Redis, lockWait, log)
	if err != nil {
		log.Fatal("Failed to initialize coordination store", zap.Error(err))
	}
	defer func() { _ = coord.Close() }()

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLogHandler())
	var kafka *event.KafkaForwarder
	if cfg.Events.KafkaEnabled {
		producer, err := event.NewKafkaProducer(cfg.Events)
		if err != nil {
			log.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		kafka = event.NewKafkaForwarder(producer, cfg.Events.Topic, log)
		eventBus.Subscribe(kafka)
		log.Info("Forwarding ledger events to Kafka",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories
	txManager := persistence.NewGormTransactionManager(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	// Application services
	tenantService := residencyapp.NewTenantService(tenantRepo, txManager)
	tenantService.SetEventPublisher(eventBus)

	generator := ledgerapp.NewBillGenerator(tenantRepo, billRepo, txManager, coord.Locker, ledgerapp.GeneratorConfig{
		DefaultRate:         cfg.Billing.DefaultElectricityRate,
		DueDays:             cfg.Billing.DueDays,
		RequireMeterReading: cfg.Billing.RequireMeterReading,
		Workers:             cfg.Billing.GenerationWorkers,
		LockTTL:             cfg.Billing.LockTTL,
	})
	generator.SetEventPublisher(eventBus)
	generator.SetLedgerMetrics(ledgerMetrics)

	paymentLedger := ledgerapp.NewPaymentLedger(tenantRepo, billRepo, paymentRepo, txManager, coord.Locker, cfg.Billing.LockTTL)
	paymentLedger.SetEventPublisher(eventBus)
	paymentLedger.SetLedgerMetrics(ledgerMetrics)

	maintenance := ledgerapp.NewMaintenanceService(billRepo, paymentRepo, txManager, coord.Locker, cfg.Billing.LockTTL)
	maintenance.SetEventPublisher(eventBus)
	maintenance.SetLedgerMetrics(ledgerMetrics)

	queryService := ledgerapp.NewQueryService(billRepo, paymentRepo)

	// Overdue sweep
	overdueScheduler, err := scheduler.NewOverdueScheduler(scheduler.OverdueSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		CronSpec:   cfg.Scheduler.OverdueCron,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, maintenance, log)
	if err != nil {
		log.Fatal("Failed to create overdue scheduler", zap.Error(err))
	}
	if err := overdueScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start overdue scheduler", zap.Error(err))
	}

	// HTTP handlers
	handlers := router.Handlers{
		System:  handler.NewSystemHandler(cfg.App.Name, db),
		Tenant:  handler.NewTenantHandler(tenantService),
		Bill:    handler.NewBillHandler(generator, queryService, maintenance),
		Payment: handler.NewPaymentHandler(paymentLedger, queryService),
		Stats:   handler.NewStatsHandler(queryService),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		httpMetrics,
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, registrar := range router.LedgerRoutes(handlers,
		middleware.Idempotency(coord.Idempotency, middleware.DefaultIdempotencyTTL)) {
		r.Register(registrar)
	}
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := overdueScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Overdue scheduler did not stop cleanly", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if kafka != nil {
		if err := kafka.Close(); err != nil {
			log.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}
