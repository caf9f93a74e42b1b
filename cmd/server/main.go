package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/voucherdesk/backend/internal/application/identity"
	tenancyapp "github.com/voucherdesk/backend/internal/application/tenancy"
	venueapp "github.com/voucherdesk/backend/internal/application/venue"
	voucherapp "github.com/voucherdesk/backend/internal/application/voucher"
	"github.com/voucherdesk/backend/internal/infrastructure/auth"
	"github.com/voucherdesk/backend/internal/infrastructure/cache"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"github.com/voucherdesk/backend/internal/infrastructure/event"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence"
	"github.com/voucherdesk/backend/internal/infrastructure/storage"
	"github.com/voucherdesk/backend/internal/infrastructure/telemetry"
	"github.com/voucherdesk/backend/internal/interfaces/http/handler"
	"github.com/voucherdesk/backend/internal/interfaces/http/middleware"
	"github.com/voucherdesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  cfg.Log.TimeFormat,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel, err := telemetry.StartStack(ctx, telemetry.StackConfig{
		Config: telemetry.Config{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       cfg.Telemetry.ServiceName,
			ServiceVersion:    version,
			Environment:       cfg.App.Env,
			Insecure:          cfg.Telemetry.Insecure,
		},
		Metrics:         cfg.Telemetry.MetricsEnabled,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
		Profiling: telemetry.ProfilerConfig{
			Enabled:         cfg.Telemetry.ProfilingEnabled,
			ServerAddress:   cfg.Telemetry.PyroscopeAddress,
			ApplicationName: cfg.Telemetry.ServiceName,
			Tags:            map[string]string{"env": cfg.App.Env, "version": version},
		},
	}, log)
	if err != nil {
		log.Fatal("Failed to start telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Warn("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Logs go to the collector as well once the bridge is up
	if tel.Logs.IsEnabled() {
		log, err = logger.New(logCfg, tel.Logs.Core(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting voucherdesk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("timezone", cfg.App.Location().String()),
		zap.Bool("tracing", tel.Tracer.IsEnabled()),
		zap.Bool("metrics", tel.Meter.IsEnabled()),
		zap.Bool("profiling", tel.Profiler.IsEnabled()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.Open(ctx, &cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	meter := tel.Meter.Meter("voucherdesk")
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meter, cfg.Telemetry.DBSlowQueryThresh, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	defer func() { _ = dbMetrics.Stop() }()

	groupMirror, err := cache.NewGroupMirror(cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to connect group mirror", zap.Error(err))
	}

	objectStore, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize attachment storage", zap.Error(err))
	}

	// Domain events feed the audit log and the workflow counters
	eventBus := event.NewInMemoryEventBus(log)
	workflowMetrics, err := telemetry.NewWorkflowMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create workflow metrics", zap.Error(err))
	}
	eventBus.Subscribe(event.NewAuditHandler(event.NewEventSerializer(), log))
	eventBus.Subscribe(workflowMetrics)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)
	authz := identityapp.NewAuthorizationService(scope, log)
	userService := identityapp.NewUserService(scope, log)
	permissionService := identityapp.NewPermissionService(scope, log)
	companyService := tenancyapp.NewCompanyService(scope, eventBus, cfg.App.TemplateCompany, log)
	membershipService := tenancyapp.NewMembershipService(scope, groupMirror, eventBus, log)
	designationService := tenancyapp.NewDesignationService(scope, log)
	accountService := tenancyapp.NewBankAccountService(scope, log)
	organizationService := tenancyapp.NewOrganizationService(scope, log)
	voucherService := voucherapp.NewService(scope, authz, storage.NewAttachmentRemover(objectStore, log), eventBus, log,
		voucherapp.WithRetryObserver(workflowMetrics),
		voucherapp.WithConfig(voucherapp.Config{
			MaxRetries:  cfg.Approval.MaxRetries,
			BaseBackoff: cfg.Approval.BaseBackoff,
		}),
	)
	venueService := venueapp.NewService(scope, authz, eventBus, cfg.App.Location(), log)
	tokens := auth.NewTokenVerifier(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()

	// Middleware order:
	// 1. RequestID  2. Logger  3. Recovery  4. CORS  5. Security headers
	// 6. BodyLimit  7. Tracing  8. Metrics  9. RateLimit (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if tel.Tracer.IsEnabled() {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName), middleware.SpanEnricher())
	}
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db, log)
	engine.GET("/health", systemHandler.Health)

	// Everything under /api/v1 needs a bearer token
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.Authenticate(tokens, userService))
	if tel.Profiler.IsEnabled() {
		r.Use(middleware.Profiling())
	}

	groups := router.APIGroups(router.Handlers{
		Company:      handler.NewCompanyHandler(companyService),
		User:         handler.NewUserHandler(userService),
		Membership:   handler.NewMembershipHandler(membershipService),
		Organization: handler.NewOrganizationHandler(organizationService),
		Designation:  handler.NewDesignationHandler(designationService, voucherService),
		Account:      handler.NewAccountHandler(accountService),
		Permission:   handler.NewPermissionHandler(permissionService),
		Voucher:      handler.NewVoucherHandler(voucherService, objectStore),
		Function:     handler.NewFunctionHandler(venueService),
	}, middleware.RequireCompany(companyService))

	for _, g := range groups {
		r.Register(g)
		log.Debug("Route group", zap.String("group", g.Name()), zap.Int("routes", len(g.Routes())))
	}
	r.Setup()
	log.Info("Routes registered", zap.String("base_path", r.BasePath()), zap.Int("routes", len(engine.Routes())))

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
