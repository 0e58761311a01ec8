package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	assignmentapp "github.com/thrylos/backend/internal/application/assignment"
	billingapp "github.com/thrylos/backend/internal/application/billing"
	pmapp "github.com/thrylos/backend/internal/application/pm"
	requestapp "github.com/thrylos/backend/internal/application/request"
	"github.com/thrylos/backend/internal/infrastructure/auth"
	"github.com/thrylos/backend/internal/infrastructure/cache"
	"github.com/thrylos/backend/internal/infrastructure/config"
	"github.com/thrylos/backend/internal/infrastructure/event"
	"github.com/thrylos/backend/internal/infrastructure/logger"
	"github.com/thrylos/backend/internal/infrastructure/notify"
	"github.com/thrylos/backend/internal/infrastructure/persistence"
	"github.com/thrylos/backend/internal/interfaces/http/handler"
	"github.com/thrylos/backend/internal/interfaces/http/middleware"
	"github.com/thrylos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting Thrylos backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	requestRepo := persistence.NewGormServiceRequestRepository(db.DB)
	pmRepo := persistence.NewGormProjectManagerRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRequestRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// The assignment service owns the availability derivation; the
	// request service delegates to it when terminal transitions free
	// a PM.
	assignmentService := assignmentapp.NewAssignmentService(requestRepo, pmRepo, txManager)
	requestService := requestapp.NewRequestService(requestRepo, pmRepo, paymentRepo, txManager, assignmentService)
	pmService := pmapp.NewPMService(pmRepo, requestRepo)
	paymentService := billingapp.NewPaymentService(paymentRepo, requestRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("event bus start failed", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("stopping event bus", zap.Error(err))
		}
	}()

	// Duplicate assignment notifications are suppressed through the
	// idempotency store, Redis-backed when available.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("idempotency store creation failed", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("closing idempotency store", zap.Error(err))
		}
	}()

	// Assignment mail goes through Brevo when configured, and is a
	// logged no-op otherwise.
	var notifier assignmentapp.Notifier
	if cfg.Mail.Enabled {
		notifier = notify.NewBrevoMailer(cfg.Mail, log)
		log.Info("assignment notifications enabled", zap.String("sender", cfg.Mail.SenderEmail))
	} else {
		notifier = notify.NewNoopNotifier(log)
	}

	pmAssignedHandler := assignmentapp.NewPMAssignedHandler(notifier, log)
	eventBus.Subscribe(event.NewIdempotentHandler(pmAssignedHandler, idempotencyStore, log))
	log.Info("event handlers registered",
		zap.Strings("pm_assigned_events", pmAssignedHandler.EventTypes()),
	)

	requestService.SetEventPublisher(eventBus)
	pmService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)
	assignmentService.SetEventPublisher(eventBus)

	requestHandler := handler.NewServiceRequestHandler(requestService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, requestService)
	pmHandler := handler.NewProjectManagerHandler(pmService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	systemHandler := handler.NewSystemHandler()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("setting trusted proxies failed", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before recovery and
	// request logging run, and CORS must answer preflights before the
	// body limit rejects them.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	operatorOnly := middleware.RequireRoles(auth.RoleOperator)
	operatorOrPM := middleware.RequireRoles(auth.RoleOperator, auth.RolePM)

	// Service request lifecycle
	requestRoutes := router.NewDomainGroup("requests", "/requests")
	requestRoutes.POST("", requestHandler.Create)
	requestRoutes.GET("", operatorOnly, requestHandler.List)
	requestRoutes.GET("/mine", requestHandler.ListMine)
	requestRoutes.GET("/assignable", operatorOnly, requestHandler.ListAssignable)
	requestRoutes.GET("/:id", requestHandler.GetByID)
	requestRoutes.POST("/:id/status", operatorOrPM, requestHandler.ChangeStatus)
	requestRoutes.POST("/:id/response", operatorOnly, requestHandler.Respond)
	requestRoutes.POST("/:id/notes", operatorOrPM, requestHandler.AddNote)
	requestRoutes.DELETE("/:id", operatorOnly, requestHandler.Delete)

	// PM assignment
	requestRoutes.POST("/:id/assign", operatorOnly, assignmentHandler.Assign)
	requestRoutes.POST("/:id/unassign", operatorOnly, assignmentHandler.Unassign)

	// Payment sub-ledger under requests
	requestRoutes.POST("/:id/payments", operatorOnly, paymentHandler.Create)
	requestRoutes.GET("/:id/payments", paymentHandler.ListByRequest)

	// Project manager roster
	pmRoutes := router.NewDomainGroup("pms", "/pms")
	pmRoutes.Use(operatorOnly)
	pmRoutes.POST("", pmHandler.Register)
	pmRoutes.GET("", pmHandler.List)
	pmRoutes.GET("/available", pmHandler.ListAvailable)
	pmRoutes.GET("/:id", pmHandler.GetByID)
	pmRoutes.GET("/:id/workload", pmHandler.GetWorkload)
	pmRoutes.PUT("/:id", pmHandler.Update)
	pmRoutes.DELETE("/:id", pmHandler.Delete)
	pmRoutes.POST("/:id/mark-available", pmHandler.MarkAvailable)
	pmRoutes.POST("/:id/mark-busy", pmHandler.MarkBusy)

	// Standalone payment operations
	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.GET("", operatorOnly, paymentHandler.List)
	paymentRoutes.GET("/:id", paymentHandler.GetByID)
	paymentRoutes.POST("/:id/submit", paymentHandler.SubmitTransaction)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(requestRoutes).
		Register(pmRoutes).
		Register(paymentRoutes).
		Register(systemRoutes)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// healthHandler probes the database on every call so the check reflects
// real readiness, not just process liveness.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "error",
				"time":     time.Now().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
