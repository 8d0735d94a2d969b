package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hostel-console-api/api/swagger"
	"github.com/noah-isme/hostel-console-api/internal/handler"
	"github.com/noah-isme/hostel-console-api/internal/middleware"
	"github.com/noah-isme/hostel-console-api/internal/repository"
	"github.com/noah-isme/hostel-console-api/internal/service"
	"github.com/noah-isme/hostel-console-api/pkg/cache"
	"github.com/noah-isme/hostel-console-api/pkg/config"
	"github.com/noah-isme/hostel-console-api/pkg/database"
	"github.com/noah-isme/hostel-console-api/pkg/export"
	"github.com/noah-isme/hostel-console-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hostel-console-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hostel-console-api/pkg/middleware/requestid"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

// @title Hostel Console Gateway
// @version 1.0.0
// @description Admin console gateway reconciling the campus and student services
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	client := upstream.New(cfg.Upstream, logr, metrics)
	checks := map[string]handler.ReadinessCheck{}

	var cacheSvc *service.CacheService
	if cfg.Residents.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, resident cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, "hostel-console", logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Residents.CacheTTL, logr, true)
			checks["redis"] = cacheRepo.Ping
		}
	}

	var auditRepo *repository.MaterializationAuditRepository
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Warn("postgres unavailable, materialization audit disabled", zap.Error(err))
		} else {
			defer db.Close() //nolint:errcheck
			auditRepo = repository.NewMaterializationAuditRepository(db)
			if err := auditRepo.EnsureSchema(ctx); err != nil {
				logr.Fatal("failed to prepare audit schema", zap.Error(err))
			}
			checks["postgres"] = db.PingContext
		}
	}

	materializer := service.NewMaterializer(client, nil, metrics, logr)
	if auditRepo != nil {
		materializer = service.NewMaterializer(client, auditRepo, metrics, logr)
	}

	authSvc := service.NewAuthService(client, validate, logr, service.AuthConfig{
		Secret:          cfg.JWT.Secret,
		VerifySignature: cfg.JWT.VerifySignature,
		AdminMarkers:    cfg.JWT.AdminMarkers,
	})
	residents := service.NewResidentDirectory(client, cacheSvc, metrics, logr, cfg.Residents.CacheTTL)
	materializer.OnMaterialized(residents.Invalidate)

	notifier := service.NewNotificationService(cfg.Notifications.DeliveryDelay, cfg.Notifications.Workers, metrics, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	feeSvc := service.NewFeeService(client, materializer, metrics, validate, logr)
	attendanceSvc := service.NewAttendanceService(client, residents, materializer, notifier, metrics, validate, logr)
	roomSvc := service.NewRoomService(client, metrics, logr)
	collectionSvc := service.NewCollectionService(client, validate, logr)
	exportSvc := service.NewExportService(feeSvc, logr, export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics.Handler(), checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	authHandler := handler.NewAuthHandler(authSvc)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)

	feeHandler := handler.NewFeeHandler(feeSvc, exportSvc)
	secured.GET("/fees", feeHandler.List)
	secured.GET("/fees/export", feeHandler.Export)
	secured.POST("/fees/preview", feeHandler.Preview)
	secured.PUT("/fees/:key", feeHandler.Save)

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	secured.GET("/attendance/roster", attendanceHandler.Roster)
	secured.POST("/attendance/roster/mark", attendanceHandler.Mark)
	secured.POST("/attendance/roster/bulk", attendanceHandler.Bulk)
	secured.GET("/attendance/notifications", attendanceHandler.NotificationState)
	secured.POST("/attendance/notifications/resend", attendanceHandler.ResendNotification)

	secured.GET("/rooms", handler.NewRoomHandler(roomSvc).List)

	residentHandler := handler.NewResidentHandler(residents)
	secured.GET("/residents", residentHandler.List)
	secured.POST("/residents/refresh", residentHandler.Refresh)

	collections := map[string]upstream.Collection{
		"/complaints":       upstream.Complaints,
		"/health-incidents": upstream.HealthIncidents,
		"/visits":           upstream.Visits,
		"/mess-menus":       upstream.MessMenus,
		"/hostels":          upstream.Hostels,
	}
	for path, col := range collections {
		handler.NewCollectionHandler(collectionSvc, col).Register(secured.Group(path))
	}

	if auditRepo != nil {
		secured.GET("/audit/materializations", handler.NewAuditHandler(auditRepo).List)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
