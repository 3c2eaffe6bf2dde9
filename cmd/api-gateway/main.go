package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-help-api/api/swagger"
	"github.com/noah-isme/academic-help-api/internal/handler"
	"github.com/noah-isme/academic-help-api/internal/middleware"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/repository"
	"github.com/noah-isme/academic-help-api/internal/service"
	"github.com/noah-isme/academic-help-api/internal/workflow"
	"github.com/noah-isme/academic-help-api/pkg/cache"
	"github.com/noah-isme/academic-help-api/pkg/config"
	"github.com/noah-isme/academic-help-api/pkg/database"
	"github.com/noah-isme/academic-help-api/pkg/jobs"
	"github.com/noah-isme/academic-help-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-help-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-help-api/pkg/middleware/requestid"
)

// @title Academic Help API
// @version 1.0.0
// @description Academic service requests: submission, review lifecycle and notifications.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type requestStore interface {
	NextSequence(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	Upsert(ctx context.Context, req *models.ServiceRequest) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, int, error)
	Scan(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByResource(ctx context.Context, resource, resourceID, action string) ([]models.AuditLog, error)
}

type stores struct {
	requests      requestStore
	notifications notificationStore
	audit         auditStore
	db            *sqlx.DB
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open stores", zap.Error(err))
	}
	if st.db != nil {
		defer st.db.Close()
	}

	var rdb *redis.Client
	if cfg.Statistics.CacheEnabled || cfg.Notifications.PubSubEnabled {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and pub/sub", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	metrics := service.NewMetricsService()

	emitterOpts := []service.EmitterOption{
		service.WithEmitterMetrics(metrics),
		service.WithAsyncDelivery(jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: 200 * time.Millisecond,
		}),
	}
	if rdb != nil && cfg.Notifications.PubSubEnabled {
		emitterOpts = append(emitterOpts, service.WithPublisher(repository.NewNotificationPublisher(rdb)))
	}
	emitter := service.NewNotificationEmitter(st.notifications, logr, emitterOpts...)
	emitter.Start(context.Background())

	requestOpts := []service.RequestServiceOption{
		service.WithLifecycle(workflow.NewEngine(workflow.Mode(cfg.Lifecycle.Mode))),
		service.WithAudit(st.audit),
		service.WithNotifier(emitter),
		service.WithRequestMetrics(metrics),
		service.WithOperationTimeout(cfg.Store.OperationTimeout),
	}
	if rdb != nil && cfg.Statistics.CacheEnabled {
		cacheSvc := service.NewCacheService(repository.NewCacheRepository(rdb, "academic-help", logr), metrics, cfg.Statistics.CacheTTL, logr, true)
		requestOpts = append(requestOpts, service.WithStatisticsCache(cacheSvc, cfg.Statistics.CacheTTL))
	}

	catalog := service.NewCatalogService(nil)
	requestSvc := service.NewRequestService(st.requests, catalog, nil, logr, requestOpts...)
	authSvc := service.NewAuthService(nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AllowDevTokens:    cfg.Env != config.EnvProduction,
	})

	var reports *service.ExportService
	if cfg.Exports.Enabled {
		reports = service.NewExportService(requestSvc, logr, nil, nil)
	}

	checks := map[string]handler.ReadinessCheck{}
	if st.db != nil {
		checks["postgres"] = func(ctx context.Context) error { return st.db.PingContext(ctx) }
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	h := handler.Handlers{
		Catalog:       handler.NewCatalogHandler(catalog),
		Requests:      handler.NewRequestHandler(requestSvc, optionalReports(reports)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(st.notifications, logr, service.WithNotificationTimeout(cfg.Store.OperationTimeout))),
		Metrics:       metricsHandler,
	}
	if cfg.Env != config.EnvProduction {
		h.Auth = handler.NewAuthHandler(authSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), h, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.Store.Driver),
			zap.String("lifecycle", cfg.Lifecycle.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	emitter.Stop(shutdownCtx)
}

// openStores builds the persistence providers chosen by STORAGE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoragePostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			requests:      repository.NewRequestRepository(db),
			notifications: repository.NewNotificationRepository(db),
			audit:         repository.NewAuditRepository(db),
			db:            db,
		}, nil
	}

	requests := repository.NewMemoryRequestRepository(cfg.Store.MemoryLatency)
	notifications := repository.NewMemoryNotificationRepository()
	if cfg.Store.SeedDemoData {
		if err := repository.SeedDemo(ctx, requests, notifications); err != nil {
			return nil, err
		}
		logr.Info("demo data seeded")
	}
	return &stores{
		requests:      requests,
		notifications: notifications,
		audit:         repository.NewMemoryAuditRepository(),
	}, nil
}

// optionalReports avoids handing the handler a typed nil.
func optionalReports(reports *service.ExportService) interface {
	Generate(ctx context.Context, actor models.Identity, format, status string) (*service.ExportResult, error)
} {
	if reports == nil {
		return nil
	}
	return reports
}
