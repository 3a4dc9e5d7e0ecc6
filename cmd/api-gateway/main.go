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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/speaker-match-api/api/swagger"
	"github.com/noah-isme/speaker-match-api/internal/handler"
	"github.com/noah-isme/speaker-match-api/internal/repository"
	"github.com/noah-isme/speaker-match-api/internal/router"
	"github.com/noah-isme/speaker-match-api/internal/service"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
	"github.com/noah-isme/speaker-match-api/pkg/cache"
	"github.com/noah-isme/speaker-match-api/pkg/config"
	"github.com/noah-isme/speaker-match-api/pkg/database"
	"github.com/noah-isme/speaker-match-api/pkg/events"
	"github.com/noah-isme/speaker-match-api/pkg/logger"
)

// @title Speaker Match API
// @version 1.0.0
// @description Matches teachers with guest speakers and tracks speaker requests.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		rabbit, err := events.NewRabbitMQPublisher(cfg.Events.URL, cfg.Events.Exchange, logr)
		if err != nil {
			logr.Warn("rabbitmq unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close() //nolint:errcheck

	eventSvc := service.NewEventService(publisher, metricsSvc, service.EventServiceConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
	}, logr)
	eventSvc.Start(ctx)
	defer eventSvc.Stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	speakerRepo := repository.NewSpeakerRepository(db)
	industryRepo := repository.NewIndustryRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	if cfg.Admin.Email != "" {
		admin, err := userSvc.EnsureAdmin(ctx, service.BootstrapAdmin{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			FullName: cfg.Admin.FullName,
		})
		if err != nil {
			logr.Fatal("failed to ensure administrator account", zap.Error(err))
		}
		logr.Info("administrator account ready", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	}
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	industrySvc := service.NewIndustryService(industryRepo, userRepo, cacheSvc, validate, logr)
	speakerSvc := service.NewSpeakerService(speakerRepo, industryRepo, cacheSvc, metricsSvc, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, teacherRepo, speakerRepo, userRepo, cacheSvc, metricsSvc,
		eventSvc, validate, logr, service.RequestServiceConfig{
			Policy: workflow.Policy{StrictSpeakerTransitions: cfg.Requests.StrictSpeakerTransitions},
		})
	exportSvc := service.NewExportService(requestSvc, nil, nil, logr)

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := router.New(router.Config{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Teachers:   handler.NewTeacherHandler(teacherSvc),
		Speakers:   handler.NewSpeakerHandler(speakerSvc),
		Industries: handler.NewIndustryHandler(industrySvc),
		Requests:   handler.NewRequestHandler(requestSvc, exportSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, checks),
	}, router.Dependencies{
		Tokens:  authSvc,
		Audit:   userRepo,
		Metrics: metricsSvc,
		Logger:  logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
