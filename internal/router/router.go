// Package router assembles the HTTP surface.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/handler"
	"github.com/noah-isme/speaker-match-api/internal/middleware"
	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/speaker-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/speaker-match-api/pkg/middleware/requestid"
)

// Config controls router-level behaviour.
type Config struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Teachers   *handler.TeacherHandler
	Speakers   *handler.SpeakerHandler
	Industries *handler.IndustryHandler
	Requests   *handler.RequestHandler
	Metrics    *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators used by middleware.
type Dependencies struct {
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter
	Metrics middleware.HTTPObserver
	Logger  *zap.Logger
}

// New builds the gin engine with global middleware and all routes.
func New(cfg Config, h Handlers, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	teacher := string(models.RoleTeacher)
	speaker := string(models.RoleSpeaker)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))
	secured.GET("/auth/me", h.Auth.Me)

	users := secured.Group("/users")
	users.GET("", middleware.RBAC(admin), h.Users.List)
	users.GET("/:id", middleware.RBAC(admin, middleware.RoleSelf), h.Users.Get)
	users.POST("", middleware.RBAC(admin), h.Users.Create)
	users.PUT("/:id", middleware.RBAC(admin), h.Users.Update)
	users.DELETE("/:id", middleware.RBAC(admin), h.Users.Delete)

	teachers := secured.Group("/teachers")
	teachers.GET("", middleware.RBAC(admin), h.Teachers.List)
	teachers.GET("/me", middleware.RBAC(teacher), h.Teachers.Me)
	teachers.PUT("/me", middleware.RBAC(teacher), h.Teachers.UpsertMe)
	teachers.GET("/:id", middleware.RBAC(admin, teacher), h.Teachers.Get)

	speakers := secured.Group("/speakers")
	speakers.GET("", h.Speakers.List)
	speakers.POST("/search", h.Speakers.Search)
	speakers.GET("/me", middleware.RBAC(speaker), h.Speakers.Me)
	speakers.PUT("/me", middleware.RBAC(speaker), h.Speakers.UpsertMe)
	speakers.GET("/:id", h.Speakers.Get)

	industries := secured.Group("/industries")
	industries.GET("", h.Industries.List)
	industries.POST("", middleware.RBAC(admin), h.Industries.Create)
	industries.PUT("/:id", middleware.RBAC(admin), h.Industries.Update)
	industries.DELETE("/:id", middleware.RBAC(admin), h.Industries.Archive)

	requests := secured.Group("/requests")
	requests.POST("", middleware.RBAC(teacher), h.Requests.Create)
	requests.GET("", middleware.RBAC(admin, teacher, speaker), h.Requests.List)
	requests.GET("/export", middleware.RBAC(admin),
		middleware.Audit(deps.Audit, deps.Logger, models.AuditActionRequestExport, "speaker_request"),
		h.Requests.Export)
	requests.GET("/:id", middleware.RBAC(admin, teacher, speaker), h.Requests.Get)
	requests.PATCH("/:id/status", middleware.RBAC(admin), h.Requests.UpdateStatus)
	requests.PATCH("/:id/own-status", middleware.RBAC(speaker), h.Requests.UpdateOwnStatus)

	secured.GET("/metrics/summary", middleware.RBAC(admin), h.Metrics.Summary)

	return r
}
