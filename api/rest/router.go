package rest

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
	mw "github.com/driftmud/driftmud/middleware"
	"github.com/driftmud/driftmud/game/world"
	"github.com/driftmud/driftmud/scheduler"
)

// NewRouter assembles the HTTP surface: trace ids, request logging, panic
// recovery and rate limiting on everything, JWT sessions on the account
// routes, and the IP whitelist on the admin routes.
func NewRouter(cfg *config.Config, db *gorm.DB, c cache.Cache, e *world.Engine, sched *scheduler.Scheduler, logger *zap.Logger) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	if cfg.Security.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	}

	auth := NewAuthHandler(db, c, cfg.Security)
	r.POST("/api/auth/login", auth.Login)
	r.POST("/api/auth/logout", mw.Auth(cfg.Security, c), auth.Logout)
	r.POST("/api/auth/refresh", mw.Auth(cfg.Security, c), auth.Refresh)
	r.GET("/api/auth/sessions", mw.Auth(cfg.Security, c), auth.Sessions)

	admin := NewAdminHandler(db, e, sched, logger)
	ag := r.Group("/api/admin", mw.IPWhitelist(cfg.Security.AdminWhitelist))
	ag.GET("/metrics", admin.Metrics)
	ag.GET("/entities/:uid", admin.InspectEntity)
	ag.DELETE("/entities/:uid", admin.ExtractEntity)
	ag.POST("/entities/:uid/triggers", admin.AttachTrigger)
	ag.DELETE("/entities/:uid/triggers/:key", admin.DetachTrigger)
	ag.GET("/triggers", admin.ListTriggers)
	ag.POST("/triggers", admin.RegisterTrigger)
	ag.POST("/scripts/run", admin.RunScript)
	ag.POST("/save", admin.SaveWorld)
	ag.DELETE("/tasks/:id", admin.CancelDelay)

	return r
}
