package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/driftmud/driftmud/api/rest"
	"github.com/driftmud/driftmud/audit"
	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
	dbadapter "github.com/driftmud/driftmud/db"
	"github.com/driftmud/driftmud/game/world"
	"github.com/driftmud/driftmud/model"
	"github.com/driftmud/driftmud/resource"
	"github.com/driftmud/driftmud/scheduler"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if len(cfg.Security.AdminWhitelist) == 0 {
		logger.Warn("security.admin_whitelist is empty; admin endpoints accept any client")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	ps, err := cache.NewPubSub(cache.CacheConfig{
		RedisAddr:      cfg.Cache.RedisAddr,
		RedisPassword:  cfg.Cache.RedisPassword,
		RedisDB:        cfg.Cache.RedisDB,
		LocalPubSubBuf: cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- World Engine ----
	engine := world.New(db, sched, world.Options{
		ScriptTimeout:  cfg.Script.Timeout,
		ScriptMaxDepth: cfg.Script.MaxDepth,
		Heartbeat:      time.Duration(cfg.World.HeartbeatMs) * time.Millisecond,
		SaveInterval:   time.Duration(cfg.World.SaveIntervalS) * time.Second,
		StartRoom:      cfg.World.StartRoom,
	}, logger)
	engine.SetRecorder(auditSvc)
	engine.SetEvents(ps)

	if err := engine.Load(); err != nil {
		log.Fatalf("world load: %v", err)
	}

	// World data: definitions (races, vocab, trigger scripts) install on
	// every boot; prototypes instantiate only into an empty world, since a
	// restored save already contains them as live entities.
	if cfg.World.DataDir != "" {
		res := resource.NewLoader(cfg.World.DataDir, logger)
		if err := res.Load(); err != nil {
			log.Fatalf("world data: %v", err)
		}
		if engine.Registry().Count() == 0 {
			err = res.Apply(engine)
		} else {
			err = res.ApplyDefs(engine)
		}
		if err != nil {
			log.Fatalf("world data: %v", err)
		}
	}

	go engine.Run()
	defer engine.Stop()

	// ---- HTTP ----
	r := rest.NewRouter(cfg, db, c, engine, sched, logger)
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(addr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Fatalf("server: %v", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		engine.Call(func() {
			if err := engine.Save(); err != nil {
				logger.Error("final save failed", zap.Error(err))
			}
		})
	}
}
