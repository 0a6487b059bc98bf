package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/aokumo/nightwarden/api/rest"
	"github.com/aokumo/nightwarden/api/sse"
	apows "github.com/aokumo/nightwarden/api/ws"
	"github.com/aokumo/nightwarden/audit"
	"github.com/aokumo/nightwarden/cache"
	"github.com/aokumo/nightwarden/config"
	dbadapter "github.com/aokumo/nightwarden/db"
	"github.com/aokumo/nightwarden/game/player"
	"github.com/aokumo/nightwarden/game/world"
	mw "github.com/aokumo/nightwarden/middleware"
	"github.com/aokumo/nightwarden/model"
	"github.com/aokumo/nightwarden/resource"
	"github.com/aokumo/nightwarden/scheduler"
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

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
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

	// ---- Run log recorder ----
	runSvc := audit.New(db, logger)
	defer runSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Level data ----
	levels := resource.NewLoader(cfg.Levels.DataPath)
	if err := levels.Load(); err != nil {
		log.Fatalf("levels: %v", err)
	}
	logger.Info("Levels loaded", zap.Int("count", len(levels.Levels)))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Game systems ----
	sm := player.NewSessionManager(logger)
	wm := world.NewManager(levels, cfg.Game, cfg.Warden, pubsub, runSvc, logger)
	defer wm.StopAll()

	// Reap rooms whose run is over and whose player has gone.
	sched.AddTicker("room_reaper", time.Minute, func() {
		for _, r := range wm.List() {
			snap := r.Snapshot()
			finished, _ := snap["finished"].(bool)
			_, hasPlayer := snap["player"]
			if finished && !hasPlayer {
				wm.Destroy(r.ID)
			}
		}
	})

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	gh := apows.NewGameHandlers(wm, logger)
	gh.RegisterAll(wsRouter)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	adminH := apirest.NewAdminHandler(db, sm, wm, runSvc, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/rooms", adminH.ListRooms)
		adminG.GET("/rooms/:id", adminH.RoomState)
		adminG.POST("/rooms/:id/chase", adminH.ForceChase)
		adminG.POST("/rooms/:id/final-chase", adminH.FinalChase)
		adminG.DELETE("/rooms/:id", adminH.DestroyRoom)
		adminG.GET("/runs", adminH.RecentRuns)
		adminG.POST("/kick/:session_id", adminH.KickPlayer)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(db, c, cfg.Security, sm, wm, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	// ---- SSE spectators ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, wm, logger)
	r.GET("/spectate/:room_id", sseH.ServeSpectate)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
