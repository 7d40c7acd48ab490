// Package bootstrap wires the whole application together: configuration,
// storage, services, the collaborative engine, the background worker, and
// the gin router.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/collab"
	httphandler "github.com/nwesha/Zcoder/internal/handler/http"
	wshandler "github.com/nwesha/Zcoder/internal/handler/websocket"
	gormrepo "github.com/nwesha/Zcoder/internal/infra/persistence/gorm"
	"github.com/nwesha/Zcoder/internal/infra/setup"
	"github.com/nwesha/Zcoder/internal/middleware"
	"github.com/nwesha/Zcoder/internal/service"
	"github.com/nwesha/Zcoder/internal/tasks"
	"github.com/nwesha/Zcoder/internal/worker"
)

// App owns every long-lived component of the process.
type App struct {
	cfg    *Config
	log    *logrus.Logger
	db     *gorm.DB
	rdb    *redis.Client
	asynqC *asynq.Client

	registry *collab.Registry
	worker   *worker.Server
	server   *http.Server
}

// NewApp builds and wires the application. Nothing starts serving yet.
func NewApp(cfg *Config) (*App, error) {
	log := newLogger(cfg)

	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	rdb, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	asynqClient := asynq.NewClient(redisOpt)
	enqueuer := tasks.NewEnqueuer(asynqClient)

	// Repositories.
	userRepo := gormrepo.NewGormUserRepository(db)
	roomRepo := gormrepo.NewGormRoomRepository(db)
	problemRepo := gormrepo.NewGormProblemRepository(db)
	bookmarkRepo := gormrepo.NewGormBookmarkRepository(db)
	activityRepo := gormrepo.NewGormActivityRepository(db)

	// Services.
	authSvc, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	roomSvc := service.NewRoomService(roomRepo, enqueuer)
	userSvc := service.NewUserService(userRepo, activityRepo)
	problemSvc := service.NewProblemService(problemRepo, enqueuer)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, problemRepo, enqueuer)
	execSvc := service.NewExecService(cfg.Judge0URL, cfg.Judge0APIKey)

	// Collaborative engine.
	collabCfg := collab.DefaultConfig()
	collabCfg.IdleGrace = cfg.SessionIdleGrace
	collabCfg.ChatPersistTimeout = cfg.ChatPersistTimeout
	collabCfg.ChatTailLimit = cfg.ChatTailLimit
	gateway := collab.NewStoreGateway(roomRepo, userRepo, enqueuer)
	registry := collab.NewRegistry(gateway, collabCfg, log)
	binder := collab.NewBinder(registry, roomSvc, log)

	// Background worker.
	workerSrv := worker.NewServer(redisOpt, worker.NewHandlers(roomRepo, activityRepo), log)

	router := newRouter(cfg, log, rdb, routerDeps{
		auth:      httphandler.NewAuthHandler(authSvc),
		rooms:     httphandler.NewRoomHandler(roomSvc),
		users:     httphandler.NewUserHandler(userSvc),
		problems:  httphandler.NewProblemHandler(problemSvc),
		bookmarks: httphandler.NewBookmarkHandler(bookmarkSvc),
		exec:      httphandler.NewExecHandler(execSvc),
		ws:        wshandler.NewHandler(binder, userSvc, log),
	})

	return &App{
		cfg:      cfg,
		log:      log,
		db:       db,
		rdb:      rdb,
		asynqC:   asynqClient,
		registry: registry,
		worker:   workerSrv,
		server: &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: router,
		},
	}, nil
}

func newLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

type routerDeps struct {
	auth      *httphandler.AuthHandler
	rooms     *httphandler.RoomHandler
	users     *httphandler.UserHandler
	problems  *httphandler.ProblemHandler
	bookmarks *httphandler.BookmarkHandler
	exec      *httphandler.ExecHandler
	ws        *wshandler.Handler
}

func newRouter(cfg *Config, log *logrus.Logger, rdb *redis.Client, deps routerDeps) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(rdb, log, cfg.RateLimitRequests, cfg.RateLimitWindow))

	api.POST("/auth/register", deps.auth.Register)
	api.POST("/auth/login", deps.auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		authed.GET("/users/me", deps.users.Me)
		authed.PUT("/users/me", deps.users.UpdateProfile)
		authed.GET("/users/me/activity", deps.users.Activity)
		authed.GET("/users/:id", deps.users.Get)

		authed.POST("/rooms", deps.rooms.Create)
		authed.GET("/rooms", deps.rooms.List)
		authed.GET("/rooms/mine", deps.rooms.Mine)
		authed.GET("/rooms/:id", deps.rooms.Get)
		authed.PUT("/rooms/:id", deps.rooms.Update)
		authed.DELETE("/rooms/:id", deps.rooms.Delete)
		authed.POST("/rooms/:id/join", deps.rooms.Join)
		authed.POST("/rooms/:id/leave", deps.rooms.Leave)

		authed.POST("/problems", deps.problems.Create)
		authed.GET("/problems", deps.problems.List)
		authed.GET("/problems/:id", deps.problems.Get)
		authed.PUT("/problems/:id", deps.problems.Update)
		authed.DELETE("/problems/:id", deps.problems.Delete)

		authed.POST("/bookmarks", deps.bookmarks.Create)
		authed.GET("/bookmarks", deps.bookmarks.List)
		authed.GET("/bookmarks/:id", deps.bookmarks.Get)
		authed.PUT("/bookmarks/:id", deps.bookmarks.Update)
		authed.DELETE("/bookmarks/:id", deps.bookmarks.Delete)

		authed.POST("/execute", deps.exec.Execute)
	}

	ws := r.Group("/ws")
	ws.Use(middleware.JWTAuth(cfg.JWTSecret))
	ws.GET("", deps.ws.Serve)

	return r
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("request")
	}
}

// Start launches the background worker and the HTTP server. Blocks until
// the server stops.
func (a *App) Start() error {
	if err := a.worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	a.log.WithField("port", a.cfg.ServerPort).Info("Server listening")
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, flushes every live room session, and
// releases storage handles.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("Shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.WithError(err).Warn("HTTP server shutdown")
	}
	if err := a.registry.Shutdown(ctx); err != nil {
		a.log.WithError(err).Warn("Session registry shutdown")
	}
	a.worker.Shutdown()

	if err := a.asynqC.Close(); err != nil {
		a.log.WithError(err).Warn("Asynq client close")
	}
	if err := a.rdb.Close(); err != nil {
		a.log.WithError(err).Warn("Redis close")
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.WithError(err).Warn("Database close")
		}
	}
	a.log.Info("Shutdown complete")
	return nil
}
