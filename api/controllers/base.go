package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"microblog/api/auth"
	"microblog/api/cache"
	"microblog/api/config"
	"microblog/api/logger"
	"microblog/api/middlewares"
	"microblog/api/models"
	"microblog/api/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Config   *config.Config
	Log      *zap.Logger
	Tokens   *auth.Tokens
	Sessions *auth.Sessions
}

// OpenDatabase connects to Postgres or sqlite according to cfg.DBDriver.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLiteDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// Migrate brings the schema up to date and adds the constraints AutoMigrate
// cannot express.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		if err := ensureFollowConstraints(db); err != nil {
			log.Warn("follow constraints not ensured", zap.Error(err))
		}
	}
	if err := ensureFollowCounterDefaults(db); err != nil {
		log.Warn("follow counters not normalized", zap.Error(err))
	}
	return nil
}

// Initialize opens and migrates the database, connects the feed cache and
// builds the router.
func (server *Server) Initialize(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(db, log); err != nil {
		return err
	}

	if err := cache.Init(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword); err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			log.Info("feed cache disabled")
		} else {
			log.Warn("could not connect to redis", zap.Error(err))
		}
	}

	server.Setup(db, cfg, log)
	return nil
}

// Setup wires handlers around an already migrated database.
func (server *Server) Setup(db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	server.DB = db
	server.Config = cfg
	server.Log = log
	server.Tokens = auth.NewTokens(cfg.APISecret, cfg.ServiceName, cfg.TokenTTL)
	server.Sessions = auth.NewSessions(cfg.SessionSecret, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server.Router = gin.New()
	server.Router.Use(gin.Recovery())
	server.Router.Use(logger.GinMiddleware(log))
	server.Router.Use(monitoring.Middleware())
	server.Router.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	server.Router.Use(middlewares.RateLimitMiddleware())
	server.Router.Use(middlewares.LoadUser(db, server.Tokens, server.Sessions, log))
	server.initializeRoutes()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (server *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func ensureFollowConstraints(db *gorm.DB) error {
	var count int64
	if err := db.Raw(
		"SELECT COUNT(1) FROM pg_constraint WHERE conname = ?",
		"follows_no_self_follow",
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(
			"ALTER TABLE follows ADD CONSTRAINT follows_no_self_follow CHECK (follower_id <> followed_id)",
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureFollowCounterDefaults(db *gorm.DB) error {
	if err := db.Exec(
		"UPDATE users SET followers_count = 0 WHERE followers_count IS NULL",
	).Error; err != nil {
		return err
	}
	return db.Exec(
		"UPDATE users SET following_count = 0 WHERE following_count IS NULL",
	).Error
}
