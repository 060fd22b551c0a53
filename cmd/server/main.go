package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/config"
	"github.com/iliyamo/vidtube-backend/internal/database"
	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/logger"
	"github.com/iliyamo/vidtube-backend/internal/queue"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/router"
	"github.com/iliyamo/vidtube-backend/internal/service"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db, cfg.DBDriver)
	cancel()
	if err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it the limiter and cache pass through.
	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled", zap.String("addr", redisCfg.Addr))
	} else {
		defer rdb.Close()
	}

	queueCfg := config.LoadQueueConfig()
	var events service.EventPublisher = service.NopPublisher{}
	if queueCfg.Enabled {
		pub := service.NewAMQPPublisher(queueCfg.URL, log)
		defer pub.Close()
		events = pub
	}

	hasher, err := utils.NewPasswordHasher(cfg.PasswordHash, cfg.BcryptCost)
	if err != nil {
		log.Fatal("password hasher", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	reactions := repository.NewReactionRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	videos := repository.NewVideoRepo(db)

	sessions := service.NewSessionService(users, hasher, service.SessionConfig{
		AccessSecret:           cfg.AccessSecret,
		RefreshSecret:          cfg.RefreshSecret,
		AccessTTLMin:           cfg.AccessTTLMin,
		RefreshTTLDays:         cfg.RefreshTTLDays,
		RevokeOnPasswordChange: cfg.RevokeSessionsOnPasswordChange,
	}, log)
	ledger := service.NewLedger(reactions, events, log)

	if queueCfg.Enabled {
		consumer := &queue.TargetDeletedConsumer{URL: queueCfg.URL, Purger: ledger, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("target deleted consumer stopped", zap.Error(err))
			}
		}()
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       log,
		Health:    &handler.HealthHandler{DB: db},
		Auth:      handler.NewAuthHandler(sessions, cfg.IsProduction()),
		Likes:     handler.NewLikeHandler(ledger),
		Subs:      handler.NewSubscriptionHandler(service.NewSubscriptions(subs, users, events, log)),
		Channels:  handler.NewChannelHandler(service.NewStats(videos, reactions, subs, users)),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite3" {
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
