package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	redisv9 "github.com/redis/go-redis/v9"

	"account_backend/internal/app/di"
	"account_backend/internal/app/router"
	accounthandler "account_backend/internal/feature/account/transport/handler"
	"account_backend/internal/platform/config"
	"account_backend/internal/platform/db"
	platformhandler "account_backend/internal/platform/http/handler"
	"account_backend/internal/platform/logging"
	platformredis "account_backend/internal/platform/redis"
)

const defaultShutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.Env.Log.Level, cfg.Env.Log.Pretty)
	if err != nil {
		return err
	}
	logger = logger.With(slog.String("service", cfg.Env.ServiceName))
	slog.SetDefault(logger)

	if !cfg.Env.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// db
	gdb, err := db.Open(cfg.Database, logger, cfg.Env.Debug)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis（任意）。無い場合はログイン試行を制限しない
	var rdb *redisv9.Client
	if cfg.Redis.Enabled {
		if tmp, err := platformredis.NewRedisClient(context.Background(), cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without login throttling.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	tokens, err := di.NewTokenService(cfg)
	if err != nil {
		return err
	}
	accountUC := di.NewAccountUsecase(gdb, rdb, tokens, cfg)
	accountH := accounthandler.NewAccountHandler(accountUC)

	checks := map[string]platformhandler.Pinger{"database": sqlDB}
	if rdb != nil {
		checks["redis"] = platformhandler.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	readiness := platformhandler.NewReadiness(checks)

	engine := router.NewRouter(accountH, readiness, tokens, router.Options{
		Logger:          logger,
		AllowOrigins:    cfg.HTTP.CORS.AllowOrigins,
		ProtectUserList: cfg.Auth.ProtectUserList,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.Timeouts.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.Timeouts.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.Timeouts.WriteTimeout,
		IdleTimeout:       cfg.HTTP.Timeouts.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	timeout := cfg.HTTP.Timeouts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return errors.WithStack(srv.Shutdown(shutdownCtx))
}
