package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"taskmanager/actions"
	"taskmanager/handlers"
	"taskmanager/store"
	"taskmanager/ui"
	"taskmanager/utils"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting", "environment", cfg.Env, "store", cfg.StoreDriver)

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	redisClient, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	tmpl, err := ui.Parse()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	views := utils.NewViewCache(redisClient, cfg.ViewCacheTTL)
	mailer := utils.NewMailer(cfg.SendGridKey, cfg.MailFrom, logger)

	h := handlers.New(handlers.Deps{
		Tasks:     actions.NewTaskService(st, views, logger),
		Users:     actions.NewUserService(st, utils.NewPasswordHasher(utils.DefaultBcryptCost), mailer, logger),
		Sessions:  utils.NewSessionManager(redisClient, cfg.SessionSecret, cfg.SessionTTL, cfg.Production()),
		Cache:     views,
		Templates: tmpl,
		Log:       logger,
		Checks: map[string]handlers.Check{
			"database": st.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Stop accepting requests before the backends go away.
	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"app": func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			return errors.Join(err, st.Close(), redisClient.Close())
		},
	})

	exitCode := <-wait
	logger.Info("stopped", "exit_code", exitCode)
	os.Exit(exitCode)
}

func openStore(ctx context.Context, cfg utils.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.OpenSQLite(cfg.SQLitePath)
	default:
		pool, err := store.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
		return store.NewPostgres(pool), nil
	}
}
