package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/config"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/logging"
	"github.com/JonMunkholm/unitrack/internal/store"
	"github.com/JonMunkholm/unitrack/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	kvStore, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	logger := slog.Default()
	opts := store.Options{
		PageSize:      cfg.Paging.PageSize,
		DedupeTimeout: cfg.Cache.DedupeTimeout,
		Logger:        logger,
	}

	// The client reads its token from the session, and the session signs in
	// through the client.
	auth := store.NewAuthSession(kvStore, nil, opts)
	client := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenSource(auth),
		api.WithLogger(logger),
	)
	auth.SetAuthenticator(client)

	courses := store.NewCourseStore(client, kvStore, opts)
	if err := courses.Hydrate(ctx); err != nil {
		slog.Warn("course cache unreadable", "error", err)
	}
	support := store.NewSupportStore(client, kvStore, opts)

	server := web.NewServer(web.Deps{
		Config:   cfg,
		Backend:  client,
		KV:       kvStore,
		Auth:     auth,
		Courses:  courses,
		Support:  support,
		Importer: core.NewImporter(core.WithMaxRows(cfg.Import.MaxRows), core.WithLogger(logger)),
		Options:  opts,
		Logger:   logger,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects the configured persistence driver. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg config.StorageConfig) (kv.Store, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database url: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.MaxConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		pg := kv.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("storage ready", "driver", "postgres", "database", poolConfig.ConnConfig.Database)
		return pg, pool.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("storage ready", "driver", "redis", "addr", cfg.RedisAddr)
		return kv.NewRedis(client, cfg.RedisPrefix), func() { _ = client.Close() }, nil

	default:
		slog.Info("storage ready", "driver", "memory")
		return kv.NewMemory(), func() {}, nil
	}
}
