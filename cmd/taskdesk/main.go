package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/taskdesk/taskdesk/pkg/api"
	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/config"
	"github.com/taskdesk/taskdesk/pkg/observability"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Logging.Level), os.Stdout)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Error("failed to open database")
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}

	migrateCtx := context.Background()
	if err := auth.RunMigrations(migrateCtx, db); err != nil {
		logger.WithError(err).Error("failed to run auth migrations")
		os.Exit(1)
	}
	if err := tracker.RunMigrations(migrateCtx, db); err != nil {
		logger.WithError(err).Error("failed to run tracker migrations")
		os.Exit(1)
	}

	auditLogger, err := audit.NewDBLogger(db)
	if err != nil {
		logger.WithError(err).Error("failed to initialize audit logger")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	var redisClient *redis.Client
	var store tracker.Store = tracker.NewPostgresStore(db)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, running without cache")
			redisClient = nil
		} else {
			store = tracker.NewCachedStore(store, redisClient,
				func(cacheType string) { metrics.CacheHitsTotal.WithLabelValues(cacheType).Inc() },
				func(cacheType string) { metrics.CacheMissesTotal.WithLabelValues(cacheType).Inc() },
			)
			defer redisClient.Close()
		}
	}

	users := auth.NewStore(db)
	tokens := auth.NewTokenManager(users, cfg.Auth.SessionTTL)

	server := api.NewServer(api.Options{
		Store:   store,
		Users:   users,
		Tokens:  tokens,
		Audit:   auditLogger,
		Logger:  logger,
		Metrics: metrics,
	})

	// Periodic session sweep. A panicking run is logged and the schedule
	// keeps going.
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.Auth.SweepSchedule, func() {
		defer observability.RecoverPanic(logger, "session sweep")
		swept, err := tokens.SweepExpired(context.Background())
		if err != nil {
			logger.WithError(err).Error("session sweep failed")
			return
		}
		if swept > 0 {
			metrics.SessionsSweptTotal.Add(float64(swept))
			logger.WithField("sessions", swept).Info("swept expired sessions")
		}
		metrics.UpdateDBStats(db)
	})
	if err != nil {
		logger.WithError(err).Error("invalid sweep schedule")
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	observability.RegisterMetricsEndpoint(healthMux, registry)
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("health server shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
