package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/churchhub-backend/internal/cron"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/internal/prayers"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/metrics"
	"github.com/angelmondragon/churchhub-backend/pkg/migrate"
	"github.com/angelmondragon/churchhub-backend/pkg/redis"
)

func main() {
	onlyJob := flag.String("job", "", "run a single job once and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg, *onlyJob); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron-worker.failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron-worker.stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, onlyJob string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, err := buildService(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		return err
	}

	// -job runs one job and exits, for external schedulers that trigger jobs themselves
	if onlyJob != "" {
		return service.RunJob(ctx, onlyJob)
	}

	if cfg.Cron.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.Cron.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "cron-worker.metrics_listener", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logg.Info(logg.WithField(ctx, "interval", cfg.Cron.Interval.String()), "cron-worker.started")
	return service.Run(ctx)
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}
	prayerService, err := prayers.NewService(prayers.ServiceParams{DB: dbClient.DB(), Logger: logg})
	if err != nil {
		return nil, fmt.Errorf("prayer service: %w", err)
	}

	cleanup, err := cron.NewRejectedMemberCleanupJob(cron.RejectedMemberCleanupJobParams{
		Logger:     logg,
		Repository: members.NewRepository(dbClient.DB()),
		Retention:  cfg.Cron.RejectedRetention,
		BatchSize:  cfg.Cron.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	archive, err := cron.NewPrayerArchiveJob(cron.PrayerArchiveJobParams{
		Logger:    logg,
		Prayers:   prayerService,
		After:     cfg.Cron.PrayerArchiveAfter,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	jobs, err := cron.NewRegistry(cleanup, archive)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
}
