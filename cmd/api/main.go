package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/churchhub-backend/api/controllers"
	"github.com/angelmondragon/churchhub-backend/api/routes"
	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/approvals"
	"github.com/angelmondragon/churchhub-backend/internal/auth"
	"github.com/angelmondragon/churchhub-backend/internal/blogs"
	"github.com/angelmondragon/churchhub-backend/internal/events"
	"github.com/angelmondragon/churchhub-backend/internal/media"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/internal/prayers"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/internal/sermons"
	"github.com/angelmondragon/churchhub-backend/pkg/auth/session"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/metrics"
	"github.com/angelmondragon/churchhub-backend/pkg/migrate"
	"github.com/angelmondragon/churchhub-backend/pkg/redis"
	"github.com/angelmondragon/churchhub-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	verifier, err := identity.NewJWKSVerifier(cfg.Identity, &http.Client{Timeout: cfg.Identity.HTTPTimeout})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity verifier", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	memberRepo := members.NewRepository(conn)
	adminRepo := administrators.NewRepository(conn)

	resolver, err := principals.NewResolver(principals.ResolverParams{
		Members:        memberRepo,
		Administrators: adminRepo,
		Seeds:          cfg.Admin,
		Logger:         logg,
	})
	mustService(logg, "principal resolver", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Verifier:       verifier,
		Resolver:       resolver,
		Administrators: adminRepo,
		Sessions:       sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	mustService(logg, "auth", err)

	memberService, err := members.NewService(memberRepo)
	mustService(logg, "members", err)

	adminService, err := administrators.NewService(adminRepo, cfg.Password)
	mustService(logg, "administrators", err)

	approvalService, err := approvals.NewService(approvals.ServiceParams{
		DB:      conn,
		Logger:  logg,
		Metrics: metrics.NewApprovalMetrics(registry),
	})
	mustService(logg, "approvals", err)

	sermonService, err := sermons.NewService(sermons.NewRepository(conn))
	mustService(logg, "sermons", err)

	eventService, err := events.NewService(events.ServiceParams{DB: conn, Logger: logg})
	mustService(logg, "events", err)

	blogService, err := blogs.NewService(blogs.NewRepository(conn))
	mustService(logg, "blogs", err)

	prayerService, err := prayers.NewService(prayers.ServiceParams{DB: conn, Logger: logg})
	mustService(logg, "prayers", err)

	mediaService, err := media.NewService(media.ServiceParams{
		Gateway:        gcsClient,
		MaxUploadBytes: cfg.Media.MaxUploadBytes(),
		Logger:         logg,
	})
	mustService(logg, "media", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Pingers: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
			"gcs":   gcsClient,
		},
		Redis:          redisClient,
		Sessions:       sessionManager,
		Verifier:       verifier,
		Principals:     resolver,
		Gatherer:       registry,
		HTTP:           metrics.NewHTTPMetrics(registry),
		Auth:           authService,
		Members:        memberService,
		Administrators: adminService,
		Approvals:      approvalService,
		Sermons:        sermonService,
		Events:         eventService,
		Blogs:          blogService,
		Prayers:        prayerService,
		Media:          mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func mustService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
