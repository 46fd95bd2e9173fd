package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/gurudev-engicon/gallery-backend/api/routes"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery/admin"
	"github.com/gurudev-engicon/gallery-backend/internal/images"
	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	"github.com/gurudev-engicon/gallery-backend/pkg/db"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/metrics"
	"github.com/gurudev-engicon/gallery-backend/pkg/migrate"
	"github.com/gurudev-engicon/gallery-backend/pkg/redis"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage/cloudinary"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage/minio"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured; idempotency and upload rate limits disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := newStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap asset store", err)
		os.Exit(1)
	}
	store = storage.Instrument(store, cfg.Storage.Driver, metrics.NewStorageMetrics(registry))

	galleryRepo, err := gallery.NewRepository(store, gallery.Options{
		FolderRoot:     cfg.Gallery.FolderRoot,
		DefaultContent: cfg.Gallery.DefaultContent,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gallery repository", err)
		os.Exit(1)
	}

	sessions, err := admin.NewSessionStore(galleryRepo, admin.Config{
		MaxImages:  cfg.Gallery.MaxImagesPerProject,
		Scope:      cfg.Gallery.CapacityScope,
		PreviewDir: cfg.Gallery.PreviewDir,
		FolderRoot: cfg.Gallery.FolderRoot,
	}, cfg.Gallery.SessionTTL, metrics.NewGalleryMetrics(registry), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin session store", err)
		os.Exit(1)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logg.Error(context.Background(), "error releasing admin sessions", err)
		}
	}()

	imagesService, err := images.NewService(images.NewRepository(dbClient.DB()), store, cfg.Gallery.RecordsFolder, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create images service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, dbClient, redisClient, store, galleryRepo, sessions, imagesService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sessions.Run(gctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func newStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverCloudinary:
		return cloudinary.NewClient(ctx, cfg.Cloudinary, cfg.Storage.HTTPTimeout, logg)
	case config.StorageDriverMinIO:
		return minio.NewClient(ctx, cfg.MinIO, logg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
