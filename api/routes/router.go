package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gurudev-engicon/gallery-backend/api/controllers"
	"github.com/gurudev-engicon/gallery-backend/api/middleware"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery/admin"
	"github.com/gurudev-engicon/gallery-backend/internal/images"
	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	"github.com/gurudev-engicon/gallery-backend/pkg/db"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/redis"
	"github.com/gurudev-engicon/gallery-backend/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry prometheus.Gatherer,
	dbP db.Pinger,
	redisClient *redis.Client,
	store storage.Pinger,
	galleryRepo gallery.Repository,
	sessions *admin.SessionStore,
	imagesService images.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// typed nil clients must reach the middleware as nil interfaces
	var (
		idempotencyStore redis.IdempotencyStore
		limiter          *redis.Client
		redisPinger      controllers.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
		redisPinger = redisClient
	}
	var dbPinger, storePinger controllers.Pinger
	if dbP != nil {
		dbPinger = dbP
	}
	if store != nil {
		storePinger = store
	}

	maxBytes := cfg.Gallery.MaxUploadBytes()
	uploadLimit := uploadRateLimit(cfg, limiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadinessCheck{Name: "db", Pinger: dbPinger},
			controllers.ReadinessCheck{Name: "redis", Pinger: redisPinger},
			controllers.ReadinessCheck{Name: "storage", Pinger: storePinger},
		))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", controllers.GalleryList(galleryRepo, logg))
			r.Get("/projects", controllers.GalleryProjects(galleryRepo, logg))
			r.With(uploadLimit).Post("/upload", controllers.GalleryUpload(galleryRepo, maxBytes, logg))
			r.Put("/update", controllers.GalleryUpdate(galleryRepo, logg))
			r.Delete("/delete", controllers.GalleryDelete(galleryRepo, logg))
		})

		r.Route("/admin/gallery/sessions", func(r chi.Router) {
			r.Post("/", controllers.AdminOpenSession(sessions, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.AdminGetSession(sessions, logg))
				r.Delete("/", controllers.AdminCloseSession(sessions, logg))
				r.With(uploadLimit).Post("/previews", controllers.AdminStagePreview(sessions, maxBytes, logg))
				r.Delete("/previews/{previewId}", controllers.AdminCancelPreview(sessions, logg))
				r.Post("/previews/{previewId}/commit", controllers.AdminCommitPreview(sessions, logg))
				r.With(uploadLimit).Post("/uploads", controllers.AdminUploadBatch(sessions, maxBytes, cfg.Gallery.BatchFiles(), logg))
				r.Put("/images/*", controllers.AdminUpdateImage(sessions, logg))
				r.Delete("/images/*", controllers.AdminDeleteImage(sessions, logg))
			})
		})

		r.With(uploadLimit).Post("/upload", controllers.ImagesUpload(imagesService, maxBytes, logg))
		r.Route("/images", func(r chi.Router) {
			r.Get("/", controllers.ImagesList(imagesService, logg))
			r.Get("/{id}", controllers.ImagesGet(imagesService, logg))
			r.With(uploadLimit).Post("/{id}", controllers.ImagesReplace(imagesService, maxBytes, logg))
			r.Delete("/{id}", controllers.ImagesDelete(imagesService, logg))
		})
	})

	return r
}

func uploadRateLimit(cfg *config.Config, limiter *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	policy := middleware.NewRateLimitPolicy("upload", cfg.RateLimit.UploadWindow, cfg.RateLimit.UploadLimit)
	if limiter == nil {
		return middleware.RateLimit(policy, nil, logg)
	}
	return middleware.RateLimit(policy, limiter, logg)
}
