// Package httpapi wires the HTTP transport (Gin) to the engine services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS, and
// rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/config"
	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/http/handlers"
	"github.com/yuvalkaspi/reserveat-be/internal/http/middleware"
	"github.com/yuvalkaspi/reserveat-be/internal/notify"
	"github.com/yuvalkaspi/reserveat-be/internal/repo"
	"github.com/yuvalkaspi/reserveat-be/internal/services"
)

// repoShim adapts the repository free functions to the narrow interfaces the
// services declare. It keeps services decoupled from the concrete repo
// package while reusing the existing functions.
type repoShim struct{}

func (repoShim) ListRequestsBySize(ctx context.Context, db *gorm.DB, n int) ([]domain.NotificationRequest, error) {
	return repo.ListRequestsBySize(ctx, db, n)
}

func (repoShim) ListReservationsBySize(ctx context.Context, db *gorm.DB, n int) ([]domain.Reservation, error) {
	return repo.ListReservationsBySize(ctx, db, n)
}

func (repoShim) ListUsersWithMinStars(ctx context.Context, db *gorm.DB, min int) ([]domain.User, error) {
	return repo.ListUsersWithMinStars(ctx, db, min)
}

func (repoShim) ListExpiredReservations(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.Reservation, error) {
	return repo.ListExpiredReservations(ctx, db, cutoff)
}

func (repoShim) MoveReservationToHistory(ctx context.Context, db *gorm.DB, r domain.Reservation) error {
	return repo.MoveReservationToHistory(ctx, db, r)
}

func (repoShim) ListExpiredRequests(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.NotificationRequest, error) {
	return repo.ListExpiredRequests(ctx, db, cutoff)
}

func (repoShim) MoveRequestToHistory(ctx context.Context, db *gorm.DB, q domain.NotificationRequest) error {
	return repo.MoveRequestToHistory(ctx, db, q)
}

func (repoShim) ListReviewsForBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string) ([]domain.Review, error) {
	return repo.ListReviewsForBucket(ctx, db, restaurant, day, slot)
}

func (repoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (repoShim) SaveBucketHotness(ctx context.Context, db *gorm.DB, restaurant, day, slot string, hotness float64) error {
	return repo.SaveBucketHotness(ctx, db, restaurant, day, slot, hotness)
}

func (repoShim) ListReservationsByRestaurant(ctx context.Context, db *gorm.DB, restaurant string) ([]domain.Reservation, error) {
	return repo.ListReservationsByRestaurant(ctx, db, restaurant)
}

func (repoShim) UpdateReservationHotness(ctx context.Context, db *gorm.DB, id string, hotness int) error {
	return repo.UpdateReservationHotness(ctx, db, id, hotness)
}

func (repoShim) ListHistoryReservationsInRange(ctx context.Context, db *gorm.DB, lo, hi string) ([]domain.HistoryReservation, error) {
	return repo.ListHistoryReservationsInRange(ctx, db, lo, hi)
}

func (repoShim) IncrementStatBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string, delta int64) error {
	return repo.IncrementStatBucket(ctx, db, restaurant, day, slot, delta)
}

func (repoShim) IncrementDayTotal(ctx context.Context, db *gorm.DB, day string) error {
	return repo.IncrementDayTotal(ctx, db, day)
}

func (repoShim) ListUsersWithExpiredStars(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.User, error) {
	return repo.ListUsersWithExpiredStars(ctx, db, cutoff)
}

func (repoShim) UpdateUserStars(ctx context.Context, db *gorm.DB, id string, stars int, removeDate string) error {
	return repo.UpdateUserStars(ctx, db, id, stars, removeDate)
}

func (repoShim) ResetUploadCounts(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.ResetUploadCounts(ctx, db)
}

func (repoShim) ListUsersWithSpamReports(ctx context.Context, db *gorm.DB, threshold int) ([]domain.User, error) {
	return repo.ListUsersWithSpamReports(ctx, db, threshold)
}

func (repoShim) MarkReservationsSpamByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.MarkReservationsSpamByUser(ctx, db, userID)
}

// eventStore adapts the repo functions to the handlers.EventStore interface,
// closing over the DB handle so the handlers stay persistence-free.
type eventStore struct {
	db *gorm.DB
}

func (s eventStore) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	return repo.CreateReservation(ctx, s.db, r)
}

func (s eventStore) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return repo.GetReservation(ctx, s.db, id)
}

func (s eventStore) CreateRequest(ctx context.Context, q *domain.NotificationRequest) error {
	return repo.CreateRequest(ctx, s.db, q)
}

func (s eventStore) CreateReview(ctx context.Context, rv *domain.Review) error {
	return repo.CreateReview(ctx, s.db, rv)
}

func (s eventStore) GetBucketHotness(ctx context.Context, restaurant, day, slot string) (float64, error) {
	return repo.GetBucketHotness(ctx, s.db, restaurant, day, slot)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and compression, health and metrics endpoints, and then mounts the
// trigger API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS, gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, notifier notify.Notifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow all when no origins configured) and compression
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/notifier, policy ← config
	matchSvc := services.NewMatchService(db, repoShim{}, notifier)
	matchSvc.Window = cfg.Engine.MatchWindow
	matchSvc.AllowSelfMatch = cfg.Engine.AllowSelfMatch

	hotSvc := services.NewHotService(db, repoShim{}, notifier)
	hotSvc.NotifyOwner = cfg.Engine.NotifyOwnerHot

	archiveSvc := services.NewArchiveService(db, repoShim{}, notifier)
	archiveSvc.ReservationLead = cfg.Engine.ReservationLead
	archiveSvc.RequestOffset = cfg.Engine.RequestOffset

	hotnessSvc := services.NewHotnessService(db, repoShim{})

	statsSvc := &services.StatsService{
		DB:          db,
		Repo:        repoShim{},
		IncludeSpam: cfg.Engine.IncludeSpamDays,
	}

	maintSvc := services.NewMaintenanceService(db, repoShim{})
	maintSvc.DecayInterval = cfg.Engine.StarDecayEvery
	maintSvc.SpamThreshold = cfg.Engine.SpamThreshold

	pickupSvc := services.NewPickupService(notifier)

	h := handlers.New(handlers.Deps{
		Store:       eventStore{db: db},
		Match:       matchSvc,
		Hot:         hotSvc,
		Hotness:     hotnessSvc,
		Pickup:      pickupSvc,
		Archive:     archiveSvc,
		Stats:       statsSvc,
		Maintenance: maintSvc,
	})

	// Trigger API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Event triggers
		api.POST("/events/reservations", h.CreateReservation)
		api.POST("/events/reservations/:id/picked", h.ReservationPicked)
		api.POST("/events/requests", h.CreateRequest)
		api.POST("/events/reviews", h.CreateReview)

		// Scheduled jobs
		api.POST("/cron/archive/reservations", h.ArchiveReservations)
		api.POST("/cron/archive/requests", h.ArchiveRequests)
		api.POST("/cron/stats/daily", h.AggregateDaily)
		api.POST("/cron/maintenance/stars", h.DecayStars)
		api.POST("/cron/maintenance/uploads", h.ResetUploadQuota)
		api.POST("/cron/maintenance/spam", h.HandleSpammers)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; reads beyond the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
