// Package services – StatsService
//
// This file implements the daily statistics aggregation over archived
// reservations: one counter increment per venue/day/slot bucket touched,
// plus a single bump of the global per-day-of-week total per run.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// StatsRepo defines the repository contract required by StatsService.
type StatsRepo interface {
	ListHistoryReservationsInRange(ctx context.Context, db *gorm.DB, lo, hi string) ([]domain.HistoryReservation, error)
	IncrementStatBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string, delta int64) error
	IncrementDayTotal(ctx context.Context, db *gorm.DB, day string) error
}

// StatsService folds archived reservations into the rolling popularity
// counters.
type StatsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the statistics repository used by this service.
	Repo StatsRepo

	// IncludeSpam counts reservations flagged as spam. Off by default.
	IncludeSpam bool
}

// NewStatsService constructs a StatsService with spam records excluded.
func NewStatsService(db *gorm.DB, r StatsRepo) *StatsService {
	return &StatsService{DB: db, Repo: r}
}

// bucketKey identifies one venue/day/slot counter.
type bucketKey struct {
	restaurant, day, slot string
}

// AggregateDay reads every archived reservation dated in [dayStart, dayEnd),
// increments each touched venue/day/slot counter by the number of matching
// records, and finally bumps the dayLabel total once. Buckets are
// accumulated locally first so the store sees exactly one read+write per
// distinct bucket.
func (s *StatsService) AggregateDay(ctx context.Context, dayStart, dayEnd time.Time, dayLabel string) error {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "AggregateDay",
		trace.WithAttributes(attribute.String("stats.day", dayLabel)),
	)
	defer span.End()

	lo := domain.FormatDate(dayStart)
	hi := domain.FormatDate(dayEnd)
	records, err := s.Repo.ListHistoryReservationsInRange(ctx, s.DB, lo, hi)
	if err != nil {
		return err
	}

	counts := make(map[bucketKey]int64)
	for _, r := range records {
		if r.Spam && !s.IncludeSpam {
			continue
		}
		counts[bucketKey{r.Restaurant, r.Day, r.Slot}]++
		statsRecordsAggregated.Inc()
	}

	for k, n := range counts {
		if err := s.Repo.IncrementStatBucket(ctx, s.DB, k.restaurant, k.day, k.slot, n); err != nil {
			return err
		}
	}

	if err := s.Repo.IncrementDayTotal(ctx, s.DB, dayLabel); err != nil {
		return err
	}
	log.Info().Str("day", dayLabel).Int("records", len(records)).Int("buckets", len(counts)).
		Msg("stats: aggregation finished")
	return nil
}
