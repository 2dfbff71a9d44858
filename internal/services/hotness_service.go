// Package services – HotnessService
//
// This file implements the review-driven hotness recomputation. Every
// review contributes a blended busy/desirability score weighted by its
// author's reliability; the bucket's aggregate is the weighted mean over the
// full review set, computed in a single pass and written once. Whenever a
// bucket aggregate changes, live reservations for the same venue/day/slot
// are re-stamped so their hotness stays consistent with the latest
// crowd-sourced estimate.
package services

import (
	"context"
	"errors"
	"math"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// Review blend weights: how busy the venue actually was counts a little
// more than how much the reviewer liked it.
const (
	busyRateWeight = 0.6
	rateWeight     = 0.4
)

// HotnessRepo defines the repository contract required by HotnessService.
type HotnessRepo interface {
	ListReviewsForBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string) ([]domain.Review, error)
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	SaveBucketHotness(ctx context.Context, db *gorm.DB, restaurant, day, slot string, hotness float64) error
	ListReservationsByRestaurant(ctx context.Context, db *gorm.DB, restaurant string) ([]domain.Reservation, error)
	UpdateReservationHotness(ctx context.Context, db *gorm.DB, id string, hotness int) error
}

// HotnessService recomputes bucket hotness from reviews and keeps
// reservation hotness stamps in sync with the aggregates.
type HotnessService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the hotness repository used by this service.
	Repo HotnessRepo
}

// NewHotnessService constructs a HotnessService.
func NewHotnessService(db *gorm.DB, r HotnessRepo) *HotnessService {
	return &HotnessService{DB: db, Repo: r}
}

// RecalcBucket recomputes the aggregate hotness for one venue/day/slot from
// every review stored for it, writes the bucket once, and re-stamps the
// venue's matching live reservations. It returns the new aggregate.
//
// Each review is weighted by its author's reliability normalized to [0,5]
// (reliability/20). An unknown author weighs zero, a bucket with zero total
// weight aggregates to zero.
func (s *HotnessService) RecalcBucket(ctx context.Context, restaurant, day, slot string) (float64, error) {
	tr := otel.Tracer("services/HotnessService")
	ctx, span := tr.Start(ctx, "RecalcBucket",
		trace.WithAttributes(
			attribute.String("bucket.restaurant", restaurant),
			attribute.String("bucket.day", day),
			attribute.String("bucket.slot", slot),
		),
	)
	defer span.End()

	reviews, err := s.Repo.ListReviewsForBucket(ctx, s.DB, restaurant, day, slot)
	if err != nil {
		return 0, err
	}

	var weightedSum, sumOfWeights float64
	for _, rv := range reviews {
		weight := float64(s.reliability(ctx, rv.UserID)) / 20.0
		weightedSum += weight * (busyRateWeight*rv.BusyRate + rateWeight*rv.Rate)
		sumOfWeights += weight
	}

	hotness := 0.0
	if sumOfWeights > 0 {
		hotness = weightedSum / sumOfWeights
	}

	if err := s.Repo.SaveBucketHotness(ctx, s.DB, restaurant, day, slot, hotness); err != nil {
		return 0, err
	}
	hotnessRecomputes.Inc()

	if err := s.RestampReservations(ctx, restaurant, day, slot, hotness); err != nil {
		return hotness, err
	}
	return hotness, nil
}

// reliability resolves a review author's reliability score; a missing user
// defaults to zero so their reviews carry no weight.
func (s *HotnessService) reliability(ctx context.Context, userID string) int {
	u, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		return 0
	}
	return u.Reliability
}

// RestampReservations writes the new aggregate onto every live reservation
// of the venue whose day/slot labels match the bucket. Updates run
// concurrently; a reservation archived between the scan and the write is
// skipped, not an error.
func (s *HotnessService) RestampReservations(ctx context.Context, restaurant, day, slot string, hotness float64) error {
	reservations, err := s.Repo.ListReservationsByRestaurant(ctx, s.DB, restaurant)
	if err != nil {
		return err
	}

	stamp := clampHotness(int(math.Round(hotness)))
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range reservations {
		if r.Day != day || r.Slot != slot {
			continue
		}
		id := r.ID
		g.Go(func() error {
			err := s.Repo.UpdateReservationHotness(gctx, s.DB, id, stamp)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// clampHotness bounds a stamp to the reservation hotness domain [0,10].
func clampHotness(h int) int {
	if h < 0 {
		return 0
	}
	if h > 10 {
		return 10
	}
	return h
}
