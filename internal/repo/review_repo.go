// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for reviews and
// the per-bucket hotness aggregate they feed.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// CreateReview inserts a new review into its venue/day/slot bucket.
func CreateReview(ctx context.Context, db *gorm.DB, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(rv).Error
}

// ListReviewsForBucket returns every review stored for one venue/day/slot.
func ListReviewsForBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Where("restaurant = ? AND day = ? AND slot = ?", restaurant, day, slot).
		Find(&out).Error
	return out, err
}

// SaveBucketHotness upserts the aggregate hotness for one bucket.
func SaveBucketHotness(ctx context.Context, db *gorm.DB, restaurant, day, slot string, hotness float64) error {
	return db.WithContext(ctx).Save(&domain.HotnessBucket{
		Restaurant: restaurant,
		Day:        day,
		Slot:       slot,
		Hotness:    hotness,
		UpdatedAt:  time.Now().UTC(),
	}).Error
}

// GetBucketHotness returns the stored aggregate for one bucket, defaulting
// to zero when the bucket has never been written.
func GetBucketHotness(ctx context.Context, db *gorm.DB, restaurant, day, slot string) (float64, error) {
	var b domain.HotnessBucket
	err := db.WithContext(ctx).
		First(&b, "restaurant = ? AND day = ? AND slot = ?", restaurant, day, slot).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Hotness, nil
}
