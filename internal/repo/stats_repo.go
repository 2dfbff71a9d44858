// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the statistics counters maintained by
// the daily aggregation: per venue/day/slot reservation counts and the
// global per-day-of-week totals.
//
// Increments are read-default-zero-then-write rather than a single SQL
// UPDATE .. SET count = count + n, matching the single-shot read/write
// operations the rest of the store exposes.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// GetStatBucket returns the current count for one venue/day/slot bucket,
// defaulting to zero when absent.
func GetStatBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string) (int64, error) {
	var b domain.StatBucket
	err := db.WithContext(ctx).
		First(&b, "restaurant = ? AND day = ? AND slot = ?", restaurant, day, slot).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Count, nil
}

// IncrementStatBucket adds delta to a bucket's reservation counter,
// creating the bucket at delta when absent.
func IncrementStatBucket(ctx context.Context, db *gorm.DB, restaurant, day, slot string, delta int64) error {
	current, err := GetStatBucket(ctx, db, restaurant, day, slot)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Save(&domain.StatBucket{
		Restaurant: restaurant,
		Day:        day,
		Slot:       slot,
		Count:      current + delta,
		UpdatedAt:  time.Now().UTC(),
	}).Error
}

// GetDayTotal returns the aggregation-run counter for one day-of-week label,
// defaulting to zero when absent.
func GetDayTotal(ctx context.Context, db *gorm.DB, day string) (int64, error) {
	var t domain.DayTotal
	err := db.WithContext(ctx).First(&t, "day = ?", day).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return t.Count, nil
}

// IncrementDayTotal bumps the per-day-of-week counter by one.
func IncrementDayTotal(ctx context.Context, db *gorm.DB, day string) error {
	current, err := GetDayTotal(ctx, db, day)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Save(&domain.DayTotal{
		Day:       day,
		Count:     current + 1,
		UpdatedAt: time.Now().UTC(),
	}).Error
}
