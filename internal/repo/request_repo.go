// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// NotificationRequest model and its history counterpart.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// CreateRequest inserts a new standing notification request. A UUID key is
// generated when the caller did not supply one.
func CreateRequest(ctx context.Context, db *gorm.DB, q *domain.NotificationRequest) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(q).Error
}

// GetRequest fetches a single request by id, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.NotificationRequest, error) {
	var q domain.NotificationRequest
	if err := db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListRequestsBySize returns all requests for an exact party size. The
// active flag is checked by the matcher, not here, so the same query serves
// both matching variants.
func ListRequestsBySize(ctx context.Context, db *gorm.DB, numOfPeople int) ([]domain.NotificationRequest, error) {
	var out []domain.NotificationRequest
	err := db.WithContext(ctx).
		Where("num_of_people = ?", numOfPeople).
		Find(&out).Error
	return out, err
}

// ListExpiredRequests returns requests dated at or before cutoff. Wildcard
// (blank-date) requests never expire and are left in place.
func ListExpiredRequests(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.NotificationRequest, error) {
	var out []domain.NotificationRequest
	err := db.WithContext(ctx).
		Where("date <> '' AND date <= ?", cutoff).
		Find(&out).Error
	return out, err
}

// MoveRequestToHistory relocates one request into the history table under
// the same key. Same two-step, non-transactional move as the reservation
// archiver.
func MoveRequestToHistory(ctx context.Context, db *gorm.DB, q domain.NotificationRequest) error {
	if err := db.WithContext(ctx).Delete(&domain.NotificationRequest{}, "id = ?", q.ID).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Create(domain.HistoryNotificationRequest(q)).Error
}
