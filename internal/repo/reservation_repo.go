// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reservation
// model, its history counterpart, and the archive move between them.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no business logic, only CRUD persistence
// and query composition. Matching, tiering, and cutoff policy live in the
// service layer.
//
// Date columns hold strings in domain.DateFormat; because the format is
// zero-padded big-endian, the <=/BETWEEN comparisons below are chronological.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// CreateReservation inserts a new reservation row. A UUID key is generated
// when the caller did not supply one, and the Day/Slot bucket labels are
// derived from the date.
func CreateReservation(ctx context.Context, db *gorm.DB, r *domain.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if t, err := domain.ParseDate(r.Date); err == nil {
		r.Day = domain.DayLabel(t)
		r.Slot = domain.SlotLabel(t)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetReservation fetches a single reservation by id, or ErrNotFound.
func GetReservation(ctx context.Context, db *gorm.DB, id string) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservationsBySize returns all live reservations for an exact party
// size. This is the equality pre-filter applied before pairwise matching.
func ListReservationsBySize(ctx context.Context, db *gorm.DB, numOfPeople int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Where("num_of_people = ?", numOfPeople).
		Find(&out).Error
	return out, err
}

// ListReservationsByRestaurant returns every live reservation for a venue,
// used when re-stamping hotness after a bucket recompute.
func ListReservationsByRestaurant(ctx context.Context, db *gorm.DB, restaurant string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Where("restaurant = ?", restaurant).
		Find(&out).Error
	return out, err
}

// UpdateReservationHotness stamps a new hotness value on one reservation.
// Returns ErrNotFound when the row no longer exists (it may have been
// archived between the scan and the write).
func UpdateReservationHotness(ctx context.Context, db *gorm.DB, id string, hotness int) error {
	res := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ?", id).
		Update("hotness", hotness)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReservationsSpamByUser flags every live reservation owned by userID as
// spam and returns the number of rows touched.
func MarkReservationsSpamByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("user_id = ? AND spam = ?", userID, false).
		Update("spam", true)
	return res.RowsAffected, res.Error
}

// ListExpiredReservations returns live reservations dated at or before
// cutoff. Rows with a blank date are wildcards/placeholders and are never
// selected for archiving.
func ListExpiredReservations(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := db.WithContext(ctx).
		Where("date <> '' AND date <= ?", cutoff).
		Find(&out).Error
	return out, err
}

// MoveReservationToHistory relocates one reservation into the history table
// under the same key: delete from the live collection, then write the
// identical record to history. The two writes are deliberately not wrapped
// in a transaction; the engine accepts the weak-consistency window in
// exchange for keeping each store operation single-shot.
func MoveReservationToHistory(ctx context.Context, db *gorm.DB, r domain.Reservation) error {
	if err := db.WithContext(ctx).Delete(&domain.Reservation{}, "id = ?", r.ID).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Create(domain.HistoryReservation(r)).Error
}

// ListHistoryReservationsInRange returns archived reservations dated within
// [lo, hi), both formatted per domain.DateFormat. The end bound is exclusive
// so consecutive daily sweeps never count a midnight record twice.
func ListHistoryReservationsInRange(ctx context.Context, db *gorm.DB, lo, hi string) ([]domain.HistoryReservation, error) {
	var out []domain.HistoryReservation
	err := db.WithContext(ctx).
		Where("date >= ? AND date < ?", lo, hi).
		Find(&out).Error
	return out, err
}
