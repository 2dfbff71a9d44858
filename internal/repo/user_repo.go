// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model:
// star-tier range scans for the tiered fan-out, reliability lookups for the
// hotness calculator, and the bulk mutations issued by the maintenance
// sweeps.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// GetUser fetches a user by id, or ErrNotFound. Services treat a missing
// user as zero reliability / zero stars rather than an error.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser upserts a user row.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Save(u).Error
}

// UserInstanceID returns the push-delivery address for a user. A missing
// user resolves to the empty address, not an error.
func UserInstanceID(ctx context.Context, db *gorm.DB, id string) (string, error) {
	var u domain.User
	err := db.WithContext(ctx).Select("instance_id").First(&u, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.InstanceID, nil
}

// ListUsersWithMinStars is the range query feeding the tiered fan-out:
// every user whose star count is at least min.
func ListUsersWithMinStars(ctx context.Context, db *gorm.DB, min int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("stars >= ?", min).
		Find(&out).Error
	return out, err
}

// ListUsersWithExpiredStars returns users whose star-decay date has passed.
// Users with no decay date scheduled (blank) are skipped.
func ListUsersWithExpiredStars(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("star_remove_date <> '' AND star_remove_date <= ? AND stars > 0", cutoff).
		Find(&out).Error
	return out, err
}

// UpdateUserStars writes a new star count and decay date for one user.
func UpdateUserStars(ctx context.Context, db *gorm.DB, id string, stars int, removeDate string) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"stars": stars, "star_remove_date": removeDate}).Error
}

// ResetUploadCounts zeroes the per-month upload counter for every user and
// returns the number of rows touched.
func ResetUploadCounts(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("uploads_this_month <> 0").
		Update("uploads_this_month", 0)
	return res.RowsAffected, res.Error
}

// ListUsersWithSpamReports returns users whose spam-report counter has
// reached threshold.
func ListUsersWithSpamReports(ctx context.Context, db *gorm.DB, threshold int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("spam_reports >= ?", threshold).
		Find(&out).Error
	return out, err
}
