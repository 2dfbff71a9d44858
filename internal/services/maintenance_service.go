// Package services – MaintenanceService
//
// This file implements the scheduled user-upkeep sweeps: star decay, the
// monthly upload-quota reset, and spam handling. Stars are an earned,
// perishable privilege; a user who stops contributing slides back down one
// tier per decay interval. Spam handling flags the live reservations of
// heavily reported users so the statistics stay clean.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

const (
	// defaultDecayInterval is how long a star survives without renewal.
	defaultDecayInterval = 30 * 24 * time.Hour

	// defaultSpamThreshold is the report count that marks a user a spammer.
	defaultSpamThreshold = 5
)

// MaintenanceRepo defines the repository contract required by
// MaintenanceService.
type MaintenanceRepo interface {
	ListUsersWithExpiredStars(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.User, error)
	UpdateUserStars(ctx context.Context, db *gorm.DB, id string, stars int, removeDate string) error
	ResetUploadCounts(ctx context.Context, db *gorm.DB) (int64, error)
	ListUsersWithSpamReports(ctx context.Context, db *gorm.DB, threshold int) ([]domain.User, error)
	MarkReservationsSpamByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}

// MaintenanceService runs the periodic user-state sweeps.
type MaintenanceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the maintenance repository used by this service.
	Repo MaintenanceRepo

	// DecayInterval is the lifetime of one star.
	DecayInterval time.Duration
	// SpamThreshold is the report count that triggers spam handling.
	SpamThreshold int
}

// NewMaintenanceService constructs a MaintenanceService with the default
// month-long decay interval and spam threshold.
func NewMaintenanceService(db *gorm.DB, r MaintenanceRepo) *MaintenanceService {
	return &MaintenanceService{
		DB:            db,
		Repo:          r,
		DecayInterval: defaultDecayInterval,
		SpamThreshold: defaultSpamThreshold,
	}
}

// DecayStars decrements the star count of every user whose decay date has
// passed, clamping at zero, and schedules the next decay one interval out.
// A user reaching zero stars gets a blank decay date: nothing left to lose.
// It returns the number of users touched.
func (s *MaintenanceService) DecayStars(ctx context.Context, now time.Time) (int, error) {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "DecayStars")
	defer span.End()

	cutoff := domain.FormatDate(now)
	users, err := s.Repo.ListUsersWithExpiredStars(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}

	next := domain.FormatDate(now.Add(s.DecayInterval))
	decayed := 0
	for _, u := range users {
		stars := u.Stars - 1
		if stars < 0 {
			stars = 0
		}
		removeDate := next
		if stars == 0 {
			removeDate = ""
		}
		if err := s.Repo.UpdateUserStars(ctx, s.DB, u.ID, stars, removeDate); err != nil {
			return decayed, err
		}
		decayed++
	}
	log.Info().Int("users", decayed).Msg("maintenance: star decay finished")
	return decayed, nil
}

// ResetUploadQuota zeroes the per-month upload counter for every user.
// Run on the first of the month.
func (s *MaintenanceService) ResetUploadQuota(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "ResetUploadQuota")
	defer span.End()

	n, err := s.Repo.ResetUploadCounts(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("users", n).Msg("maintenance: upload quota reset")
	return n, nil
}

// HandleSpammers flags every live reservation of users whose spam-report
// count has reached the threshold. It returns the number of reservations
// flagged.
func (s *MaintenanceService) HandleSpammers(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/MaintenanceService")
	ctx, span := tr.Start(ctx, "HandleSpammers")
	defer span.End()

	threshold := s.SpamThreshold
	if threshold <= 0 {
		threshold = defaultSpamThreshold
	}
	spammers, err := s.Repo.ListUsersWithSpamReports(ctx, s.DB, threshold)
	if err != nil {
		return 0, err
	}

	var flagged int64
	for _, u := range spammers {
		n, err := s.Repo.MarkReservationsSpamByUser(ctx, s.DB, u.ID)
		if err != nil {
			return flagged, err
		}
		flagged += n
	}
	log.Info().Int("users", len(spammers)).Int64("reservations", flagged).
		Msg("maintenance: spam sweep finished")
	return flagged, nil
}
