// Package services – ArchiveService
//
// This file implements the time-cutoff archiver: expired records are moved
// from a live collection to its history counterpart under the same key.
// Cutoffs are formatted date strings compared lexicographically, which is
// chronological because the date layout is zero-padded big-endian.
//
// Two periodic sweeps build on the same move: reservations are archived a
// few hours ahead of their start time (a table starting that soon with no
// taker is stale, and its owner gets a "wasn't picked" notification), and
// requests are archived once their target time plus the flexibility window
// has passed.
package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/notify"
)

const (
	// defaultReservationLead archives reservations starting within this lead
	// time; unpicked that close to start, they are considered stale.
	defaultReservationLead = 4 * time.Hour

	// defaultRequestOffset pushes the request cutoff forward by the
	// flexibility window, so a flexible request stays live as long as a
	// reservation inside its window could still appear.
	defaultRequestOffset = 2 * time.Hour
)

// ArchiveRepo defines the repository contract required by ArchiveService.
// List queries must skip records with a blank (wildcard) date; moves must
// delete from the live collection and write the identical record under the
// same key into history.
type ArchiveRepo interface {
	ListExpiredReservations(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.Reservation, error)
	MoveReservationToHistory(ctx context.Context, db *gorm.DB, r domain.Reservation) error
	ListExpiredRequests(ctx context.Context, db *gorm.DB, cutoff string) ([]domain.NotificationRequest, error)
	MoveRequestToHistory(ctx context.Context, db *gorm.DB, q domain.NotificationRequest) error
}

// ArchiveService relocates expired records into the history collections.
// It owns no retry logic: a partially failed sweep reports the error and the
// next scheduled run picks up whatever is still live.
type ArchiveService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the archive repository used by this service.
	Repo ArchiveRepo
	// Notifier delivers the "wasn't picked" notices to reservation owners.
	Notifier notify.Notifier

	// ReservationLead is how far ahead of start time reservations expire.
	ReservationLead time.Duration
	// RequestOffset extends request lifetimes by the flexibility window.
	RequestOffset time.Duration
}

// NewArchiveService constructs an ArchiveService with the default cutoffs.
func NewArchiveService(db *gorm.DB, r ArchiveRepo, n notify.Notifier) *ArchiveService {
	return &ArchiveService{
		DB:              db,
		Repo:            r,
		Notifier:        n,
		ReservationLead: defaultReservationLead,
		RequestOffset:   defaultRequestOffset,
	}
}

// ArchiveReservations moves every live reservation dated at or before
// now+ReservationLead into history and notifies each owner that the
// reservation wasn't picked up. Moves run concurrently; the returned count
// is the number of records actually moved even when the sweep reports an
// error for a failed sibling.
func (s *ArchiveService) ArchiveReservations(ctx context.Context, now time.Time) (int, error) {
	cutoff := domain.FormatDate(now.Add(s.ReservationLead))

	tr := otel.Tracer("services/ArchiveService")
	ctx, span := tr.Start(ctx, "ArchiveReservations",
		trace.WithAttributes(attribute.String("archive.cutoff", cutoff)),
	)
	defer span.End()

	expired, err := s.Repo.ListExpiredReservations(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}

	var moved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range expired {
		r := r
		g.Go(func() error {
			// Owner notice is best-effort: delivery trouble must not keep a
			// stale reservation alive.
			if err := s.Notifier.Send(gctx, r.UserID, notify.ReservationNotPicked(&r)); err != nil {
				log.Warn().Err(err).Str("reservation_id", r.ID).Msg("archive: not-picked notice failed")
			} else {
				notificationsSent.WithLabelValues("not_picked").Inc()
			}
			if err := s.Repo.MoveReservationToHistory(gctx, s.DB, r); err != nil {
				return err
			}
			moved.Add(1)
			recordsArchived.WithLabelValues("reservations").Inc()
			return nil
		})
	}
	err = g.Wait()
	log.Info().Int64("moved", moved.Load()).Str("cutoff", cutoff).Msg("archive: reservations sweep finished")
	return int(moved.Load()), err
}

// ArchiveRequests moves every request dated at or before now+RequestOffset
// into history. No notifications are sent on the demand side.
func (s *ArchiveService) ArchiveRequests(ctx context.Context, now time.Time) (int, error) {
	cutoff := domain.FormatDate(now.Add(s.RequestOffset))

	tr := otel.Tracer("services/ArchiveService")
	ctx, span := tr.Start(ctx, "ArchiveRequests",
		trace.WithAttributes(attribute.String("archive.cutoff", cutoff)),
	)
	defer span.End()

	expired, err := s.Repo.ListExpiredRequests(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}

	var moved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range expired {
		q := q
		g.Go(func() error {
			if err := s.Repo.MoveRequestToHistory(gctx, s.DB, q); err != nil {
				return err
			}
			moved.Add(1)
			recordsArchived.WithLabelValues("notification_requests").Inc()
			return nil
		})
	}
	err = g.Wait()
	log.Info().Int64("moved", moved.Load()).Str("cutoff", cutoff).Msg("archive: requests sweep finished")
	return int(moved.Load()), err
}
