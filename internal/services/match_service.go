// Package services – MatchService
//
// This file implements the bidirectional matcher between reservation offers
// and standing notification requests. The same predicate serves both
// triggers: a newly published reservation scanned against the open requests,
// and a newly published request scanned against the live reservations.
// Candidates arrive pre-filtered by party size (an equality query in the
// repo layer); this service decides date/venue/branch agreement and fans the
// resulting notifications out concurrently.
//
// Observability: public methods are OpenTelemetry-instrumented; match counts
// and dispatches feed the engine Prometheus counters.
package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/notify"
)

// defaultMatchWindow is the half-width of the flexible date window.
const defaultMatchWindow = 2 * time.Hour

// MatchRepo defines the repository contract required by MatchService.
// Both queries apply the party-size equality pre-filter.
type MatchRepo interface {
	// ListRequestsBySize returns all standing requests for an exact party size.
	ListRequestsBySize(ctx context.Context, db *gorm.DB, numOfPeople int) ([]domain.NotificationRequest, error)

	// ListReservationsBySize returns all live reservations for an exact party size.
	ListReservationsBySize(ctx context.Context, db *gorm.DB, numOfPeople int) ([]domain.Reservation, error)
}

// MatchService decides reservation/request matches and notifies the request
// owners. It holds only policy knobs; all state lives behind Repo and
// Notifier.
type MatchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the match repository used by this service.
	Repo MatchRepo
	// Notifier delivers match notifications to request owners.
	Notifier notify.Notifier

	// Window is the half-width of the flexible date window (default ±2h).
	Window time.Duration
	// AllowSelfMatch lets a user's reservation match their own request.
	// Off by default: self-matches only add notification noise.
	AllowSelfMatch bool
}

// NewMatchService constructs a MatchService with the default ±2h window and
// self-matching excluded.
func NewMatchService(db *gorm.DB, r MatchRepo, n notify.Notifier) *MatchService {
	return &MatchService{DB: db, Repo: r, Notifier: n, Window: defaultMatchWindow}
}

func (s *MatchService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return defaultMatchWindow
}

// Matches reports whether reservation and request satisfy each other:
// the request is active, date/restaurant/branch each match exactly or by
// wildcard, and, for a flexible request whose exact date test fails, the
// request's target time falls strictly inside the ±Window around the
// reservation time. Party size equality is assumed (pre-filtered upstream).
func (s *MatchService) Matches(res *domain.Reservation, req *domain.NotificationRequest) bool {
	if !req.Active {
		return false
	}
	if !s.AllowSelfMatch && res.UserID == req.UserID {
		return false
	}
	if !req.Restaurant.Matches(res.Restaurant) {
		return false
	}
	if !req.Branch.Matches(res.Branch) {
		return false
	}
	return s.dateMatches(res, req)
}

// dateMatches applies the exact-or-wildcard test first, then the flexible
// window. The window is open on both ends: a request dated exactly
// reservation±Window does not match.
func (s *MatchService) dateMatches(res *domain.Reservation, req *domain.NotificationRequest) bool {
	if req.Date.Matches(res.Date) {
		return true
	}
	if !req.IsFlexible {
		return false
	}
	resAt, err := domain.ParseDate(res.Date)
	if err != nil {
		return false
	}
	reqAt, err := domain.ParseDate(string(req.Date))
	if err != nil {
		return false
	}
	w := s.window()
	return reqAt.After(resAt.Add(-w)) && reqAt.Before(resAt.Add(w))
}

// MatchReservation scans the open requests sharing the reservation's party
// size and notifies the owner of each one the reservation satisfies. It
// returns the number of matches found. Notifications are dispatched
// concurrently and joined on all-succeed; siblings that already went out are
// not recalled when one dispatch fails.
func (s *MatchService) MatchReservation(ctx context.Context, res *domain.Reservation) (int, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "MatchReservation",
		trace.WithAttributes(attribute.String("reservation.id", res.ID)),
	)
	defer span.End()

	requests, err := s.Repo.ListRequestsBySize(ctx, s.DB, res.NumOfPeople)
	if err != nil {
		return 0, err
	}

	payload := notify.ReservationMatch(res)
	g, gctx := errgroup.WithContext(ctx)
	matched := 0
	for _, req := range requests {
		if !s.Matches(res, &req) {
			continue
		}
		matched++
		matchesFound.WithLabelValues("reservation").Inc()
		userID := req.UserID
		g.Go(func() error {
			notificationsSent.WithLabelValues("match").Inc()
			return s.Notifier.Send(gctx, userID, payload)
		})
	}
	return matched, g.Wait()
}

// MatchRequest scans the live reservations sharing the request's party size
// and notifies the request's owner once per reservation that satisfies it.
// Same concurrency and failure semantics as MatchReservation.
func (s *MatchService) MatchRequest(ctx context.Context, req *domain.NotificationRequest) (int, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "MatchRequest",
		trace.WithAttributes(attribute.String("request.id", req.ID)),
	)
	defer span.End()

	reservations, err := s.Repo.ListReservationsBySize(ctx, s.DB, req.NumOfPeople)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	matched := 0
	for _, res := range reservations {
		res := res
		if !s.Matches(&res, req) {
			continue
		}
		matched++
		matchesFound.WithLabelValues("request").Inc()
		payload := notify.RequestMatch(&res)
		g.Go(func() error {
			notificationsSent.WithLabelValues("match").Inc()
			return s.Notifier.Send(gctx, req.UserID, payload)
		})
	}
	return matched, g.Wait()
}
