// Package services – HotService
//
// This file implements the stars-tiered fan-out for especially desirable
// reservations. Hotness values classify into three nested severity sets
// (warm ⊆ hot ⊆ boiling-hot) and a user's star count decides the deepest
// tier they are notified about: more stars, earlier access to the hottest
// tables.
package services

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/notify"
)

// MinHotnessToNotify is the floor below which a reservation triggers no
// tiered fan-out at all.
const MinHotnessToNotify = 7

// Tier classification by hotness value. The sets nest: a 7 sits in all
// three, an 8 in hot and boiling-hot, 9–10 only in boiling-hot.
const (
	tierWarm    = 1 // stars needed: 1, hotness {7}
	tierHot     = 2 // stars needed: 2, hotness {7,8}
	tierBoiling = 3 // stars needed: 3, hotness {7,8,9,10}
)

// HotRepo defines the repository contract required by HotService.
type HotRepo interface {
	// ListUsersWithMinStars returns every user with at least min stars.
	ListUsersWithMinStars(ctx context.Context, db *gorm.DB, min int) ([]domain.User, error)
}

// HotService fans a hot reservation out to the users whose star tier covers
// its hotness value.
type HotService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo HotRepo
	// Notifier delivers the shared tier payload.
	Notifier notify.Notifier

	// NotifyOwner includes the reservation's own publisher in the fan-out.
	// Off by default.
	NotifyOwner bool
}

// NewHotService constructs a HotService with the owner excluded from the
// recipient set.
func NewHotService(db *gorm.DB, r HotRepo, n notify.Notifier) *HotService {
	return &HotService{DB: db, Repo: r, Notifier: n}
}

// Eligible reports whether a user with the given star count receives a
// reservation of the given hotness. Zero-star users receive nothing;
// 1-star users only the warm set, 2-star the hot set, 3-star everything
// from 7 up.
func Eligible(stars, hotness int) bool {
	switch stars {
	case tierWarm:
		return hotness == 7
	case tierHot:
		return hotness == 7 || hotness == 8
	case tierBoiling:
		return hotness >= 7 && hotness <= 10
	default:
		return false
	}
}

// DispatchHotNotifications classifies the reservation's hotness and sends
// the single shared tier payload to every eligible starred user. It returns
// the number of users notified. Below MinHotnessToNotify it is a no-op.
// Dispatches run concurrently and join on all-succeed; notifications already
// delivered are not recalled when a sibling fails.
func (s *HotService) DispatchHotNotifications(ctx context.Context, res *domain.Reservation) (int, error) {
	tr := otel.Tracer("services/HotService")
	ctx, span := tr.Start(ctx, "DispatchHotNotifications",
		trace.WithAttributes(
			attribute.String("reservation.id", res.ID),
			attribute.Int("reservation.hotness", res.Hotness),
		),
	)
	defer span.End()

	if res.Hotness < MinHotnessToNotify {
		return 0, nil
	}

	users, err := s.Repo.ListUsersWithMinStars(ctx, s.DB, tierWarm)
	if err != nil {
		return 0, err
	}

	payload := notify.HotReservation(res)
	g, gctx := errgroup.WithContext(ctx)
	sent := 0
	for _, u := range users {
		if !s.NotifyOwner && u.ID == res.UserID {
			continue
		}
		if !Eligible(u.Stars, res.Hotness) {
			continue
		}
		sent++
		userID := u.ID
		g.Go(func() error {
			notificationsSent.WithLabelValues("hot").Inc()
			return s.Notifier.Send(gctx, userID, payload)
		})
	}
	return sent, g.Wait()
}
