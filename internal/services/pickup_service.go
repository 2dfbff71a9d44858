// Package services – PickupService
//
// Small service for the picked-reservation event: when another user picks
// up a published reservation, the owner is told so.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/notify"
)

// PickupService notifies reservation owners about pickups.
type PickupService struct {
	// Notifier delivers the pickup notice.
	Notifier notify.Notifier
}

// NewPickupService constructs a PickupService.
func NewPickupService(n notify.Notifier) *PickupService {
	return &PickupService{Notifier: n}
}

// NotifyPicked tells the reservation's owner their reservation was picked up.
func (s *PickupService) NotifyPicked(ctx context.Context, res *domain.Reservation) error {
	tr := otel.Tracer("services/PickupService")
	ctx, span := tr.Start(ctx, "NotifyPicked",
		trace.WithAttributes(attribute.String("reservation.id", res.ID)),
	)
	defer span.End()

	if err := s.Notifier.Send(ctx, res.UserID, notify.ReservationPicked(res)); err != nil {
		return err
	}
	notificationsSent.WithLabelValues("picked").Inc()
	return nil
}
