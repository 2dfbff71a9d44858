// Package notify defines the push-notification payloads produced by the
// engine and the Notifier contract used to deliver them.
//
// The engine itself never talks to a push transport: components build a
// Notification and hand it to an injected Notifier together with the target
// user id. Delivery failures are non-fatal to business state; callers only
// propagate the error so the triggering unit of work can report it.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

// Notification is the transport-agnostic payload handed to a Notifier.
// Data carries machine-readable hints (record ids, scores) for the client.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier delivers a notification to a single user. Implementations resolve
// the user's current delivery address themselves; a user without one is a
// silent no-op, not an error.
type Notifier interface {
	Send(ctx context.Context, userID string, n Notification) error
}

// venueCaser renders venue names in title case for user-facing text.
var venueCaser = cases.Title(language.English)

// DisplayVenue formats a stored venue name for notification bodies.
func DisplayVenue(restaurant string) string {
	return venueCaser.String(strings.TrimSpace(restaurant))
}

// ReservationMatch is sent to a request owner when a newly published
// reservation satisfies their standing request.
func ReservationMatch(r *domain.Reservation) Notification {
	return Notification{
		Title: "It's a match!",
		Body:  fmt.Sprintf("New reservation to %s on %s matches your request", DisplayVenue(r.Restaurant), r.Date),
		Data:  map[string]string{"reservationId": r.ID},
	}
}

// RequestMatch is sent to a request owner right after they publish a request
// for which a matching reservation already exists.
func RequestMatch(r *domain.Reservation) Notification {
	return Notification{
		Title: "A reservation is waiting for you",
		Body:  fmt.Sprintf("A reservation to %s on %s matches your new request", DisplayVenue(r.Restaurant), r.Date),
		Data:  map[string]string{"reservationId": r.ID},
	}
}

// HotReservation is the single shared payload fanned out to every user whose
// star tier covers the reservation's hotness.
func HotReservation(r *domain.Reservation) Notification {
	return Notification{
		Title: "Hot reservation alert",
		Body:  fmt.Sprintf("A hot reservation to %s on %s just opened up", DisplayVenue(r.Restaurant), r.Date),
		Data: map[string]string{
			"reservationId": r.ID,
			"hotness":       strconv.Itoa(r.Hotness),
		},
	}
}

// ReservationPicked is sent to a reservation's owner when another user picks
// it up.
func ReservationPicked(r *domain.Reservation) Notification {
	return Notification{
		Title: "Reservation has been picked up!",
		Body:  fmt.Sprintf("Your reservation to %s has been picked up!", DisplayVenue(r.Restaurant)),
		Data:  map[string]string{"reservationId": r.ID},
	}
}

// ReservationNotPicked is sent to a reservation's owner when the reservation
// goes stale and is archived without having been picked up.
func ReservationNotPicked(r *domain.Reservation) Notification {
	return Notification{
		Title: "Reservation wasn't picked up",
		Body:  fmt.Sprintf("Your reservation to %s on %s wasn't picked up and was moved to history", DisplayVenue(r.Restaurant), r.Date),
		Data:  map[string]string{"reservationId": r.ID},
	}
}
