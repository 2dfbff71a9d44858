// Event trigger handlers.
//
// These endpoints are the write-side entry points of the engine:
//   - POST /events/reservations            (publish a reservation offer)
//   - POST /events/requests                (register a standing request)
//   - POST /events/reviews                 (report venue busyness, recompute hotness)
//   - POST /events/reservations/:id/picked (owner pickup notice)
//
// Handlers are transport-thin: they validate input, persist through the
// EventStore, run the engine services, and translate results into HTTP
// responses.
package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/repo"
)

//
// Service contracts (context-aware)
//

// MatchService pairs new records against the standing opposite side.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MatchService interface {
	// MatchReservation notifies every standing request the reservation
	// satisfies and returns how many owners were notified.
	MatchReservation(ctx context.Context, res *domain.Reservation) (int, error)
	// MatchRequest notifies the request owner once per live reservation the
	// request matches and returns how many notices went out.
	MatchRequest(ctx context.Context, req *domain.NotificationRequest) (int, error)
}

// HotService fans hot reservations out to users by star tier.
type HotService interface {
	// DispatchHotNotifications returns how many users were notified.
	DispatchHotNotifications(ctx context.Context, res *domain.Reservation) (int, error)
}

// HotnessService recomputes the review-weighted bucket score.
type HotnessService interface {
	// RecalcBucket recomputes one venue/day/slot bucket and restamps live
	// reservations in it; it returns the new score.
	RecalcBucket(ctx context.Context, restaurant, day, slot string) (float64, error)
}

// PickupService tells reservation owners their offer was taken.
type PickupService interface {
	NotifyPicked(ctx context.Context, res *domain.Reservation) error
}

// EventStore is the persistence surface the event handlers need. It keeps
// the handlers decoupled from the concrete repo package and the DB handle.
type EventStore interface {
	CreateReservation(ctx context.Context, r *domain.Reservation) error
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	CreateRequest(ctx context.Context, q *domain.NotificationRequest) error
	CreateReview(ctx context.Context, rv *domain.Review) error
	GetBucketHotness(ctx context.Context, restaurant, day, slot string) (float64, error)
}

//
// DTOs
//

// CreateReservationRequest is the JSON payload for publishing a reservation.
type CreateReservationRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Restaurant  string `json:"restaurant" binding:"required"`
	Branch      string `json:"branch" binding:"required"`
	Date        string `json:"date" binding:"required"`
	NumOfPeople int    `json:"num_of_people" binding:"required,min=1"`
}

// CreateReservationResponse wraps the stored reservation and the fan-out
// counts produced by its publication.
type CreateReservationResponse struct {
	Reservation     *domain.Reservation `json:"reservation"`
	MatchesNotified int                 `json:"matches_notified"`
	HotNotified     int                 `json:"hot_notified"`
}

// CreateRequestRequest is the JSON payload for a standing request. Empty
// restaurant, branch, or date mean "match any".
type CreateRequestRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Restaurant  string `json:"restaurant"`
	Branch      string `json:"branch"`
	Date        string `json:"date"`
	IsFlexible  bool   `json:"is_flexible"`
	NumOfPeople int    `json:"num_of_people" binding:"required,min=1"`
}

// CreateRequestResponse wraps the stored request and the number of live
// reservations it matched immediately.
type CreateRequestResponse struct {
	Request         *domain.NotificationRequest `json:"request"`
	MatchesNotified int                         `json:"matches_notified"`
}

// CreateReviewRequest is the JSON payload for a busyness review.
type CreateReviewRequest struct {
	UserID     string  `json:"user_id" binding:"required"`
	Restaurant string  `json:"restaurant" binding:"required"`
	Day        string  `json:"day" binding:"required"`
	Slot       string  `json:"slot" binding:"required"`
	BusyRate   float64 `json:"busy_rate"`
	Rate       float64 `json:"rate"`
}

// CreateReviewResponse wraps the stored review and the recomputed bucket
// score it produced.
type CreateReviewResponse struct {
	Review  *domain.Review `json:"review"`
	Hotness float64        `json:"hotness"`
}

//
// Handlers
//

// CreateReservation publishes a reservation offer. The stored record is
// stamped with the current bucket hotness, matched against standing requests,
// and, when hot enough, fanned out by star tier.
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	when, err := domain.ParseDate(req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be formatted as "+domain.DateFormat)
		return
	}

	ctx := c.Request.Context()
	res := &domain.Reservation{
		UserID:      strings.TrimSpace(req.UserID),
		Restaurant:  strings.TrimSpace(req.Restaurant),
		Branch:      strings.TrimSpace(req.Branch),
		Date:        domain.FormatDate(when),
		NumOfPeople: req.NumOfPeople,
	}

	// Stamp the current bucket score before the record lands; an unknown
	// bucket reads as zero.
	score, err := h.store.GetBucketHotness(ctx, res.Restaurant, domain.DayLabel(when), domain.SlotLabel(when))
	if err == nil {
		res.Hotness = clampHotness(score)
	}

	if err := h.store.CreateReservation(ctx, res); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	matched, err := h.matchSvc.MatchReservation(ctx, res)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMatchFailed, err.Error())
		return
	}
	hot, err := h.hotSvc.DispatchHotNotifications(ctx, res)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, CreateReservationResponse{
		Reservation:     res,
		MatchesNotified: matched,
		HotNotified:     hot,
	})
}

// CreateRequest registers a standing "looking for" entry and immediately
// matches it against the live reservations.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	date := strings.TrimSpace(req.Date)
	if date != "" {
		when, err := domain.ParseDate(date)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be empty or formatted as "+domain.DateFormat)
			return
		}
		date = domain.FormatDate(when)
	}
	if req.IsFlexible && date == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a flexible request needs a target date")
		return
	}

	ctx := c.Request.Context()
	nr := &domain.NotificationRequest{
		UserID:      strings.TrimSpace(req.UserID),
		Restaurant:  domain.Wildcard(strings.TrimSpace(req.Restaurant)),
		Branch:      domain.Wildcard(strings.TrimSpace(req.Branch)),
		Date:        domain.Wildcard(date),
		IsFlexible:  req.IsFlexible,
		NumOfPeople: req.NumOfPeople,
		Active:      true,
	}
	if err := h.store.CreateRequest(ctx, nr); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	matched, err := h.matchSvc.MatchRequest(ctx, nr)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMatchFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, CreateRequestResponse{Request: nr, MatchesNotified: matched})
}

// CreateReview records a busyness review and recomputes the bucket it lands
// in, restamping the live reservations there.
func (h *Handlers) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.BusyRate < 0 || req.BusyRate > 10 || req.Rate < 0 || req.Rate > 10 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "busy_rate and rate must be in [0,10]")
		return
	}

	ctx := c.Request.Context()
	rv := &domain.Review{
		UserID:     strings.TrimSpace(req.UserID),
		Restaurant: strings.TrimSpace(req.Restaurant),
		Day:        strings.TrimSpace(req.Day),
		Slot:       strings.TrimSpace(req.Slot),
		BusyRate:   req.BusyRate,
		Rate:       req.Rate,
	}
	if err := h.store.CreateReview(ctx, rv); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	score, err := h.hotnessSvc.RecalcBucket(ctx, rv.Restaurant, rv.Day, rv.Slot)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRecalcFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, CreateReviewResponse{Review: rv, Hotness: score})
}

// ReservationPicked notifies a reservation's owner that it was picked up.
func (h *Handlers) ReservationPicked(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	ctx := c.Request.Context()
	res, err := h.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "reservation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	if err := h.pickupSvc.NotifyPicked(ctx, res); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "notified", "reservation_id": res.ID})
}

// clampHotness rounds a bucket score to the nearest stamp in [0,10].
func clampHotness(score float64) int {
	n := int(math.Round(score))
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
