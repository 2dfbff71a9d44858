// Scheduled-job handlers.
//
// These endpoints are invoked by an external scheduler (cron, Cloud
// Scheduler, a sidecar ticker) and run the periodic sweeps:
//   - POST /cron/archive/reservations (expire reservations into history)
//   - POST /cron/archive/requests     (expire dated requests into history)
//   - POST /cron/stats/daily          (archive, then fold yesterday into the counters)
//   - POST /cron/maintenance/stars    (decay expired stars)
//   - POST /cron/maintenance/uploads  (reset monthly upload quotas)
//   - POST /cron/maintenance/spam     (flag heavily reported users)
//
// Every sweep is idempotent at the data level, so a retried trigger is safe.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

//
// Service contracts (context-aware)
//

// ArchiveService relocates expired records into the history tables.
type ArchiveService interface {
	// ArchiveReservations moves reservations starting at or before the
	// cutoff derived from now; it returns how many records moved.
	ArchiveReservations(ctx context.Context, now time.Time) (int, error)
	// ArchiveRequests does the same for dated standing requests.
	ArchiveRequests(ctx context.Context, now time.Time) (int, error)
}

// StatsService folds archived reservations into the popularity counters.
type StatsService interface {
	AggregateDay(ctx context.Context, dayStart, dayEnd time.Time, dayLabel string) error
}

// MaintenanceService runs the periodic user-state sweeps.
type MaintenanceService interface {
	// DecayStars removes one star from every user past their decay date.
	DecayStars(ctx context.Context, now time.Time) (int, error)
	// ResetUploadQuota zeroes the monthly upload counters.
	ResetUploadQuota(ctx context.Context) (int64, error)
	// HandleSpammers flags users over the report threshold and marks their
	// live reservations as spam.
	HandleSpammers(ctx context.Context) (int64, error)
}

// SweepResponse reports the outcome of one scheduled sweep.
type SweepResponse struct {
	Status string `json:"status"`
	Moved  int64  `json:"moved,omitempty"`
	Users  int64  `json:"users,omitempty"`
}

//
// Handlers
//

// ArchiveReservations expires live reservations into history.
func (h *Handlers) ArchiveReservations(c *gin.Context) {
	moved, err := h.archiveSvc.ArchiveReservations(c.Request.Context(), h.now())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeArchiveFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Moved: int64(moved)})
}

// ArchiveRequests expires dated standing requests into history.
func (h *Handlers) ArchiveRequests(c *gin.Context) {
	moved, err := h.archiveSvc.ArchiveRequests(c.Request.Context(), h.now())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeArchiveFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Moved: int64(moved)})
}

// AggregateDaily archives anything still live, then folds the previous
// calendar day's history into the per-bucket and per-day counters. The
// archive step runs first so late records are counted in the same pass.
func (h *Handlers) AggregateDaily(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()

	moved, err := h.archiveSvc.ArchiveReservations(ctx, now)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeArchiveFailed, err.Error())
		return
	}

	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayStart := dayEnd.Add(-24 * time.Hour)
	if err := h.statsSvc.AggregateDay(ctx, dayStart, dayEnd, domain.DayLabel(dayStart)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeAggregateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Moved: int64(moved)})
}

// DecayStars removes a star from every user whose decay date has passed.
func (h *Handlers) DecayStars(c *gin.Context) {
	n, err := h.maintSvc.DecayStars(c.Request.Context(), h.now())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMaintenanceFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Users: int64(n)})
}

// ResetUploadQuota zeroes the monthly upload counters for all users.
func (h *Handlers) ResetUploadQuota(c *gin.Context) {
	n, err := h.maintSvc.ResetUploadQuota(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMaintenanceFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Users: n})
}

// HandleSpammers flags heavily reported users and their live reservations.
func (h *Handlers) HandleSpammers(c *gin.Context) {
	n, err := h.maintSvc.HandleSpammers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMaintenanceFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SweepResponse{Status: "ok", Users: n})
}
