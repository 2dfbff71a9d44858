// Package domain defines the persistence models for reservations, standing
// notification requests, users, reviews, and the aggregate statistics rows.
// These types are mapped with GORM and form the core data layer of the
// matching and notification engine.
package domain

import (
	"time"
)

// Wildcard is a request-side string field where the empty value means
// "match any". Modeled as a named type so an unset dimension is explicit in
// the schema rather than an overloaded empty string scattered through the
// matching code.
type Wildcard string

// Any reports whether the field is unset, i.e. matches every value.
func (w Wildcard) Any() bool { return w == "" }

// Matches reports whether the field accepts v: either the field is a
// wildcard or it equals v exactly.
func (w Wildcard) Matches(v string) bool { return w.Any() || string(w) == v }

// Reservation is a published reservation offer. The Day and Slot labels are
// derived from Date at publish time and key the review/statistics buckets.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the publishing user; indexed for ownership scans.
//   - Restaurant / Branch: venue identity.
//   - Date: formatted per DateFormat; indexed so cutoff sweeps and window
//     queries stay range scans.
//   - NumOfPeople: party size; equality pre-filter for matching.
//   - Hotness: derived desirability score in [0,10].
//   - Day / Slot: bucket labels derived from Date.
//   - Spam: set by the spam-handling sweep; spam rows are excluded from
//     statistics by default.
type Reservation struct {
	ID          string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_reservation_owner"`
	Restaurant  string    `json:"restaurant"    gorm:"type:varchar(128);not null;index:idx_reservation_venue"`
	Branch      string    `json:"branch"        gorm:"type:varchar(128);not null"`
	Date        string    `json:"date"          gorm:"type:varchar(16);index:idx_reservation_date"`
	NumOfPeople int       `json:"num_of_people" gorm:"not null;index:idx_reservation_size"`
	Hotness     int       `json:"hotness"       gorm:"not null;default:0;check:hotness BETWEEN 0 AND 10"`
	Day         string    `json:"day"           gorm:"type:varchar(16)"`
	Slot        string    `json:"slot"          gorm:"type:varchar(16)"`
	Spam        bool      `json:"spam"          gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Reservation.
func (Reservation) TableName() string { return "reservations" }

// When returns the parsed reservation time. The zero time is returned for a
// blank or malformed date.
func (r Reservation) When() time.Time {
	t, err := ParseDate(r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HistoryReservation is a Reservation relocated verbatim into the history
// table by the archiver. Immutable once written.
type HistoryReservation Reservation

// TableName returns the database table name for HistoryReservation.
func (HistoryReservation) TableName() string { return "history_reservations" }

// NotificationRequest is a standing "looking for" entry on the demand side.
// Restaurant, Branch, and Date may each be a wildcard; a flexible request
// additionally matches reservations inside a ±2h window of its target time.
type NotificationRequest struct {
	ID          string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_request_owner"`
	Restaurant  Wildcard  `json:"restaurant"    gorm:"type:varchar(128)"`
	Branch      Wildcard  `json:"branch"        gorm:"type:varchar(128)"`
	Date        Wildcard  `json:"date"          gorm:"type:varchar(16);index:idx_request_date"`
	IsFlexible  bool      `json:"is_flexible"   gorm:"not null;default:false"`
	NumOfPeople int       `json:"num_of_people" gorm:"not null;index:idx_request_size"`
	Active      bool      `json:"active"        gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for NotificationRequest.
func (NotificationRequest) TableName() string { return "notification_requests" }

// HistoryNotificationRequest is an archived NotificationRequest.
type HistoryNotificationRequest NotificationRequest

// TableName returns the database table name for HistoryNotificationRequest.
func (HistoryNotificationRequest) TableName() string { return "history_notification_requests" }

// User carries the engagement and credibility state the engine reads and the
// maintenance sweeps mutate.
//
// Invariants enforced at the service layer: Stars in [0,3], Reliability in
// [0,100]. InstanceID is the push-delivery address resolved by the notifier;
// it may be blank when the user has no registered device.
type User struct {
	ID               string    `json:"id"                 gorm:"type:varchar(64);primaryKey"`
	Stars            int       `json:"stars"              gorm:"not null;default:0;index:idx_user_stars;check:stars BETWEEN 0 AND 3"`
	Reliability      int       `json:"reliability"        gorm:"not null;default:50;check:reliability BETWEEN 0 AND 100"`
	StarRemoveDate   string    `json:"star_remove_date"   gorm:"type:varchar(16)"`
	UploadsThisMonth int       `json:"uploads_this_month" gorm:"not null;default:0"`
	SpamReports      int       `json:"spam_reports"       gorm:"not null;default:0"`
	InstanceID       string    `json:"instance_id"        gorm:"type:varchar(256)"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Review is a crowd-sourced report on how busy/desirable a venue is for a
// given day-of-week and time slot. Never deleted by the engine.
type Review struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Restaurant string    `json:"restaurant" gorm:"type:varchar(128);not null;index:idx_review_bucket,priority:1"`
	Day        string    `json:"day"        gorm:"type:varchar(16);not null;index:idx_review_bucket,priority:2"`
	Slot       string    `json:"slot"       gorm:"type:varchar(16);not null;index:idx_review_bucket,priority:3"`
	UserID     string    `json:"user_id"    gorm:"type:varchar(64);not null"`
	BusyRate   float64   `json:"busy_rate"  gorm:"not null"`
	Rate       float64   `json:"rate"       gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// HotnessBucket stores the review-weighted aggregate hotness for one
// venue/day/slot. Rewritten in full on every recompute.
type HotnessBucket struct {
	Restaurant string    `json:"restaurant" gorm:"type:varchar(128);primaryKey"`
	Day        string    `json:"day"        gorm:"type:varchar(16);primaryKey"`
	Slot       string    `json:"slot"       gorm:"type:varchar(16);primaryKey"`
	Hotness    float64   `json:"hotness"    gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for HotnessBucket.
func (HotnessBucket) TableName() string { return "hotness_buckets" }

// StatBucket is the per venue/day/slot reservation counter. Monotonically
// incremented by the statistics aggregator, never decremented.
type StatBucket struct {
	Restaurant string    `json:"restaurant" gorm:"type:varchar(128);primaryKey"`
	Day        string    `json:"day"        gorm:"type:varchar(16);primaryKey"`
	Slot       string    `json:"slot"       gorm:"type:varchar(16);primaryKey"`
	Count      int64     `json:"count"      gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for StatBucket.
func (StatBucket) TableName() string { return "stat_buckets" }

// DayTotal is the global per-day-of-week aggregation counter, bumped once
// per aggregation run.
type DayTotal struct {
	Day       string    `json:"day"   gorm:"type:varchar(16);primaryKey"`
	Count     int64     `json:"count" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DayTotal.
func (DayTotal) TableName() string { return "day_totals" }
