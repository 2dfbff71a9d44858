package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
	"github.com/yuvalkaspi/reserveat-be/internal/repo"
)

func init() { gin.SetMode(gin.TestMode) }

//
// Fakes
//

type fakeStore struct {
	reservations map[string]*domain.Reservation
	requests     map[string]*domain.NotificationRequest
	reviews      []*domain.Review
	bucketScore  float64

	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reservations: map[string]*domain.Reservation{},
		requests:     map[string]*domain.NotificationRequest{},
	}
}

func (s *fakeStore) CreateReservation(_ context.Context, r *domain.Reservation) error {
	if s.createErr != nil {
		return s.createErr
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.reservations[r.ID] = r
	return nil
}

func (s *fakeStore) GetReservation(_ context.Context, id string) (*domain.Reservation, error) {
	r, okr := s.reservations[id]
	if !okr {
		return nil, repo.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) CreateRequest(_ context.Context, q *domain.NotificationRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.requests[q.ID] = q
	return nil
}

func (s *fakeStore) CreateReview(_ context.Context, rv *domain.Review) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.reviews = append(s.reviews, rv)
	return nil
}

func (s *fakeStore) GetBucketHotness(_ context.Context, _, _, _ string) (float64, error) {
	return s.bucketScore, nil
}

type fakeMatch struct {
	resCount int
	reqCount int
	err      error
	lastRes  *domain.Reservation
	lastReq  *domain.NotificationRequest
}

func (m *fakeMatch) MatchReservation(_ context.Context, res *domain.Reservation) (int, error) {
	m.lastRes = res
	return m.resCount, m.err
}

func (m *fakeMatch) MatchRequest(_ context.Context, req *domain.NotificationRequest) (int, error) {
	m.lastReq = req
	return m.reqCount, m.err
}

type fakeHot struct {
	count int
	err   error
	last  *domain.Reservation
}

func (h *fakeHot) DispatchHotNotifications(_ context.Context, res *domain.Reservation) (int, error) {
	h.last = res
	return h.count, h.err
}

type fakeHotness struct {
	score float64
	err   error
	calls []string
}

func (h *fakeHotness) RecalcBucket(_ context.Context, restaurant, day, slot string) (float64, error) {
	h.calls = append(h.calls, restaurant+"/"+day+"/"+slot)
	return h.score, h.err
}

type fakePickup struct {
	err  error
	last *domain.Reservation
}

func (p *fakePickup) NotifyPicked(_ context.Context, res *domain.Reservation) error {
	p.last = res
	return p.err
}

//
// Helpers
//

type testEnv struct {
	store   *fakeStore
	match   *fakeMatch
	hot     *fakeHot
	hotness *fakeHotness
	pickup  *fakePickup
	archive *fakeArchive
	stats   *fakeStats
	maint   *fakeMaint
	router  *gin.Engine
}

func newTestEnv(now func() time.Time) *testEnv {
	env := &testEnv{
		store:   newFakeStore(),
		match:   &fakeMatch{},
		hot:     &fakeHot{},
		hotness: &fakeHotness{},
		pickup:  &fakePickup{},
		archive: &fakeArchive{},
		stats:   &fakeStats{},
		maint:   &fakeMaint{},
	}
	h := New(Deps{
		Store:       env.store,
		Match:       env.match,
		Hot:         env.hot,
		Hotness:     env.hotness,
		Pickup:      env.pickup,
		Archive:     env.archive,
		Stats:       env.stats,
		Maintenance: env.maint,
		Now:         now,
	})
	r := gin.New()
	r.POST("/events/reservations", h.CreateReservation)
	r.POST("/events/reservations/:id/picked", h.ReservationPicked)
	r.POST("/events/requests", h.CreateRequest)
	r.POST("/events/reviews", h.CreateReview)
	r.POST("/cron/archive/reservations", h.ArchiveReservations)
	r.POST("/cron/archive/requests", h.ArchiveRequests)
	r.POST("/cron/stats/daily", h.AggregateDaily)
	r.POST("/cron/maintenance/stars", h.DecayStars)
	r.POST("/cron/maintenance/uploads", h.ResetUploadQuota)
	r.POST("/cron/maintenance/spam", h.HandleSpammers)
	env.router = r
	return env
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

//
// Tests
//

func TestCreateReservation_StampsMatchesAndFansOut(t *testing.T) {
	env := newTestEnv(nil)
	env.store.bucketScore = 8.4
	env.match.resCount = 2
	env.hot.count = 3

	w := doJSON(t, env.router, http.MethodPost, "/events/reservations", gin.H{
		"user_id":       "u1",
		"restaurant":    "golden duck",
		"branch":        "downtown",
		"date":          "2026/09/04 20:00",
		"num_of_people": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp CreateReservationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MatchesNotified != 2 || resp.HotNotified != 3 {
		t.Errorf("counts = %d/%d, want 2/3", resp.MatchesNotified, resp.HotNotified)
	}
	if resp.Reservation.Hotness != 8 {
		t.Errorf("Hotness = %d, want 8 (rounded bucket score)", resp.Reservation.Hotness)
	}
	if env.match.lastRes == nil || env.hot.last == nil {
		t.Fatalf("match/hot services not invoked")
	}
	if env.match.lastRes.ID == "" {
		t.Errorf("reservation should be persisted before matching")
	}
}

func TestCreateReservation_RejectsBadDate(t *testing.T) {
	env := newTestEnv(nil)

	w := doJSON(t, env.router, http.MethodPost, "/events/reservations", gin.H{
		"user_id":       "u1",
		"restaurant":    "golden duck",
		"branch":        "downtown",
		"date":          "next friday",
		"num_of_people": 4,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(env.store.reservations) != 0 {
		t.Errorf("nothing should be persisted on a bad date")
	}
}

func TestCreateReservation_MatchErrorIs500(t *testing.T) {
	env := newTestEnv(nil)
	env.match.err = errors.New("boom")

	w := doJSON(t, env.router, http.MethodPost, "/events/reservations", gin.H{
		"user_id":       "u1",
		"restaurant":    "golden duck",
		"branch":        "downtown",
		"date":          "2026/09/04 20:00",
		"num_of_people": 4,
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Code != ErrCodeMatchFailed {
		t.Errorf("code = %q, want %q", er.Code, ErrCodeMatchFailed)
	}
}

func TestCreateRequest_WildcardsAndImmediateMatch(t *testing.T) {
	env := newTestEnv(nil)
	env.match.reqCount = 1

	w := doJSON(t, env.router, http.MethodPost, "/events/requests", gin.H{
		"user_id":       "u2",
		"num_of_people": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp CreateRequestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MatchesNotified != 1 {
		t.Errorf("MatchesNotified = %d, want 1", resp.MatchesNotified)
	}
	if !resp.Request.Restaurant.Any() || !resp.Request.Branch.Any() || !resp.Request.Date.Any() {
		t.Errorf("omitted fields should be wildcards: %+v", resp.Request)
	}
	if !resp.Request.Active {
		t.Errorf("new requests start active")
	}
}

func TestCreateRequest_FlexibleNeedsDate(t *testing.T) {
	env := newTestEnv(nil)

	w := doJSON(t, env.router, http.MethodPost, "/events/requests", gin.H{
		"user_id":       "u2",
		"is_flexible":   true,
		"num_of_people": 2,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateReview_RecalculatesBucket(t *testing.T) {
	env := newTestEnv(nil)
	env.hotness.score = 6.5

	w := doJSON(t, env.router, http.MethodPost, "/events/reviews", gin.H{
		"user_id":    "u3",
		"restaurant": "golden duck",
		"day":        "Friday",
		"slot":       "evening",
		"busy_rate":  7.0,
		"rate":       6.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp CreateReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Hotness != 6.5 {
		t.Errorf("Hotness = %v, want 6.5", resp.Hotness)
	}
	if len(env.hotness.calls) != 1 || env.hotness.calls[0] != "golden duck/Friday/evening" {
		t.Errorf("recalc calls = %v", env.hotness.calls)
	}
}

func TestCreateReview_RejectsOutOfRangeRates(t *testing.T) {
	env := newTestEnv(nil)

	w := doJSON(t, env.router, http.MethodPost, "/events/reviews", gin.H{
		"user_id":    "u3",
		"restaurant": "golden duck",
		"day":        "Friday",
		"slot":       "evening",
		"busy_rate":  11.0,
		"rate":       5.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(env.hotness.calls) != 0 {
		t.Errorf("no recalc should run for rejected input")
	}
}

func TestReservationPicked_NotifiesOwner(t *testing.T) {
	env := newTestEnv(nil)
	res := &domain.Reservation{ID: "r1", UserID: "owner"}
	env.store.reservations["r1"] = res

	w := doJSON(t, env.router, http.MethodPost, "/events/reservations/r1/picked", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if env.pickup.last != res {
		t.Errorf("pickup service should receive the stored reservation")
	}
}

func TestReservationPicked_UnknownIDIs404(t *testing.T) {
	env := newTestEnv(nil)

	w := doJSON(t, env.router, http.MethodPost, "/events/reservations/ghost/picked", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", er.Code, ErrCodeNotFound)
	}
}

func TestClampHotness(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{-1.2, 0},
		{0, 0},
		{4.4, 4},
		{4.5, 5},
		{8.5, 9},
		{10.9, 10},
	}
	for _, tc := range cases {
		if got := clampHotness(tc.score); got != tc.want {
			t.Errorf("clampHotness(%v) = %d, want %d", tc.score, got, tc.want)
		}
	}
}
