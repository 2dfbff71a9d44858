package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

type fakeHotnessRepo struct {
	mu sync.Mutex

	reviews    []domain.Review
	reviewsErr error

	users map[string]*domain.User

	savedHotness float64
	saveCount    int
	saveErr      error

	reservations []domain.Reservation
	stamped      map[string]int
	missingIDs   map[string]bool // updates that report not-found
}

func (f *fakeHotnessRepo) ListReviewsForBucket(_ context.Context, _ *gorm.DB, _, _, _ string) ([]domain.Review, error) {
	return f.reviews, f.reviewsErr
}

func (f *fakeHotnessRepo) GetUser(_ context.Context, _ *gorm.DB, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeHotnessRepo) SaveBucketHotness(_ context.Context, _ *gorm.DB, _, _, _ string, hotness float64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedHotness = hotness
	f.saveCount++
	return nil
}

func (f *fakeHotnessRepo) ListReservationsByRestaurant(_ context.Context, _ *gorm.DB, _ string) ([]domain.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeHotnessRepo) UpdateReservationHotness(_ context.Context, _ *gorm.DB, id string, hotness int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missingIDs[id] {
		return gorm.ErrRecordNotFound
	}
	if f.stamped == nil {
		f.stamped = map[string]int{}
	}
	f.stamped[id] = hotness
	return nil
}

func TestRecalcBucket_SinglePassWeightedMean(t *testing.T) {
	repo := &fakeHotnessRepo{
		reviews: []domain.Review{
			{UserID: "reliable", BusyRate: 1.0, Rate: 1.0},
			{UserID: "flaky", BusyRate: 0.0, Rate: 0.0},
		},
		users: map[string]*domain.User{
			"reliable": {ID: "reliable", Reliability: 100}, // weight 5
			"flaky":    {ID: "flaky", Reliability: 40},     // weight 2
		},
	}
	s := NewHotnessService(nil, repo)

	got, err := s.RecalcBucket(context.Background(), "Taizu", "Monday", "evening")
	if err != nil {
		t.Fatalf("RecalcBucket: %v", err)
	}
	want := 5.0 / 7.0 // (5*1.0 + 2*0.0) / (5+2)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("hotness = %v; want %v", got, want)
	}
	if repo.saveCount != 1 {
		t.Fatalf("bucket written %d times; want exactly 1 (single-pass mean)", repo.saveCount)
	}
	if math.Abs(repo.savedHotness-want) > 1e-9 {
		t.Fatalf("stored hotness = %v; want %v", repo.savedHotness, want)
	}
}

func TestRecalcBucket_UnknownAuthorWeighsZero(t *testing.T) {
	repo := &fakeHotnessRepo{
		reviews: []domain.Review{
			{UserID: "ghost", BusyRate: 10, Rate: 10},
			{UserID: "reliable", BusyRate: 4, Rate: 4},
		},
		users: map[string]*domain.User{
			"reliable": {ID: "reliable", Reliability: 80},
		},
	}
	s := NewHotnessService(nil, repo)

	got, err := s.RecalcBucket(context.Background(), "Taizu", "Monday", "evening")
	if err != nil {
		t.Fatal(err)
	}
	// The ghost review must not move the mean: only "reliable" counts.
	if math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("hotness = %v; want 4.0", got)
	}
}

func TestRecalcBucket_NoReviewsYieldsZero(t *testing.T) {
	repo := &fakeHotnessRepo{}
	s := NewHotnessService(nil, repo)

	got, err := s.RecalcBucket(context.Background(), "Taizu", "Monday", "evening")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("hotness = %v; want 0", got)
	}
	if repo.saveCount != 1 {
		t.Fatalf("empty bucket should still be written once; got %d", repo.saveCount)
	}
}

func TestRecalcBucket_RestampsMatchingReservations(t *testing.T) {
	repo := &fakeHotnessRepo{
		reviews: []domain.Review{{UserID: "reliable", BusyRate: 8, Rate: 9}},
		users:   map[string]*domain.User{"reliable": {ID: "reliable", Reliability: 100}},
		reservations: []domain.Reservation{
			{ID: "match", Day: "Monday", Slot: "evening", Hotness: 3},
			{ID: "other-slot", Day: "Monday", Slot: "noon", Hotness: 3},
			{ID: "other-day", Day: "Friday", Slot: "evening", Hotness: 3},
		},
	}
	s := NewHotnessService(nil, repo)

	got, err := s.RecalcBucket(context.Background(), "Taizu", "Monday", "evening")
	if err != nil {
		t.Fatal(err)
	}
	// 0.6*8 + 0.4*9 = 8.4 with a single full-weight reviewer.
	if math.Abs(got-8.4) > 1e-9 {
		t.Fatalf("hotness = %v; want 8.4", got)
	}
	if len(repo.stamped) != 1 {
		t.Fatalf("stamped = %v; want only the matching reservation", repo.stamped)
	}
	if repo.stamped["match"] != 8 {
		t.Fatalf("stamp = %d; want 8 (rounded)", repo.stamped["match"])
	}
}

func TestRestampReservations_SkipsArchivedRows(t *testing.T) {
	repo := &fakeHotnessRepo{
		reservations: []domain.Reservation{
			{ID: "gone", Day: "Monday", Slot: "evening"},
			{ID: "here", Day: "Monday", Slot: "evening"},
		},
		missingIDs: map[string]bool{"gone": true},
	}
	s := NewHotnessService(nil, repo)

	if err := s.RestampReservations(context.Background(), "Taizu", "Monday", "evening", 9.2); err != nil {
		t.Fatalf("a row archived mid-flight must not fail the restamp: %v", err)
	}
	if repo.stamped["here"] != 9 {
		t.Fatalf("stamped = %v", repo.stamped)
	}
}

func TestRestampReservations_ClampsToDomain(t *testing.T) {
	repo := &fakeHotnessRepo{
		reservations: []domain.Reservation{{ID: "r", Day: "Monday", Slot: "evening"}},
	}
	s := NewHotnessService(nil, repo)

	if err := s.RestampReservations(context.Background(), "Taizu", "Monday", "evening", 14.0); err != nil {
		t.Fatal(err)
	}
	if repo.stamped["r"] != 10 {
		t.Fatalf("stamp = %d; want clamp to 10", repo.stamped["r"])
	}
}

func TestRecalcBucket_ErrorPropagation(t *testing.T) {
	sentinel := errors.New("store down")
	s := NewHotnessService(nil, &fakeHotnessRepo{reviewsErr: sentinel})
	if _, err := s.RecalcBucket(context.Background(), "Taizu", "Monday", "evening"); !errors.Is(err, sentinel) {
		t.Fatalf("expected reviews error, got %v", err)
	}

	s2 := NewHotnessService(nil, &fakeHotnessRepo{saveErr: sentinel})
	if _, err := s2.RecalcBucket(context.Background(), "Taizu", "Monday", "evening"); !errors.Is(err, sentinel) {
		t.Fatalf("expected save error, got %v", err)
	}
}
