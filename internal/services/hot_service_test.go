package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"gorm.io/gorm"

	"github.com/yuvalkaspi/reserveat-be/internal/domain"
)

type fakeHotRepo struct {
	users    []domain.User
	usersErr error
	gotMin   int
}

func (r *fakeHotRepo) ListUsersWithMinStars(_ context.Context, _ *gorm.DB, min int) ([]domain.User, error) {
	r.gotMin = min
	return r.users, r.usersErr
}

func starredUsers() []domain.User {
	return []domain.User{
		{ID: "zero", Stars: 0},
		{ID: "one", Stars: 1},
		{ID: "two", Stars: 2},
		{ID: "three", Stars: 3},
	}
}

func hotReservation(hotness int) *domain.Reservation {
	return &domain.Reservation{
		ID:         "res-hot",
		UserID:     "owner",
		Restaurant: "Taizu",
		Date:       "2024/05/20 20:00",
		Hotness:    hotness,
	}
}

func TestEligible_TierTable(t *testing.T) {
	cases := []struct {
		stars, hotness int
		want           bool
	}{
		{0, 7, false}, {0, 10, false},
		{1, 7, true}, {1, 8, false}, {1, 10, false},
		{2, 7, true}, {2, 8, true}, {2, 9, false},
		{3, 7, true}, {3, 8, true}, {3, 9, true}, {3, 10, true},
		{1, 6, false}, {2, 6, false}, {3, 6, false},
	}
	for _, c := range cases {
		if got := Eligible(c.stars, c.hotness); got != c.want {
			t.Errorf("Eligible(stars=%d, hotness=%d) = %v; want %v", c.stars, c.hotness, got, c.want)
		}
	}
}

func TestDispatch_BelowThresholdIsNoop(t *testing.T) {
	repo := &fakeHotRepo{users: starredUsers()}
	n := &fakeNotifier{}
	s := NewHotService(nil, repo, n)

	sent, err := s.DispatchHotNotifications(context.Background(), hotReservation(6))
	if err != nil || sent != 0 {
		t.Fatalf("sent=%d err=%v; want 0,nil", sent, err)
	}
	if len(n.recipients()) != 0 {
		t.Fatalf("no one should be notified below the threshold; got %v", n.recipients())
	}
}

func TestDispatch_FanOutByHotness(t *testing.T) {
	cases := map[int][]string{
		7:  {"one", "three", "two"},
		8:  {"three", "two"},
		9:  {"three"},
		10: {"three"},
	}
	for hotness, want := range cases {
		repo := &fakeHotRepo{users: starredUsers()}
		n := &fakeNotifier{}
		s := NewHotService(nil, repo, n)

		sent, err := s.DispatchHotNotifications(context.Background(), hotReservation(hotness))
		if err != nil {
			t.Fatalf("hotness=%d: %v", hotness, err)
		}
		got := n.recipients()
		sort.Strings(got)
		if len(got) != len(want) || sent != len(want) {
			t.Fatalf("hotness=%d recipients = %v; want %v", hotness, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("hotness=%d recipients = %v; want %v", hotness, got, want)
			}
		}
		if repo.gotMin != 1 {
			t.Fatalf("star range query used min=%d; want 1", repo.gotMin)
		}
	}
}

func TestDispatch_OwnerExcludedByDefault(t *testing.T) {
	users := append(starredUsers(), domain.User{ID: "owner", Stars: 3})
	repo := &fakeHotRepo{users: users}
	n := &fakeNotifier{}
	s := NewHotService(nil, repo, n)

	if _, err := s.DispatchHotNotifications(context.Background(), hotReservation(9)); err != nil {
		t.Fatal(err)
	}
	for _, r := range n.recipients() {
		if r == "owner" {
			t.Fatal("owner must be excluded from the fan-out by default")
		}
	}

	// Configurable: owner included when NotifyOwner is set.
	n2 := &fakeNotifier{}
	s2 := NewHotService(nil, &fakeHotRepo{users: users}, n2)
	s2.NotifyOwner = true
	if _, err := s2.DispatchHotNotifications(context.Background(), hotReservation(9)); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range n2.recipients() {
		if r == "owner" {
			found = true
		}
	}
	if !found {
		t.Fatal("owner should be included when NotifyOwner is set")
	}
}

func TestDispatch_SharedPayloadPerTier(t *testing.T) {
	repo := &fakeHotRepo{users: starredUsers()}
	n := &fakeNotifier{}
	s := NewHotService(nil, repo, n)

	if _, err := s.DispatchHotNotifications(context.Background(), hotReservation(7)); err != nil {
		t.Fatal(err)
	}
	for _, sn := range n.sent {
		if sn.payload.Data["reservationId"] != "res-hot" || sn.payload.Data["hotness"] != "7" {
			t.Fatalf("payload data = %v", sn.payload.Data)
		}
	}
}

func TestDispatch_RepoError(t *testing.T) {
	sentinel := errors.New("store down")
	s := NewHotService(nil, &fakeHotRepo{usersErr: sentinel}, &fakeNotifier{})
	if _, err := s.DispatchHotNotifications(context.Background(), hotReservation(8)); !errors.Is(err, sentinel) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDispatch_NotifyFailureFailsUnit(t *testing.T) {
	sentinel := errors.New("push gateway 503")
	n := &fakeNotifier{fail: map[string]error{"two": sentinel}}
	s := NewHotService(nil, &fakeHotRepo{users: starredUsers()}, n)

	if _, err := s.DispatchHotNotifications(context.Background(), hotReservation(8)); !errors.Is(err, sentinel) {
		t.Fatalf("expected notify error to fail the unit, got %v", err)
	}
}
