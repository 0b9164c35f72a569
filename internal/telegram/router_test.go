package telegram

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// stubUsers serves Get only; the state derivation touches nothing else.
type stubUsers struct {
	store.EnrollmentRepo
	e *domain.Enrollment
}

func (s *stubUsers) Get(_ context.Context, userID int64) (*domain.Enrollment, error) {
	if s.e == nil || s.e.UserID != userID {
		return nil, fmt.Errorf("enrollment %d: %w", userID, store.ErrNotFound)
	}
	return s.e, nil
}

func routerWith(e *domain.Enrollment) *Router {
	return &Router{
		log:   zap.NewNop(),
		users: &stubUsers{e: e},
		state: make(map[int64]flowState),
	}
}

func TestFlowState_DerivedFromEnrollment(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		e    *domain.Enrollment
		want flowState
	}{
		{"unregistered", nil, stateIdle},
		{"fresh", &domain.Enrollment{UserID: 1}, stateAwaitingCourse},
		{"course only", &domain.Enrollment{UserID: 1, Course: "Lvl 100"}, stateAwaitingGroup},
		{"needs sub-group", &domain.Enrollment{UserID: 1, Course: "Lvl 100", Group: "Comp Eng"}, stateAwaitingSubGroup},
		{"configured split course", &domain.Enrollment{UserID: 1, Course: "Lvl 100", Group: "Comp Eng", SubGroup: "Eng A"}, stateIdle},
		{"configured plain course", &domain.Enrollment{UserID: 1, Course: "Lvl 200", Group: "Comp Eng"}, stateIdle},
	}
	for _, c := range cases {
		r := routerWith(c.e)
		if got := r.flowStateFor(ctx, 1); got != c.want {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, got)
		}
	}
}

func TestFlowState_InMemoryWins(t *testing.T) {
	// A chat mid-way through /reminders keeps its step even though the
	// enrollment itself is fully configured.
	r := routerWith(&domain.Enrollment{UserID: 1, Course: "Lvl 200", Group: "Comp Eng"})
	r.setState(1, stateAwaitingReminderChoice)
	if got := r.flowStateFor(context.Background(), 1); got != stateAwaitingReminderChoice {
		t.Fatalf("want in-memory state, got %v", got)
	}
}

func TestSetState_IdleClearsEntry(t *testing.T) {
	r := routerWith(nil)
	r.setState(1, stateAwaitingCourse)
	r.setState(1, stateIdle)
	if len(r.state) != 0 {
		t.Fatalf("idle must clear the map, got %v", r.state)
	}
}
