package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/schedule"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// --- in-memory repos ---

type fakeTimetable struct {
	lessons map[time.Weekday][]domain.Lesson // course-wide rows for "Lvl 200"
}

func (f *fakeTimetable) CourseLessons(_ context.Context, course string, day time.Weekday) ([]domain.Lesson, error) {
	if course != "Lvl 200" {
		return nil, nil
	}
	return f.lessons[day], nil
}

func (f *fakeTimetable) GroupLessons(context.Context, string, string, time.Weekday) ([]domain.Lesson, error) {
	return nil, nil
}

func (f *fakeTimetable) SubjectGroupLessons(context.Context, string, string, string, time.Weekday) ([]domain.Lesson, error) {
	return nil, nil
}

func (f *fakeTimetable) DistinctStartTimes(context.Context) ([]int, error) {
	seen := map[int]bool{}
	var res []int
	for _, day := range f.lessons {
		for _, l := range day {
			if !seen[l.StartM] {
				seen[l.StartM] = true
				res = append(res, l.StartM)
			}
		}
	}
	return res, nil
}

type fakeEnrollments struct {
	mu      sync.Mutex
	records map[int64]domain.Enrollment
}

func (f *fakeEnrollments) Register(_ context.Context, id int64, alias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; ok {
		return store.ErrAlreadyExists
	}
	f.records[id] = domain.Enrollment{UserID: id, Alias: alias}
	return nil
}

func (f *fakeEnrollments) Get(_ context.Context, id int64) (*domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("enrollment %d: %w", id, store.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeEnrollments) SetCourse(context.Context, int64, string) error         { return nil }
func (f *fakeEnrollments) SetGroup(context.Context, int64, string) error          { return nil }
func (f *fakeEnrollments) SetSubGroup(context.Context, int64, string) error       { return nil }
func (f *fakeEnrollments) SetRemindersEnabled(context.Context, int64, bool) error { return nil }
func (f *fakeEnrollments) SetAlias(context.Context, int64, string) error          { return nil }

func (f *fakeEnrollments) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeEnrollments) ListWithReminders(context.Context) ([]domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Enrollment
	for _, e := range f.records {
		if e.RemindersEnabled {
			res = append(res, e)
		}
	}
	return res, nil
}

func (f *fakeEnrollments) ListAll(context.Context) ([]domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Enrollment
	for _, e := range f.records {
		res = append(res, e)
	}
	return res, nil
}

// captureSender records deliveries and can fail selected users.
type captureSender struct {
	sent     []int64
	failWith map[int64]error
}

func (c *captureSender) SendReminder(userID int64, _ domain.Lesson) error {
	if err := c.failWith[userID]; err != nil {
		return err
	}
	c.sent = append(c.sent, userID)
	return nil
}

// --- fixtures ---

func monday(hh, mm, ss int) time.Time {
	// 2025-09-01 is a Monday.
	return time.Date(2025, time.September, 1, hh, mm, ss, 0, time.Local)
}

func fixture(t *testing.T) (*Scheduler, *captureSender, *fakeEnrollments) {
	t.Helper()
	tt := &fakeTimetable{lessons: map[time.Weekday][]domain.Lesson{
		time.Monday: {
			{Subject: "Math", StartM: 9 * 60, EndM: 10*60 + 30},
			{Subject: "Signals", StartM: 11 * 60, EndM: 12*60 + 30},
		},
	}}
	en := &fakeEnrollments{records: map[int64]domain.Enrollment{
		1: {UserID: 1, Alias: "ada", Course: "Lvl 200", Group: "Comp Eng", RemindersEnabled: true},
		2: {UserID: 2, Alias: "alan", Course: "Lvl 200", Group: "Telecom Eng", RemindersEnabled: true},
	}}
	svc := schedule.New(tt, en, zap.NewNop(), 10, 1)
	sender := &captureSender{failWith: map[int64]error{}}
	s := New(tt, en, svc, zap.NewNop(), sender, 30*time.Second, 10)
	require.NoError(t, s.Init(context.Background()))
	return s, sender, en
}

// --- tests ---

func TestInit_FireGridFromCatalogueStarts(t *testing.T) {
	s, _, _ := fixture(t)

	assert.Len(t, s.fireAt, 2)
	_, ok := s.fireAt["08:50"]
	assert.True(t, ok, "09:00 start minus 10 min lead")
	_, ok = s.fireAt["10:50"]
	assert.True(t, ok, "11:00 start minus 10 min lead")
}

func TestTick_SweepsOnFireMinuteOnce(t *testing.T) {
	s, sender, _ := fixture(t)
	ctx := context.Background()

	s.now = func() time.Time { return monday(8, 50, 0) }
	s.tick(ctx)
	assert.ElementsMatch(t, []int64{1, 2}, sender.sent)

	// Second tick inside the same minute must not re-emit.
	s.now = func() time.Time { return monday(8, 50, 30) }
	s.tick(ctx)
	assert.Len(t, sender.sent, 2)
}

func TestTick_FireMinuteRecursNextDay(t *testing.T) {
	// A catalogue where every lesson starts at the same time collapses the
	// grid to a single wake minute. It must still fire every day.
	tt := &fakeTimetable{lessons: map[time.Weekday][]domain.Lesson{
		time.Monday:  {{Subject: "Math", StartM: 9 * 60, EndM: 10*60 + 30}},
		time.Tuesday: {{Subject: "Circuits", StartM: 9 * 60, EndM: 10*60 + 30}},
	}}
	en := &fakeEnrollments{records: map[int64]domain.Enrollment{
		1: {UserID: 1, Alias: "ada", Course: "Lvl 200", Group: "Comp Eng", RemindersEnabled: true},
	}}
	svc := schedule.New(tt, en, zap.NewNop(), 10, 1)
	sender := &captureSender{failWith: map[int64]error{}}
	s := New(tt, en, svc, zap.NewNop(), sender, 30*time.Second, 10)
	require.NoError(t, s.Init(context.Background()))
	require.Len(t, s.fireAt, 1)

	ctx := context.Background()
	s.now = func() time.Time { return monday(8, 50, 0) }
	s.tick(ctx)
	require.Equal(t, []int64{1}, sender.sent)

	// Off-grid ticks run for the rest of the day.
	s.now = func() time.Time { return monday(17, 0, 0) }
	s.tick(ctx)

	s.now = func() time.Time { return time.Date(2025, time.September, 2, 8, 50, 0, 0, time.Local) }
	s.tick(ctx)
	assert.Equal(t, []int64{1, 1}, sender.sent, "same wake minute must fire again the next day")
}

func TestTick_IgnoresNonFireMinutes(t *testing.T) {
	s, sender, _ := fixture(t)

	s.now = func() time.Time { return monday(8, 52, 0) }
	s.tick(context.Background())
	assert.Empty(t, sender.sent)
}

func TestSweep_DeletesGoneRecipient(t *testing.T) {
	s, sender, en := fixture(t)
	sender.failWith[2] = fmt.Errorf("forbidden: %w", ErrRecipientGone)

	s.sweep(context.Background(), monday(8, 50, 0))

	assert.Equal(t, []int64{1}, sender.sent)
	_, err := en.Get(context.Background(), 2)
	assert.True(t, errors.Is(err, store.ErrNotFound), "blocked user must be unenrolled")
}

func TestSweep_IsolatesTransientFailures(t *testing.T) {
	s, sender, en := fixture(t)
	sender.failWith[1] = errors.New("network hiccup")

	s.sweep(context.Background(), monday(8, 50, 0))

	// User 2 still gets the reminder; user 1 stays enrolled for next time.
	assert.Equal(t, []int64{2}, sender.sent)
	_, err := en.Get(context.Background(), 1)
	assert.NoError(t, err)
}
