// Package schedule joins the timetable catalogue with enrollments: it
// resolves which lessons apply to a user on a day, classifies them against
// the clock, and answers who is due a reminder right now.
package schedule

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gfredtech/ScheduleBot/internal/domain"
	"github.com/gfredtech/ScheduleBot/internal/store"
)

// Reminder pairs a user with the lesson they should be reminded about.
type Reminder struct {
	UserID int64
	Lesson domain.Lesson
}

// Service answers schedule queries. Safe for concurrent use; it holds no
// state of its own beyond the injected repos and clock.
type Service struct {
	timetable store.TimetableRepo
	users     store.EnrollmentRepo
	log       *zap.Logger

	now       func() time.Time
	lead      int // minutes before start at which a reminder fires
	tolerance int // minutes of sweep jitter to forgive
}

// New creates a Service. lead and tolerance are in minutes.
func New(timetable store.TimetableRepo, users store.EnrollmentRepo, log *zap.Logger, lead, tolerance int) *Service {
	return &Service{
		timetable: timetable,
		users:     users,
		log:       log,
		now:       time.Now,
		lead:      lead,
		tolerance: tolerance,
	}
}

// Resolve returns the user's lessons for a weekday, sorted by start time.
// Unregistered or unconfigured users resolve to an empty day; rejecting them
// is the caller's call.
func (s *Service) Resolve(ctx context.Context, userID int64, day time.Weekday) ([]domain.Lesson, error) {
	e, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !e.Configured() {
		return nil, nil
	}

	lessons, err := s.timetable.CourseLessons(ctx, e.Course, day)
	if err != nil {
		return nil, err
	}

	group, err := s.timetable.GroupLessons(ctx, e.Course, e.Group, day)
	if err != nil {
		return nil, err
	}
	lessons = append(lessons, group...)

	// Subjects split by sub-group live in the group table under the
	// sub-group name and are fetched per subject.
	if p := domain.Courses[e.Course]; p.RequiresSubGroup() {
		sub, err := s.timetable.SubjectGroupLessons(ctx, e.Course, e.SubGroup, p.SubGroupSubject, day)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, sub...)
	}

	domain.SortLessons(lessons)
	return lessons, nil
}

// Current returns the user's lesson going on right now, or nil.
func (s *Service) Current(ctx context.Context, userID int64) (*domain.Lesson, error) {
	now := s.now()
	lessons, err := s.Resolve(ctx, userID, now.Weekday())
	if err != nil {
		return nil, err
	}
	return domain.CurrentLesson(lessons, now), nil
}

// Next returns the user's first lesson still ahead today, or nil.
func (s *Service) Next(ctx context.Context, userID int64) (*domain.Lesson, error) {
	now := s.now()
	lessons, err := s.Resolve(ctx, userID, now.Weekday())
	if err != nil {
		return nil, err
	}
	return domain.NextLesson(lessons, now), nil
}

// IsRegistered reports whether the user has an enrollment record at all.
func (s *Service) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	_, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsConfigured reports whether the user's enrollment satisfies the
// completeness invariant. False, not an error, for unregistered users.
func (s *Service) IsConfigured(ctx context.Context, userID int64) (bool, error) {
	e, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Configured(), nil
}

// DueReminders scans a snapshot of reminder-enabled enrollments and returns
// every user whose next lesson starts the configured lead time from now,
// within tolerance. A failing record is logged and skipped; it never aborts
// the scan for the rest.
func (s *Service) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	users, err := s.users.ListWithReminders(ctx)
	if err != nil {
		return nil, err
	}

	var due []Reminder
	for _, u := range users {
		if !u.Configured() {
			continue
		}
		lessons, err := s.Resolve(ctx, u.UserID, now.Weekday())
		if err != nil {
			s.log.Error("resolve failed during sweep", zap.Int64("userID", u.UserID), zap.Error(err))
			continue
		}
		next := domain.NextLesson(lessons, now)
		if next == nil {
			continue
		}
		if abs(next.MinutesUntilStart(now)-s.lead) <= s.tolerance {
			due = append(due, Reminder{UserID: u.UserID, Lesson: *next})
		}
	}
	return due, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
