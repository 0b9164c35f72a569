package store

import (
	"context"
	"errors"
	"time"

	"github.com/gfredtech/ScheduleBot/internal/domain"
)

// Errors returned by store operations. Callers match them with errors.Is.
var (
	// ErrNotFound means the enrollment for the given user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means a duplicate registration was attempted.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState means a mutation needs a prerequisite field that is
	// not set, e.g. a sub-group for a course that has no sub-group split.
	ErrInvalidState = errors.New("invalid state")
)

// TimetableRepo reads the lesson catalogue. The catalogue is immutable for
// the term; unknown course/group combinations yield empty results, not
// errors.
type TimetableRepo interface {
	// CourseLessons returns the rows shared by the entire course on a day.
	CourseLessons(ctx context.Context, course string, day time.Weekday) ([]domain.Lesson, error)
	// GroupLessons returns the rows scoped to one group on a day.
	GroupLessons(ctx context.Context, course, group string, day time.Weekday) ([]domain.Lesson, error)
	// SubjectGroupLessons returns group-scoped rows for a single subject,
	// used for subjects split by sub-group.
	SubjectGroupLessons(ctx context.Context, course, group, subject string, day time.Weekday) ([]domain.Lesson, error)
	// DistinctStartTimes returns every distinct lesson start across the
	// whole catalogue, in minutes since midnight, sorted ascending.
	DistinctStartTimes(ctx context.Context) ([]int, error)
}

// EnrollmentRepo owns enrollment records. Every method is safe for
// concurrent use; reads never observe a partially applied update.
type EnrollmentRepo interface {
	// Register creates a fresh, unconfigured record. ErrAlreadyExists when
	// the user is already registered.
	Register(ctx context.Context, userID int64, alias string) error
	// Get returns the enrollment or ErrNotFound.
	Get(ctx context.Context, userID int64) (*domain.Enrollment, error)

	SetCourse(ctx context.Context, userID int64, course string) error
	SetGroup(ctx context.Context, userID int64, group string) error
	// SetSubGroup fails with ErrInvalidState when the user's course has no
	// sub-group split (or no course is set yet).
	SetSubGroup(ctx context.Context, userID int64, subGroup string) error
	SetRemindersEnabled(ctx context.Context, userID int64, enabled bool) error
	SetAlias(ctx context.Context, userID int64, alias string) error

	// Delete removes the record. Deleting an absent user is a no-op.
	Delete(ctx context.Context, userID int64) error

	// ListWithReminders returns a snapshot of all reminder-enabled records.
	ListWithReminders(ctx context.Context) ([]domain.Enrollment, error)
	// ListAll returns a snapshot of every record.
	ListAll(ctx context.Context) ([]domain.Enrollment, error)
}
