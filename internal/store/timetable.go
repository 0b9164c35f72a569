package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gfredtech/ScheduleBot/internal/domain"
)

// Timetable implements TimetableRepo on SQLite. The catalogue is read-only
// after load; the mutex still serializes access so queries never interleave
// with another caller's use of the shared connection.
type Timetable struct {
	db *sql.DB
	mu sync.Mutex
}

var _ TimetableRepo = (*Timetable)(nil)

func (t *Timetable) CourseLessons(ctx context.Context, course string, day time.Weekday) ([]domain.Lesson, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT `+lessonColumns+`
		FROM course_lessons
		WHERE course = ? AND day = ?`,
		course, int(day),
	)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

func (t *Timetable) GroupLessons(ctx context.Context, course, group string, day time.Weekday) ([]domain.Lesson, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT `+lessonColumns+`
		FROM group_lessons
		WHERE course = ? AND lesson_group = ? AND day = ?`,
		course, group, int(day),
	)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

func (t *Timetable) SubjectGroupLessons(ctx context.Context, course, group, subject string, day time.Weekday) ([]domain.Lesson, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT `+lessonColumns+`
		FROM group_lessons
		WHERE course = ? AND lesson_group = ? AND subject = ? AND day = ?`,
		course, group, subject, int(day),
	)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

// DistinctStartTimes unions the start columns of both tables. The result
// drives the reminder fire-time grid computed once at startup.
func (t *Timetable) DistinctStartTimes(ctx context.Context) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT start_time FROM course_lessons
		UNION
		SELECT start_time FROM group_lessons`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []int
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		m, err := domain.ParseHHMM(s)
		if err != nil {
			return nil, fmt.Errorf("catalogue start %q: %w", s, err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Ints(res)
	return res, nil
}
