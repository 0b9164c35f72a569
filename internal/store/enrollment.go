package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/gfredtech/ScheduleBot/internal/domain"
)

const enrollmentColumns = "telegram_id, telegram_alias, course, course_group, sub_group, reminders_enabled"

// Enrollments implements EnrollmentRepo on SQLite. A single mutex serializes
// every read and write, so multi-field flows (check course, then update
// sub-group) never interleave with another writer.
type Enrollments struct {
	db *sql.DB
	mu sync.Mutex
}

var _ EnrollmentRepo = (*Enrollments)(nil)

func (r *Enrollments) Register(ctx context.Context, userID int64, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE telegram_id = ?`, userID).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("register %d: %w", userID, ErrAlreadyExists)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, telegram_alias, course, course_group, sub_group, reminders_enabled)
		VALUES (?, ?, '', '', '', 0)`,
		userID, alias,
	)
	return err
}

func (r *Enrollments) Get(ctx context.Context, userID int64) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, userID)
}

// get assumes the mutex is held.
func (r *Enrollments) get(ctx context.Context, userID int64) (*domain.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM users
		WHERE telegram_id = ?`,
		userID,
	)
	e, err := scanEnrollment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enrollment %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Enrollments) SetCourse(ctx context.Context, userID int64, course string) error {
	return r.setField(ctx, userID, "course", course)
}

func (r *Enrollments) SetGroup(ctx context.Context, userID int64, group string) error {
	return r.setField(ctx, userID, "course_group", group)
}

// SetSubGroup updates the sub-group. The user's course must have a
// sub-group split, otherwise the call reports ErrInvalidState.
func (r *Enrollments) SetSubGroup(ctx context.Context, userID int64, subGroup string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.get(ctx, userID)
	if err != nil {
		return err
	}
	policy, ok := domain.Courses[e.Course]
	if !ok || !policy.RequiresSubGroup() {
		return fmt.Errorf("enrollment %d: course %q takes no sub-group: %w", userID, e.Course, ErrInvalidState)
	}
	return r.update(ctx, userID, "sub_group", subGroup)
}

func (r *Enrollments) SetRemindersEnabled(ctx context.Context, userID int64, enabled bool) error {
	return r.setField(ctx, userID, "reminders_enabled", boolToInt(enabled))
}

func (r *Enrollments) SetAlias(ctx context.Context, userID int64, alias string) error {
	return r.setField(ctx, userID, "telegram_alias", alias)
}

// setField applies one atomic column update under the mutex.
func (r *Enrollments) setField(ctx context.Context, userID int64, column string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.update(ctx, userID, column, value)
}

// update assumes the mutex is held. The column name is always one of our
// fixed identifiers, never user input.
func (r *Enrollments) update(ctx context.Context, userID int64, column string, value any) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ? WHERE telegram_id = ?`,
		value, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("enrollment %d: %w", userID, ErrNotFound)
	}
	return nil
}

// Delete is idempotent: removing an absent user succeeds.
func (r *Enrollments) Delete(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE telegram_id = ?`, userID)
	return err
}

func (r *Enrollments) ListWithReminders(ctx context.Context) ([]domain.Enrollment, error) {
	return r.list(ctx, `
		SELECT `+enrollmentColumns+`
		FROM users
		WHERE reminders_enabled = 1
		ORDER BY telegram_id`)
}

func (r *Enrollments) ListAll(ctx context.Context) ([]domain.Enrollment, error) {
	return r.list(ctx, `
		SELECT `+enrollmentColumns+`
		FROM users
		ORDER BY telegram_id`)
}

func (r *Enrollments) list(ctx context.Context, query string) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
