package store

import (
	"database/sql"
	"fmt"

	"github.com/gfredtech/ScheduleBot/internal/domain"
)

// lessonColumns is the projection shared by both timetable tables.
const lessonColumns = "subject, kind, instructor, instructor_gender, start_time, end_time, room"

// scanLessons converts catalogue rows into domain lessons. All mapping from
// persisted columns to the typed record happens here: times are stored as
// HH:MM text, kind and gender as small integers.
func scanLessons(rows *sql.Rows) ([]domain.Lesson, error) {
	defer rows.Close()

	var res []domain.Lesson
	for rows.Next() {
		var (
			subject    string
			kind       int
			instructor string
			gender     int
			start      string
			end        string
			room       string
		)
		if err := rows.Scan(&subject, &kind, &instructor, &gender, &start, &end, &room); err != nil {
			return nil, err
		}

		startM, err := domain.ParseHHMM(start)
		if err != nil {
			return nil, fmt.Errorf("catalogue row %q: start %q: %w", subject, start, err)
		}
		endM, err := domain.ParseHHMM(end)
		if err != nil {
			return nil, fmt.Errorf("catalogue row %q: end %q: %w", subject, end, err)
		}
		if startM >= endM {
			return nil, fmt.Errorf("catalogue row %q: start %s not before end %s", subject, start, end)
		}
		if kind < int(domain.Lecture) || kind > int(domain.Other) {
			return nil, fmt.Errorf("catalogue row %q: unknown kind %d", subject, kind)
		}

		res = append(res, domain.Lesson{
			Subject:          subject,
			Kind:             domain.Kind(kind),
			Instructor:       instructor,
			InstructorGender: domain.Gender(gender),
			StartM:           startM,
			EndM:             endM,
			Room:             room,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// scanEnrollment reads one users row.
func scanEnrollment(row interface{ Scan(...any) error }) (*domain.Enrollment, error) {
	var (
		e      domain.Enrollment
		remInt int
	)
	if err := row.Scan(&e.UserID, &e.Alias, &e.Course, &e.Group, &e.SubGroup, &remInt); err != nil {
		return nil, err
	}
	e.RemindersEnabled = remInt != 0
	return &e, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
