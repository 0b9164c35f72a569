package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayLabels = [...]string{"Mo", "Tu", "We", "Th", "Fr", "Sa"}

// ParseHHMM parses "HH:MM" into minutes since midnight.
func ParseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("invalid minute")
	}
	return h*60 + m, nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
// Negative values wrap to the previous day, so a lead time subtracted from
// an early start still formats as a valid clock reading.
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins += 24 * 60
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// WeekdayLabel returns the two-letter button label for a teaching day,
// or "" for Sunday.
func WeekdayLabel(d time.Weekday) string {
	if d < time.Monday || d > time.Saturday {
		return ""
	}
	return weekdayLabels[d-time.Monday]
}

// ParseWeekday maps a two-letter label back to a weekday. Sunday has no
// label; there are no Sunday lessons.
func ParseWeekday(s string) (time.Weekday, bool) {
	for i, label := range weekdayLabels {
		if s == label {
			return time.Monday + time.Weekday(i), true
		}
	}
	return 0, false
}
