package domain

import "sort"

// Kind classifies a catalogue entry.
type Kind int

const (
	Lecture Kind = iota
	Tutorial
	Lab
	Other
)

// Label returns the short tag printed after the subject name ("Math Lec").
// Other has no tag.
func (k Kind) Label() string {
	switch k {
	case Lecture:
		return "Lec"
	case Tutorial:
		return "Tut"
	case Lab:
		return "Lab"
	default:
		return ""
	}
}

// Gender picks the instructor glyph in lesson cards. Display hint only.
type Gender int

const (
	Female Gender = iota
	Male
)

// Lesson is one timetable row. It is a plain value object identified by its
// attributes; times are wall-clock minutes since midnight and are resolved
// against "today" at query time.
type Lesson struct {
	Subject          string
	Kind             Kind
	Instructor       string
	InstructorGender Gender
	StartM           int // minutes since midnight, StartM < EndM
	EndM             int
	Room             string
}

// SortLessons orders lessons ascending by start time, breaking ties by
// subject so equal starts come out deterministic.
func SortLessons(ls []Lesson) {
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].StartM != ls[j].StartM {
			return ls[i].StartM < ls[j].StartM
		}
		return ls[i].Subject < ls[j].Subject
	})
}
