package domain

import (
	"math"
	"time"
)

// CurrentLesson returns the lesson going on at now, or nil. Lessons must be
// sorted; with an overlapping catalogue the first match by sort order wins.
func CurrentLesson(lessons []Lesson, now time.Time) *Lesson {
	sec := secondsOfDay(now)
	for i := range lessons {
		if lessons[i].StartM*60 <= sec && sec < lessons[i].EndM*60 {
			return &lessons[i]
		}
	}
	return nil
}

// NextLesson returns the first lesson starting after now, or nil.
func NextLesson(lessons []Lesson, now time.Time) *Lesson {
	sec := secondsOfDay(now)
	for i := range lessons {
		if sec < lessons[i].StartM*60 {
			return &lessons[i]
		}
	}
	return nil
}

// MinutesUntilStart is the signed countdown to the lesson start, rounded to
// the nearest minute. Negative once the lesson has begun.
func (l Lesson) MinutesUntilStart(now time.Time) int {
	return roundMinutes(l.StartM*60 - secondsOfDay(now))
}

// MinutesUntilEnd is the signed countdown to the lesson end, rounded to the
// nearest minute.
func (l Lesson) MinutesUntilEnd(now time.Time) int {
	return roundMinutes(l.EndM*60 - secondsOfDay(now))
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func roundMinutes(sec int) int {
	return int(math.Round(float64(sec) / 60))
}
