package domain

import "sort"

// Enrollment holds one user's course membership and reminder preference.
// Course, Group and SubGroup stay empty until the user walks through the
// configuration flow.
type Enrollment struct {
	UserID           int64
	Alias            string // telegram alias, resynced opportunistically
	Course           string
	Group            string
	SubGroup         string
	RemindersEnabled bool
}

// Configured reports whether the enrollment can be resolved against the
// timetable: course and group are set, plus a sub-group whenever the course
// splits a subject into sub-groups.
func (e Enrollment) Configured() bool {
	if e.Course == "" || e.Group == "" {
		return false
	}
	if p, ok := Courses[e.Course]; ok && p.RequiresSubGroup() {
		return e.SubGroup != ""
	}
	return true
}

// CoursePolicy describes one registered course: its groups and, optionally,
// a subject that is taught in sub-groups cutting across the main groups.
type CoursePolicy struct {
	Groups          []string
	SubGroupSubject string // empty: no sub-group split for this course
	SubGroups       []string
}

// RequiresSubGroup reports whether enrollments in this course need a
// sub-group before they count as configured.
func (p CoursePolicy) RequiresSubGroup() bool { return p.SubGroupSubject != "" }

// Courses is the registry of courses open for configuration. First years
// share English classes split by sub-group rather than by major.
var Courses = map[string]CoursePolicy{
	"Lvl 100": {
		Groups:          []string{"Telecom Eng", "Comp Eng"},
		SubGroupSubject: "English",
		SubGroups:       []string{"Eng A", "Eng B"},
	},
	"Lvl 200": {Groups: []string{"Telecom Eng", "Comp Eng"}},
	"Lvl 300": {Groups: []string{"Telecom Eng", "Comp Eng"}},
	"Lvl 400": {Groups: []string{"Telecom Eng", "Comp Eng"}},
}

// CourseNames returns the registered course names in stable order for
// keyboard rendering.
func CourseNames() []string {
	names := make([]string, 0, len(Courses))
	for name := range Courses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
