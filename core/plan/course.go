// Package plan sorts the courses of a degree audit into a year-by-year academic plan.
//
// Everything in here is a pure function over its input: a plan is rebuilt from scratch
// for every audit and nothing is kept between calls.
package plan

import (
	"math"
	"strings"
	"unicode"
)

// DefaultCredits is the weight of a course whose credits are unknown.
const DefaultCredits = 3.0

// Status is the canonical classification of a course's free-text status.
type Status string

const (
	StatusTaken      Status = "taken"
	StatusInProgress Status = "in-progress"
	StatusNotUsed    Status = "not-used"
	StatusRemaining  Status = "remaining"
	StatusUnknown    Status = "unknown"
)

// Label used for courses placed from the remaining pool.
const remainingLabel = "Remaining"

// NormalizeStatus maps a raw status ("Completed", "IP", "Not Used", "Planned"...) to its canonical tag.
// Matching is case-insensitive and by substring, in this order:
// taken/complete, progress, not used, remain/plan. Anything else, empty included, is unknown.
func NormalizeStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusUnknown
	case s == "COMP" || strings.Contains(s, "TAKEN") || strings.Contains(s, "COMPLETE"):
		return StatusTaken
	case s == "IP" || strings.Contains(s, "PROGRESS"):
		return StatusInProgress
	case strings.Contains(s, "NOT USED"):
		return StatusNotUsed
	case strings.Contains(s, "REMAIN") || strings.Contains(s, "PLAN"):
		return StatusRemaining
	default:
		return StatusUnknown
	}
}

// Course is a single extracted course. Every field is optional.
type Course struct {
	Code    string  `json:"code"`
	Title   string  `json:"title"`
	Credits float64 `json:"credits"`
	Status  string  `json:"status"`
	Term    string  `json:"term"`
	Year    string  `json:"year"`
	Grade   string  `json:"grade"`
}

// Units returns the course weight, DefaultCredits when missing or unusable.
func (c Course) Units() float64 {
	if c.Credits > 0 && !math.IsInf(c.Credits, 0) {
		return c.Credits
	}
	return DefaultCredits
}

func (c Course) Tag() Status {
	return NormalizeStatus(c.Status)
}

// Key identifies a course by its code, ignoring case and spacing ("cmpsc  131" == "CMPSC 131").
func (c Course) Key() string {
	return strings.Join(strings.Fields(strings.ToUpper(c.Code)), " ")
}

// Label is the display text of a course.
func (c Course) Label() string {
	code := strings.TrimSpace(c.Code)
	title := strings.TrimSpace(c.Title)
	switch {
	case code != "" && title != "":
		return code + " " + title
	case code != "":
		return code
	case title != "":
		return title
	default:
		return "(Unnamed course)"
	}
}

// TermCode returns the semester code found in Term: FA, SP, SU or "".
// "FA 2023", "Year 1 FA", "FA2023" and "Fall 2023" all give FA.
func (c Course) TermCode() string {
	tokens := strings.FieldsFunc(strings.ToUpper(c.Term), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		switch tok {
		case "FA", "FALL":
			return "FA"
		case "SP", "SPRING":
			return "SP"
		case "SU", "SUMMER":
			return "SU"
		}
	}
	return ""
}

// Credits sums the units of courses.
func Credits(courses []Course) float64 {
	var total float64
	for _, c := range courses {
		total += c.Units()
	}
	return total
}
