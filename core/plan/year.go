package plan

import "regexp"

// Year is a plan bucket index: 1-4 are regular years, FifthYear takes the overflow.
type Year int

const (
	FirstYear Year = iota + 1
	SecondYear
	ThirdYear
	FourthYear
	FifthYear
)

// NumYears is the number of regular years the remaining pool is spread over.
const NumYears = 4

var yearNames = map[Year]string{
	FirstYear:  "First Year",
	SecondYear: "Second Year",
	ThirdYear:  "Third Year",
	FourthYear: "Fourth Year",
	FifthYear:  "Fifth Year",
}

func (y Year) String() string {
	if name, ok := yearNames[y]; ok {
		return name
	}
	return "Unassigned"
}

var (
	yearDigitRegex = regexp.MustCompile(`[1-4]`)
	termYearRegex  = regexp.MustCompile(`(?i)\byear\s*([1-4])\b`)
)

// ClassifyYear picks the year a taken / in-progress course belongs to.
// Explicit signals win over inferred ones:
//  1. a digit 1-4 in Year ("Year 3", "3", "third (3)")
//  2. a "Year N" token in Term ("Year 2 SP")
//  3. in-progress courses default to the second year
//  4. anything else defaults to the first year
//
// Not-used courses are never placed in a year; ok is false for them.
func ClassifyYear(c Course) (year Year, ok bool) {
	tag := c.Tag()
	if tag == StatusNotUsed {
		return 0, false
	}
	if d := yearDigitRegex.FindString(c.Year); d != "" {
		return Year(d[0] - '0'), true
	}
	if m := termYearRegex.FindStringSubmatch(c.Term); m != nil {
		return Year(m[1][0] - '0'), true
	}
	if tag == StatusInProgress {
		return SecondYear, true
	}
	return FirstYear, true
}
