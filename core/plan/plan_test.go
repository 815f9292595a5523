package plan

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func remainingCourses(n int, units float64) []Course {
	courses := make([]Course, 0, n)
	for i := 0; i < n; i++ {
		courses = append(courses, Course{Code: fmt.Sprintf("REM %03d", i+1), Credits: units, Status: "Remaining"})
	}
	return courses
}

func codes(courses []Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Code)
	}
	return out
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{raw: "Taken", want: StatusTaken},
		{raw: "Completed", want: StatusTaken},
		{raw: "COMP", want: StatusTaken},
		{raw: "complete ", want: StatusTaken},
		{raw: "Not Taken", want: StatusTaken}, // taken is checked first
		{raw: "In Progress", want: StatusInProgress},
		{raw: "IP", want: StatusInProgress},
		{raw: " ip ", want: StatusInProgress},
		{raw: "Not Used", want: StatusNotUsed},
		{raw: "NOT USED - excess", want: StatusNotUsed},
		{raw: "Remaining", want: StatusRemaining},
		{raw: "Planned", want: StatusRemaining},
		{raw: "", want: StatusUnknown},
		{raw: "   ", want: StatusUnknown},
		{raw: "Transfer", want: StatusUnknown},
		{raw: "comp.", want: StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestClassifyYear(t *testing.T) {
	tests := []struct {
		name   string
		course Course
		want   Year
		wantOk bool
	}{
		{name: "IP without year or term", course: Course{Status: "IP"}, want: SecondYear, wantOk: true},
		{name: "explicit year", course: Course{Year: "Year 3", Status: "Taken"}, want: ThirdYear, wantOk: true},
		{name: "explicit year wins over term", course: Course{Year: "Year 3", Term: "Year 1 FA"}, want: ThirdYear, wantOk: true},
		{name: "bare digit year", course: Course{Year: "4"}, want: FourthYear, wantOk: true},
		{name: "year from term", course: Course{Term: "year 4 SP", Status: "Completed"}, want: FourthYear, wantOk: true},
		{name: "term without year token", course: Course{Term: "FA 2023", Status: "Taken"}, want: FirstYear, wantOk: true},
		{name: "out of range year falls through", course: Course{Year: "Year 7", Status: "In Progress"}, want: SecondYear, wantOk: true},
		{name: "taken defaults to first", course: Course{Status: "Taken"}, want: FirstYear, wantOk: true},
		{name: "unknown status defaults to first", course: Course{}, want: FirstYear, wantOk: true},
		{name: "not used is unassigned", course: Course{Status: "Not Used", Year: "Year 2"}, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyYear(tt.course)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCourse_TermCode(t *testing.T) {
	for term, want := range map[string]string{
		"FA 2023":   "FA",
		"Year 1 FA": "FA",
		"SP2024":    "SP",
		"Spring 24": "SP",
		"summer":    "SU",
		"Year 2":    "",
		"":          "",
	} {
		assert.Equal(t, want, Course{Term: term}.TermCode(), term)
	}
}

func TestCourse_Units(t *testing.T) {
	assert.Equal(t, 4.0, Course{Credits: 4}.Units())
	assert.Equal(t, DefaultCredits, Course{}.Units())
	assert.Equal(t, DefaultCredits, Course{Credits: -1}.Units())
	assert.Equal(t, DefaultCredits, Course{Credits: math.NaN()}.Units())
	assert.Equal(t, DefaultCredits, Course{Credits: math.Inf(1)}.Units())
}

func TestDistribute(t *testing.T) {
	t.Run("ten 3-unit courses fill the first year exactly", func(t *testing.T) {
		years, fifth := Distribute([NumYears][]Course{}, remainingCourses(10, 3))
		assert.Len(t, years[0], 10)
		assert.Equal(t, YearCreditTarget, Credits(years[0]))
		assert.Empty(t, years[1])
		assert.Empty(t, years[2])
		assert.Empty(t, years[3])
		assert.Empty(t, fifth)
	})

	t.Run("pool order is kept across years", func(t *testing.T) {
		pool := remainingCourses(25, 3)
		years, fifth := Distribute([NumYears][]Course{}, pool)
		assert.Equal(t, codes(pool[:10]), codes(years[0]))
		assert.Equal(t, codes(pool[10:20]), codes(years[1]))
		assert.Equal(t, codes(pool[20:]), codes(years[2]))
		assert.Empty(t, years[3])
		assert.Empty(t, fifth)
	})

	t.Run("full year is skipped", func(t *testing.T) {
		var years [NumYears][]Course
		for i := 0; i < 10; i++ {
			years[0] = append(years[0], Course{Code: fmt.Sprintf("TKN %d", i), Status: "Taken", Credits: 3})
		}
		out, fifth := Distribute(years, remainingCourses(2, 3))
		assert.Len(t, out[0], 10)
		assert.Equal(t, []string{"REM 001", "REM 002"}, codes(out[1]))
		assert.Empty(t, fifth)
	})

	t.Run("no backfill behind a populated year", func(t *testing.T) {
		var years [NumYears][]Course
		years[2] = []Course{{Code: "CMPSC 311", Status: "Taken", Credits: 3}}
		out, fifth := Distribute(years, remainingCourses(12, 3))
		assert.Empty(t, out[0])
		assert.Empty(t, out[1])
		assert.Len(t, out[2], 10) // 3 + 9*3 = 30
		assert.Equal(t, YearCreditTarget, Credits(out[2]))
		assert.Len(t, out[3], 3)
		assert.Empty(t, fifth)
	})

	t.Run("year active in fall and spring is skipped", func(t *testing.T) {
		var years [NumYears][]Course
		years[1] = []Course{
			{Code: "MATH 230", Status: "IP", Term: "FA 2024"},
			{Code: "STAT 200", Status: "In Progress", Term: "Year 2 SP"},
		}
		out, fifth := Distribute(years, remainingCourses(2, 3))
		assert.Empty(t, out[0])
		assert.Len(t, out[1], 2)
		assert.Equal(t, []string{"REM 001", "REM 002"}, codes(out[2]))
		assert.Empty(t, fifth)
	})

	t.Run("one active term does not block", func(t *testing.T) {
		var years [NumYears][]Course
		years[0] = []Course{{Code: "ENGL 15", Status: "IP", Term: "FA 2024"}}
		out, _ := Distribute(years, remainingCourses(1, 3))
		assert.Equal(t, []string{"ENGL 15", "REM 001"}, codes(out[0]))
	})

	t.Run("duplicates of placed courses are dropped", func(t *testing.T) {
		var years [NumYears][]Course
		years[0] = []Course{{Code: "CMPSC 131", Status: "Taken"}}
		pool := []Course{{Code: "cmpsc  131", Status: "Remaining"}, {Code: "MATH 140", Status: "Remaining"}}
		out, fifth := Distribute(years, pool)
		assert.Equal(t, []string{"CMPSC 131", "MATH 140"}, codes(out[0]))
		assert.Empty(t, fifth)
	})

	t.Run("courses without code are never deduplicated", func(t *testing.T) {
		var years [NumYears][]Course
		years[0] = []Course{{Title: "Seminar", Status: "Taken"}}
		out, _ := Distribute(years, []Course{{Title: "Elective", Status: "Remaining"}})
		assert.Len(t, out[0], 2)
	})

	t.Run("leftovers go to the fifth year", func(t *testing.T) {
		var years [NumYears][]Course
		for i := 0; i < 10; i++ {
			years[3] = append(years[3], Course{Code: fmt.Sprintf("SR %d", i), Status: "Taken", Credits: 3})
		}
		pool := remainingCourses(4, 3)
		out, fifth := Distribute(years, pool)
		assert.Empty(t, out[0])
		assert.Empty(t, out[1])
		assert.Empty(t, out[2])
		assert.Len(t, out[3], 10)
		assert.Equal(t, codes(pool), codes(fifth))
	})

	t.Run("a heavy course may overshoot the target", func(t *testing.T) {
		pool := append(remainingCourses(9, 3), Course{Code: "CAPSTONE", Credits: 6}, Course{Code: "LAST"})
		out, _ := Distribute([NumYears][]Course{}, pool)
		assert.Len(t, out[0], 10)
		assert.Equal(t, 33.0, Credits(out[0]))
		assert.Equal(t, []string{"LAST"}, codes(out[1]))
	})

	t.Run("placed courses are labelled remaining", func(t *testing.T) {
		out, _ := Distribute([NumYears][]Course{}, []Course{{Code: "A"}, {Code: "B", Status: "Planned"}})
		assert.Equal(t, "Remaining", out[0][0].Status)
		assert.Equal(t, "Remaining", out[0][1].Status)
	})

	t.Run("inputs are left untouched", func(t *testing.T) {
		var years [NumYears][]Course
		years[0] = []Course{{Code: "X", Status: "Taken"}}
		pool := []Course{{Code: "A"}}
		_, _ = Distribute(years, pool)
		assert.Len(t, years[0], 1)
		assert.Equal(t, "", pool[0].Status)
	})

	t.Run("empty pool", func(t *testing.T) {
		out, fifth := Distribute([NumYears][]Course{}, nil)
		for _, y := range out {
			assert.Empty(t, y)
		}
		assert.Empty(t, fifth)
	})
}

func TestPercentages(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		got := Percentages(CreditTotals{Completed: 60, InProgress: 15, Remaining: 45})
		assert.InDelta(t, 50, got.Completed, 1e-9)
		assert.InDelta(t, 12.5, got.InProgress, 1e-9)
		assert.InDelta(t, 37.5, got.Remaining, 1e-9)
	})

	t.Run("zero total", func(t *testing.T) {
		assert.Equal(t, Shares{}, Percentages(CreditTotals{}))
	})

	t.Run("unusable values count as zero", func(t *testing.T) {
		got := Percentages(CreditTotals{Completed: math.NaN(), InProgress: -5, Remaining: 10})
		assert.Equal(t, Shares{Remaining: 100}, got)

		got = Percentages(CreditTotals{Completed: math.Inf(1)})
		assert.Equal(t, Shares{}, got)
	})

	t.Run("shares sum to 100", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(42))
		for i := 0; i < 500; i++ {
			totals := CreditTotals{
				Completed:  float64(rnd.Intn(150)),
				InProgress: rnd.Float64() * 20,
				Remaining:  float64(rnd.Intn(90)) + 1,
			}
			got := Percentages(totals)
			sum := totals.Sum()
			require.InDelta(t, 100, got.Completed+got.InProgress+got.Remaining, 1e-9, "%+v", totals)
			require.InDelta(t, 100*totals.Completed/sum, got.Completed, 1e-9)
			require.InDelta(t, 100*totals.InProgress/sum, got.InProgress, 1e-9)
			require.InDelta(t, 100*totals.Remaining/sum, got.Remaining, 1e-9)
		}
	})
}

func TestCreditTotals_Clean(t *testing.T) {
	got := CreditTotals{Completed: -12, InProgress: math.NaN(), Remaining: 6}.Clean()
	assert.Equal(t, CreditTotals{Remaining: 6}, got)
	assert.Equal(t, CreditTotals{}, CreditTotals{Completed: math.Inf(1)}.Clean())
}

func TestTotalsFromCourses(t *testing.T) {
	got := TotalsFromCourses([]Course{
		{Status: "Taken", Credits: 4},
		{Status: "IP"},
		{Status: "Remaining", Credits: 2},
		{Status: "Not Used", Credits: 3},
		{Status: "???", Credits: 3},
	})
	assert.Equal(t, CreditTotals{Completed: 4, InProgress: 3, Remaining: 2}, got)
}

func TestBuild(t *testing.T) {
	courses := []Course{
		{Code: "CMPSC 131", Title: "Programming", Credits: 3, Status: "Taken", Year: "Year 1"},
		{Code: "CMPSC 132", Credits: 3, Status: "Completed", Term: "Year 2 FA"},
		{Code: "CMPSC 221", Credits: 3, Status: "IP"},
		{Code: "PHYS 211", Credits: 4, Status: "Not Used", Year: "Year 1"},
		{Code: "CMPSC 465", Status: "Remaining"},
		{Code: "CMPSC 131", Status: "Remaining"},
		{Code: "WEIRD 1", Status: "Audited"},
	}
	totals := CreditTotals{Completed: 60, InProgress: 15, Remaining: 45}

	p := Build(courses, totals)

	assert.Equal(t, []string{"CMPSC 131", "WEIRD 1"}, codes(p.Years[0]), spew.Sdump(p))
	assert.Equal(t, []string{"CMPSC 132", "CMPSC 221", "CMPSC 465"}, codes(p.Years[1]), spew.Sdump(p))
	assert.Empty(t, p.Years[2])
	assert.Empty(t, p.Years[3])
	assert.Empty(t, p.FifthYear)
	assert.Equal(t, []string{"PHYS 211"}, codes(p.Unused))
	assert.Equal(t, totals, p.Credits)
	assert.InDelta(t, 12.5, p.Shares.InProgress, 1e-9)

	var names []string
	for _, b := range p.Buckets() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"First Year", "Second Year", "Third Year", "Fourth Year", "Unused Courses"}, names)
}

func TestBuild_emptyInput(t *testing.T) {
	p := Build(nil, CreditTotals{})
	buckets := p.Buckets()
	require.Len(t, buckets, NumYears)
	for _, b := range buckets {
		assert.NotNil(t, b.Courses)
		assert.Empty(t, b.Courses)
	}
	assert.Equal(t, Shares{}, p.Shares)
}

func TestBuild_negativeTotals(t *testing.T) {
	p := Build(nil, CreditTotals{Completed: -12, InProgress: 6, Remaining: 6})
	assert.Equal(t, CreditTotals{InProgress: 6, Remaining: 6}, p.Credits)
	assert.Equal(t, Shares{InProgress: 50, Remaining: 50}, p.Shares)
}

func TestBuild_fifthYearBucket(t *testing.T) {
	courses := []Course{{Code: "CAP 400", Status: "Taken", Year: "Year 4", Credits: 30}}
	courses = append(courses, remainingCourses(2, 3)...)

	buckets := Build(courses, CreditTotals{}).Buckets()
	require.Len(t, buckets, NumYears+1, spew.Sdump(buckets))
	assert.Equal(t, "Fifth Year", buckets[4].Name)
	assert.Equal(t, []string{"REM 001", "REM 002"}, codes(buckets[4].Courses))
}

func TestBuild_notUsedNeverInYears(t *testing.T) {
	courses := []Course{
		{Code: "NU 1", Status: "Not Used", Year: "Year 1"},
		{Code: "NU 2", Status: "not used", Term: "Year 3 SP"},
		{Code: "OK 1", Status: "Taken"},
	}
	p := Build(courses, CreditTotals{})
	for i, b := range p.Buckets() {
		if b.Name == "Unused Courses" {
			assert.Equal(t, []string{"NU 1", "NU 2"}, codes(b.Courses))
			continue
		}
		for _, c := range b.Courses {
			assert.NotEqual(t, StatusNotUsed, c.Tag(), "bucket %d holds %s", i, c.Code)
		}
	}
}

// Every course lands in exactly one bucket, no year past the target receives pool courses
// before an earlier eligible year, and no pool course lands behind a pre-populated year.
func TestBuild_properties(t *testing.T) {
	statuses := []string{"Taken", "Completed", "IP", "In Progress", "Not Used", "Remaining", "Planned", "", "Waived"}
	terms := []string{"", "FA 2023", "SP 2024", "Year 1 FA", "Year 3 SP", "Year 4 FA"}
	yearLabels := []string{"", "", "Year 1", "Year 2", "Year 3", "Year 4", "Year 9"}
	rnd := rand.New(rand.NewSource(7))

	for round := 0; round < 300; round++ {
		n := rnd.Intn(40)
		courses := make([]Course, 0, n)
		for i := 0; i < n; i++ {
			courses = append(courses, Course{
				Code:    fmt.Sprintf("C%d-%d", round, i),
				Credits: float64(rnd.Intn(5)),
				Status:  statuses[rnd.Intn(len(statuses))],
				Term:    terms[rnd.Intn(len(terms))],
				Year:    yearLabels[rnd.Intn(len(yearLabels))],
			})
		}

		p := Build(courses, CreditTotals{})

		seen := make(map[string]int, n)
		for _, b := range p.Buckets() {
			for _, c := range b.Courses {
				seen[c.Code]++
				if b.Name != "Unused Courses" {
					require.NotEqual(t, StatusNotUsed, c.Tag())
				}
			}
		}
		require.Len(t, seen, n, spew.Sdump(courses))
		for code, count := range seen {
			require.Equal(t, 1, count, "course %s placed %d times", code, count)
		}

		// pre-distribution state, to check the skip rules
		var before [NumYears][]Course
		for _, c := range courses {
			if c.Tag() == StatusRemaining || c.Tag() == StatusNotUsed {
				continue
			}
			y, _ := ClassifyYear(c)
			before[y-1] = append(before[y-1], c)
		}
		lastPopulated := -1
		for i := range before {
			if len(before[i]) > 0 {
				lastPopulated = i
			}
		}
		for i := range p.Years {
			received := len(p.Years[i]) - len(before[i])
			if received == 0 {
				continue
			}
			require.GreaterOrEqual(t, i, lastPopulated, "year %d backfilled", i+1)
			require.Less(t, Credits(before[i]), YearCreditTarget, "year %d was already full", i+1)
		}
	}
}
