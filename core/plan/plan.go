package plan

const unusedBucketName = "Unused Courses"

// Plan is the render-ready academic plan of one audit.
type Plan struct {
	Years     [NumYears][]Course
	FifthYear []Course
	Unused    []Course
	Credits   CreditTotals
	Shares    Shares
}

// Bucket is a named group of courses as displayed.
type Bucket struct {
	Name    string   `json:"name"`
	Courses []Course `json:"courses"`
}

// Buckets lists the plan in display order: the four years, then the Fifth Year and
// the Unused Courses when they hold anything.
func (p Plan) Buckets() []Bucket {
	buckets := make([]Bucket, 0, NumYears+2)
	for i, courses := range p.Years {
		buckets = append(buckets, Bucket{Name: Year(i + 1).String(), Courses: nonNil(courses)})
	}
	if len(p.FifthYear) > 0 {
		buckets = append(buckets, Bucket{Name: FifthYear.String(), Courses: p.FifthYear})
	}
	if len(p.Unused) > 0 {
		buckets = append(buckets, Bucket{Name: unusedBucketName, Courses: p.Unused})
	}
	return buckets
}

// Build classifies courses and distributes the remaining ones into a new Plan.
//
// Not-used courses go to Unused only, remaining ones to the pool spread by Distribute,
// and every other course (taken, in-progress or unrecognized) to the year ClassifyYear picks.
// totals are carried as is once negative values are zeroed; Shares is derived from them.
func Build(courses []Course, totals CreditTotals) Plan {
	var (
		years  [NumYears][]Course
		pool   []Course
		unused []Course
	)
	for _, c := range courses {
		switch c.Tag() {
		case StatusNotUsed:
			unused = append(unused, c)
		case StatusRemaining:
			pool = append(pool, c)
		default:
			year, ok := ClassifyYear(c)
			if !ok {
				unused = append(unused, c)
				continue
			}
			years[year-1] = append(years[year-1], c)
		}
	}

	years, fifth := Distribute(years, pool)
	totals = totals.Clean()
	return Plan{
		Years:     years,
		FifthYear: fifth,
		Unused:    unused,
		Credits:   totals,
		Shares:    Percentages(totals),
	}
}

func nonNil(courses []Course) []Course {
	if courses == nil {
		return []Course{}
	}
	return courses
}
