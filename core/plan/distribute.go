package plan

// YearCreditTarget is the load a year is filled up to with remaining courses.
const YearCreditTarget = 30.0

// Distribute spreads the remaining pool over the years, in pool order, and returns the new years
// plus the Fifth Year overflow. Neither input is modified.
//
// A year is skipped when it already holds YearCreditTarget credits, when a later year already
// holds courses (no backfilling behind the student), or when it has in-progress courses in both
// the fall and spring terms (that year is being taken right now).
// Pool courses whose code already appears in a year are dropped first.
func Distribute(years [NumYears][]Course, pool []Course) ([NumYears][]Course, []Course) {
	var out [NumYears][]Course
	seen := make(map[string]struct{})
	for i := range years {
		out[i] = make([]Course, len(years[i]), len(years[i])+8)
		copy(out[i], years[i])
		for _, c := range years[i] {
			if k := c.Key(); k != "" {
				seen[k] = struct{}{}
			}
		}
	}

	queue := make([]Course, 0, len(pool))
	for _, c := range pool {
		if _, dup := seen[c.Key()]; dup && c.Key() != "" {
			continue
		}
		queue = append(queue, asRemaining(c))
	}

	for i := 0; i < NumYears && len(queue) > 0; i++ {
		if !canReceive(out, i) {
			continue
		}
		capacity := YearCreditTarget - Credits(out[i])
		var added float64
		for len(queue) > 0 && added < capacity {
			out[i] = append(out[i], queue[0])
			added += queue[0].Units()
			queue = queue[1:]
		}
	}

	fifth := make([]Course, len(queue))
	copy(fifth, queue)
	return out, fifth
}

func canReceive(years [NumYears][]Course, i int) bool {
	if Credits(years[i]) >= YearCreditTarget {
		return false
	}
	for j := i + 1; j < NumYears; j++ {
		if len(years[j]) > 0 {
			return false
		}
	}
	return !activeInFallAndSpring(years[i])
}

func activeInFallAndSpring(courses []Course) bool {
	var fall, spring bool
	for _, c := range courses {
		if c.Tag() != StatusInProgress {
			continue
		}
		switch c.TermCode() {
		case "FA":
			fall = true
		case "SP":
			spring = true
		}
	}
	return fall && spring
}

func asRemaining(c Course) Course {
	c.Status = remainingLabel
	return c
}
