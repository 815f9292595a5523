package plan

import "math"

// CreditTotals are the aggregate credits reported for a student.
// They come from the analysis service and need not match the per-course credits.
type CreditTotals struct {
	Completed  float64 `json:"completed"`
	InProgress float64 `json:"in_progress"`
	Remaining  float64 `json:"remaining"`
}

// Clean returns t with every value that is not a finite positive number replaced by 0.
func (t CreditTotals) Clean() CreditTotals {
	return CreditTotals{
		Completed:  nonNegative(t.Completed),
		InProgress: nonNegative(t.InProgress),
		Remaining:  nonNegative(t.Remaining),
	}
}

func (t CreditTotals) Sum() float64 {
	return nonNegative(t.Completed) + nonNegative(t.InProgress) + nonNegative(t.Remaining)
}

// Shares are the percentages of each credit category, for the credit bars.
type Shares struct {
	Completed  float64 `json:"completed"`
	InProgress float64 `json:"in_progress"`
	Remaining  float64 `json:"remaining"`
}

// Percentages returns each category's share of the total. All shares are 0 when the total is 0.
func Percentages(t CreditTotals) Shares {
	total := t.Sum()
	if total <= 0 || math.IsInf(total, 0) {
		return Shares{}
	}
	return Shares{
		Completed:  100 * nonNegative(t.Completed) / total,
		InProgress: 100 * nonNegative(t.InProgress) / total,
		Remaining:  100 * nonNegative(t.Remaining) / total,
	}
}

// TotalsFromCourses sums course units per canonical status.
// Used only when the analysis service reports no aggregate at all.
func TotalsFromCourses(courses []Course) CreditTotals {
	var t CreditTotals
	for _, c := range courses {
		switch c.Tag() {
		case StatusTaken:
			t.Completed += c.Units()
		case StatusInProgress:
			t.InProgress += c.Units()
		case StatusRemaining:
			t.Remaining += c.Units()
		}
	}
	return t
}

func nonNegative(v float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return 0
}
