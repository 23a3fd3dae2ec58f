package dashboard

import (
	"fmt"

	"github.com/taskforge-hq/taskforge/internal/tasks"
)

// NoGrades is rendered when a user has no reviewed tasks. It is a distinct
// sentinel, never "0.00", so that an ungraded user cannot be confused with a
// user whose every review scored X.
const NoGrades = "N/A"

// GradePoints maps each letter grade to its numeric value.
var GradePoints = map[tasks.Grade]int{
	tasks.GradeA: 4,
	tasks.GradeB: 3,
	tasks.GradeC: 2,
	tasks.GradeD: 1,
	tasks.GradeX: 0,
}

// AveragePoints returns the mean point value of the grades. The boolean is
// false when there are no grades to average.
func AveragePoints(grades []tasks.Grade) (float64, bool) {
	if len(grades) == 0 {
		return 0, false
	}
	var sum int
	for _, grade := range grades {
		sum += GradePoints[grade]
	}
	return float64(sum) / float64(len(grades)), true
}

// FormatAverage renders the mean with two decimals, or NoGrades when the
// slice is empty.
func FormatAverage(grades []tasks.Grade) string {
	avg, ok := AveragePoints(grades)
	if !ok {
		return NoGrades
	}
	return fmt.Sprintf("%.2f", avg)
}
