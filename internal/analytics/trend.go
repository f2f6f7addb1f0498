package analytics

import "math"

// Change returns the period-over-period percentage change rounded to one
// decimal, or nil when the previous period had nothing to compare
// against.
func Change(current, previous int) *float64 {
	if previous == 0 {
		return nil
	}
	change := math.Round(float64(current-previous)/float64(previous)*1000) / 10
	return &change
}
