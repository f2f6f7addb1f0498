// Package timeframe derives the UTC day windows analytics queries run over.
package timeframe

import (
	"fmt"
	"strconv"
	"time"
)

// DayFormat is the bucket key format for daily series. Zero-padded so
// lexical order equals chronological order.
const DayFormat = "2006-01-02"

// Window is an inclusive UTC range spanning whole calendar days. End
// carries the exact instant the window closes at (usually "now"); Days is
// the calendar day count used for bucket pre-population.
type Window struct {
	From time.Time
	To   time.Time
	Days int
}

// LastNDays builds a window covering the n calendar days ending at end.
func LastNDays(days int, end time.Time) Window {
	end = end.UTC()
	firstDay := end.AddDate(0, 0, -days+1)
	from := time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: end, Days: days}
}

// Between builds a window from explicit start and end instants, deriving
// the inclusive calendar day count.
func Between(start, end time.Time) (Window, error) {
	start = start.UTC()
	end = end.UTC()
	if start.After(end) {
		return Window{}, fmt.Errorf("start %s is after end %s", start.Format(DayFormat), end.Format(DayFormat))
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(endDay.Sub(startDay).Hours()/24) + 1

	return Window{From: startDay, To: end, Days: days}, nil
}

// Previous returns the window of equal day length immediately before w,
// for period-over-period comparisons.
func (w Window) Previous() Window {
	return Window{
		From: w.From.AddDate(0, 0, -w.Days),
		To:   w.From.Add(-time.Second),
		Days: w.Days,
	}
}

// EndDay returns the UTC day the window closes on.
func (w Window) EndDay() time.Time {
	return w.To.UTC()
}

// Parse builds a window from the request's days/start/end query values.
// Explicit start+end win over days; days falls back to defaultDays and is
// clamped to [1, maxDays].
func Parse(daysStr, startStr, endStr string, defaultDays, maxDays int, now time.Time) (Window, error) {
	if startStr != "" && endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return Window{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
		return Between(start, end)
	}

	days := defaultDays
	if daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil {
			return Window{}, fmt.Errorf("invalid days value %q: %w", daysStr, err)
		}
		days = parsed
	}
	if days < 1 {
		days = 1
	}
	if days > maxDays {
		days = maxDays
	}

	return LastNDays(days, now), nil
}
