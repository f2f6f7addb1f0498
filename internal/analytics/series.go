// Package analytics is the aggregation core: pure, single-pass folds over
// an already-fetched event window. Every function here is a pure function
// of its input slice, safe to run concurrently for different inputs, and
// never returns an error - malformed events are dropped, unknown event
// types are inert.
package analytics

import (
	"sort"
	"time"

	"pagelink/internal/events"
	"pagelink/internal/timeframe"
)

// DayStat is one daily bucket after the visitor set has been collapsed to
// its cardinality.
type DayStat struct {
	Date           string
	Views          int
	Downloads      int
	UniqueVisitors int
}

// HourStat is one hour-of-day bucket (0-23).
type HourStat struct {
	Hour           int
	Views          int
	UniqueVisitors int
}

// SeriesResult holds the gap-free daily series plus the window-wide totals
// the overview needs.
type SeriesResult struct {
	Days           []DayStat
	TotalViews     int
	TotalDownloads int
	UniqueVisitors int
}

type dayBucket struct {
	views     int
	downloads int
	visitors  map[string]struct{}
}

// DailySeries folds events into one bucket per calendar day of the window
// ending at end (UTC). Buckets are pre-populated so the series has no
// gaps; events whose day key is not pre-populated - out of window or with
// an unusable timestamp - are skipped silently. view and embed_load
// increment views, download increments downloads, and every event's
// visitor (when present) joins the bucket's and the window's visitor sets
// regardless of type.
func DailySeries(evs []events.AnalyticsEvent, days int, end time.Time) SeriesResult {
	if days < 1 {
		days = 1
	}
	end = end.UTC()

	buckets := make(map[string]*dayBucket, days)
	keys := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := end.AddDate(0, 0, -i).Format(timeframe.DayFormat)
		buckets[key] = &dayBucket{visitors: make(map[string]struct{})}
		keys = append(keys, key)
	}

	windowVisitors := make(map[string]struct{})
	var totalViews, totalDownloads int

	for i := range evs {
		ev := &evs[i]
		key := ev.CreatedAt.UTC().Format(timeframe.DayFormat)
		bucket, ok := buckets[key]
		if !ok {
			continue
		}

		switch {
		case ev.Type.CountsAsView():
			bucket.views++
			totalViews++
		case ev.Type == events.TypeDownload:
			bucket.downloads++
			totalDownloads++
		}

		if visitor, ok := ev.Visitor(); ok {
			bucket.visitors[visitor] = struct{}{}
			windowVisitors[visitor] = struct{}{}
		}
	}

	// Zero-padded yyyy-mm-dd keys sort chronologically.
	sort.Strings(keys)

	out := make([]DayStat, len(keys))
	for i, key := range keys {
		b := buckets[key]
		out[i] = DayStat{
			Date:           key,
			Views:          b.views,
			Downloads:      b.downloads,
			UniqueVisitors: len(b.visitors),
		}
	}

	return SeriesResult{
		Days:           out,
		TotalViews:     totalViews,
		TotalDownloads: totalDownloads,
		UniqueVisitors: len(windowVisitors),
	}
}

// HourlySeries folds events into the 24 fixed hour-of-day buckets (UTC).
// Only view events count toward views; visitors are tracked for every
// event carrying a visitor id.
func HourlySeries(evs []events.AnalyticsEvent) []HourStat {
	type hourBucket struct {
		views    int
		visitors map[string]struct{}
	}

	buckets := [24]hourBucket{}
	for h := range buckets {
		buckets[h].visitors = make(map[string]struct{})
	}

	for i := range evs {
		ev := &evs[i]
		h := ev.CreatedAt.UTC().Hour()
		if ev.Type == events.TypeView {
			buckets[h].views++
		}
		if visitor, ok := ev.Visitor(); ok {
			buckets[h].visitors[visitor] = struct{}{}
		}
	}

	out := make([]HourStat, 24)
	for h := range buckets {
		out[h] = HourStat{Hour: h, Views: buckets[h].views, UniqueVisitors: len(buckets[h].visitors)}
	}
	return out
}
