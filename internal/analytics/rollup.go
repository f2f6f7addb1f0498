package analytics

import (
	"math"
	"sort"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pagelink/internal/events"
	"pagelink/internal/pkg/classify"
)

// Top-N cutoffs per dimension. Devices are unlimited (there are only
// three labels anyway).
const (
	TopSources   = 6
	TopCountries = 7
	TopBrowsers  = 5
)

// DimensionEntry is one row of a percentage-ranked frequency table.
type DimensionEntry struct {
	Label      string
	Count      int
	Percentage int
}

// CountryEntry additionally carries the human-readable country name.
type CountryEntry struct {
	Code       string
	Name       string
	Count      int
	Percentage int
}

// Rollup holds every dimensional table for one window.
type Rollup struct {
	Sources   []DimensionEntry
	Countries []CountryEntry
	Devices   []DimensionEntry
	Browsers  []DimensionEntry
}

// SourceLabelFunc derives the traffic-source label for one event. The
// workspace dashboard and the per-document dashboard use different,
// incompatible schemes (see classify), so the caller picks.
type SourceLabelFunc func(ev *events.AnalyticsEvent) string

// WorkspaceSource labels events with the canonical classifier.
func WorkspaceSource(ev *events.AnalyticsEvent) string {
	return classify.Referrer(ev.Referrer, ev.UTMSource)
}

// DocumentSource labels events with the raw referrer hostname.
func DocumentSource(ev *events.AnalyticsEvent) string {
	return classify.ReferrerHost(ev.Referrer)
}

var (
	countryQuery = gountries.New()
	upperCaser   = cases.Upper(language.AmericanEnglish)
)

// RollupDimensions builds the traffic source, country, device and browser
// tables in one pass. Only view events contribute; downloads and
// engagement events are excluded from every table.
func RollupDimensions(evs []events.AnalyticsEvent, sourceLabel SourceLabelFunc) Rollup {
	sources := make(map[string]int)
	devices := make(map[string]int)
	browsers := make(map[string]int)
	countryCounts := make(map[string]int)
	countryNames := make(map[string]string)

	for i := range evs {
		ev := &evs[i]
		if ev.Type != events.TypeView {
			continue
		}

		sources[sourceLabel(ev)]++

		device, browser := classify.UserAgent(ev.UserAgent)
		devices[device]++
		browsers[browser]++

		if ev.CountryCode != "" {
			countryCounts[ev.CountryCode]++
			if _, seen := countryNames[ev.CountryCode]; !seen {
				countryNames[ev.CountryCode] = countryDisplayName(ev.CountryCode, ev.CountryName)
			}
		}
	}

	return Rollup{
		Sources:   rankDimension(sources, TopSources),
		Countries: rankCountries(countryCounts, countryNames, TopCountries),
		Devices:   rankDimension(devices, 0),
		Browsers:  rankDimension(browsers, TopBrowsers),
	}
}

// countryDisplayName resolves an ISO code to its common name, preferring
// the lookup table, then the name the event itself carried, then the
// upper-cased code.
func countryDisplayName(code, eventName string) string {
	if country, err := countryQuery.FindCountryByAlpha(code); err == nil {
		return country.Name.Common
	}
	if eventName != "" {
		return eventName
	}
	return upperCaser.String(code)
}

func rankDimension(counts map[string]int, topN int) []DimensionEntry {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		total = 1
	}

	out := make([]DimensionEntry, 0, len(counts))
	for label, count := range counts {
		out = append(out, DimensionEntry{
			Label:      label,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func rankCountries(counts map[string]int, names map[string]string, topN int) []CountryEntry {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		total = 1
	}

	out := make([]CountryEntry, 0, len(counts))
	for code, count := range counts {
		out = append(out, CountryEntry{
			Code:       code,
			Name:       names[code],
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
