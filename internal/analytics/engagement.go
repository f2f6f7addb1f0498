package analytics

import (
	"math"

	"pagelink/internal/events"
)

// Engagement holds the workspace-level behavior metrics.
type Engagement struct {
	BounceRate     int
	AvgTimeOnPage  float64
	AvgScrollDepth float64
}

// FunnelStage is one step of the fixed visitor journey.
type FunnelStage struct {
	Stage string
	Count int
	Rate  int
}

// Funnel is the per-document visitor journey breakdown.
type Funnel struct {
	Stages         []FunnelStage
	ConversionRate float64
}

// ComputeEngagement derives bounce rate and average time-on-page / scroll
// depth. A visitor bounces unless any engaged/click/scroll event was seen
// for them; the averages run over events where the metric is present and
// positive, and are 0 (never null) when none qualify.
func ComputeEngagement(evs []events.AnalyticsEvent) Engagement {
	engaged := make(map[string]bool)

	var timeSum, scrollSum float64
	var timeCount, scrollCount int

	for i := range evs {
		ev := &evs[i]

		if visitor, ok := ev.Visitor(); ok {
			switch {
			case ev.Type == events.TypeView:
				if _, seen := engaged[visitor]; !seen {
					engaged[visitor] = false
				}
			case ev.Type.IsEngagement():
				engaged[visitor] = true
			}
		}

		if ev.TimeOnPage > 0 {
			timeSum += ev.TimeOnPage
			timeCount++
		}
		if ev.ScrollDepth > 0 {
			scrollSum += ev.ScrollDepth
			scrollCount++
		}
	}

	out := Engagement{}

	if len(engaged) > 0 {
		engagedCount := 0
		for _, isEngaged := range engaged {
			if isEngaged {
				engagedCount++
			}
		}
		out.BounceRate = int(math.Round((1 - float64(engagedCount)/float64(len(engaged))) * 100))
	}

	if timeCount > 0 {
		out.AvgTimeOnPage = round1(timeSum / float64(timeCount))
	}
	if scrollCount > 0 {
		out.AvgScrollDepth = round1(scrollSum / float64(scrollCount))
	}

	return out
}

// ComputeFunnel builds the four-stage visitor funnel from per-visitor
// event-type sets. The stages are independent set-membership tests, not a
// strict pipeline: noisy data can produce a converted visitor with no
// recorded view. Stage rates are whole percents of visited; the overall
// conversion rate keeps one decimal of precision.
func ComputeFunnel(evs []events.AnalyticsEvent) Funnel {
	seen := make(map[string]map[events.Type]struct{})

	for i := range evs {
		ev := &evs[i]
		visitor, ok := ev.Visitor()
		if !ok {
			continue
		}
		types, exists := seen[visitor]
		if !exists {
			types = make(map[events.Type]struct{})
			seen[visitor] = types
		}
		types[ev.Type] = struct{}{}
	}

	visited := len(seen)
	var viewed, engaged, converted int
	for _, types := range seen {
		if _, ok := types[events.TypeView]; ok {
			viewed++
		}
		if hasAny(types, events.TypeEngaged, events.TypeScroll, events.TypeClick) {
			engaged++
		}
		if hasAny(types, events.TypeConversion, events.TypeLeadCapture) {
			converted++
		}
	}

	stages := []FunnelStage{
		{Stage: "visited", Count: visited, Rate: 100},
		{Stage: "viewed", Count: viewed, Rate: stageRate(viewed, visited)},
		{Stage: "engaged", Count: engaged, Rate: stageRate(engaged, visited)},
		{Stage: "converted", Count: converted, Rate: stageRate(converted, visited)},
	}
	if visited == 0 {
		stages[0].Rate = 100
	}

	conversionRate := 0.0
	if visited > 0 {
		conversionRate = math.Round(float64(converted)/float64(visited)*1000) / 10
	}

	return Funnel{Stages: stages, ConversionRate: conversionRate}
}

func hasAny(types map[events.Type]struct{}, candidates ...events.Type) bool {
	for _, t := range candidates {
		if _, ok := types[t]; ok {
			return true
		}
	}
	return false
}

func stageRate(count, visited int) int {
	if visited == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(visited) * 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
