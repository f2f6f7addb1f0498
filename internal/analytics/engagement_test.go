package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelink/internal/events"
)

func TestComputeEngagementBounceRate(t *testing.T) {
	now := time.Now().UTC()

	evs := []events.AnalyticsEvent{
		// v1 views and engages, v2 only views, v3 only views
		makeEvent(events.TypeView, "v1", now),
		makeEvent(events.TypeScroll, "v1", now),
		makeEvent(events.TypeView, "v2", now),
		makeEvent(events.TypeView, "v3", now),
	}

	result := ComputeEngagement(evs)

	// 1 of 3 visitors engaged: round((1 - 1/3) * 100) = 67
	assert.Equal(t, 67, result.BounceRate)
}

func TestComputeEngagementWithoutViewStillCountsEngager(t *testing.T) {
	now := time.Now().UTC()

	// engagement event with no preceding view still creates the visitor
	// entry as engaged
	evs := []events.AnalyticsEvent{
		makeEvent(events.TypeClick, "v1", now),
	}

	result := ComputeEngagement(evs)

	assert.Equal(t, 0, result.BounceRate)
}

func TestComputeEngagementAverages(t *testing.T) {
	now := time.Now().UTC()

	ev1 := makeEvent(events.TypeView, "v1", now)
	ev1.TimeOnPage = 120
	ev2 := makeEvent(events.TypeView, "v2", now)
	ev2.TimeOnPage = 65
	ev2.ScrollDepth = 80.5
	// zero metrics are absent, not averaged in
	ev3 := makeEvent(events.TypeView, "v3", now)

	result := ComputeEngagement([]events.AnalyticsEvent{ev1, ev2, ev3})

	assert.Equal(t, 92.5, result.AvgTimeOnPage)
	assert.Equal(t, 80.5, result.AvgScrollDepth)
}

func TestComputeEngagementEmpty(t *testing.T) {
	result := ComputeEngagement(nil)

	assert.Zero(t, result.BounceRate)
	assert.Zero(t, result.AvgTimeOnPage)
	assert.Zero(t, result.AvgScrollDepth)
}

func TestComputeFunnelStagesAreIndependent(t *testing.T) {
	now := time.Now().UTC()

	evs := []events.AnalyticsEvent{
		// v1 walks the full journey
		makeEvent(events.TypeView, "v1", now),
		makeEvent(events.TypeEngaged, "v1", now),
		makeEvent(events.TypeConversion, "v1", now),
		// v2 converts without any recorded engagement
		makeEvent(events.TypeView, "v2", now),
		makeEvent(events.TypeConversion, "v2", now),
		// v3 appears only through an unknown event type
		makeEvent(events.Type("heartbeat"), "v3", now),
	}

	result := ComputeFunnel(evs)

	require.Len(t, result.Stages, 4)

	assert.Equal(t, "visited", result.Stages[0].Stage)
	assert.Equal(t, 3, result.Stages[0].Count)
	assert.Equal(t, 100, result.Stages[0].Rate)

	assert.Equal(t, "viewed", result.Stages[1].Stage)
	assert.Equal(t, 2, result.Stages[1].Count)
	assert.Equal(t, 67, result.Stages[1].Rate)

	assert.Equal(t, "engaged", result.Stages[2].Stage)
	assert.Equal(t, 1, result.Stages[2].Count)

	assert.Equal(t, "converted", result.Stages[3].Stage)
	assert.Equal(t, 2, result.Stages[3].Count)

	assert.Equal(t, 66.7, result.ConversionRate)
}

func TestComputeFunnelLeadCaptureCountsAsConversion(t *testing.T) {
	now := time.Now().UTC()

	evs := []events.AnalyticsEvent{
		makeEvent(events.TypeView, "v1", now),
		makeEvent(events.TypeLeadCapture, "v1", now),
	}

	result := ComputeFunnel(evs)

	assert.Equal(t, 1, result.Stages[3].Count)
	assert.Equal(t, 100.0, result.ConversionRate)
}

func TestComputeFunnelEmpty(t *testing.T) {
	result := ComputeFunnel(nil)

	require.Len(t, result.Stages, 4)
	assert.Equal(t, 100, result.Stages[0].Rate)
	for _, stage := range result.Stages {
		assert.Zero(t, stage.Count)
	}
	assert.Zero(t, result.ConversionRate)
}

func TestComputeFunnelIgnoresAnonymousEvents(t *testing.T) {
	now := time.Now().UTC()

	evs := []events.AnalyticsEvent{
		makeEvent(events.TypeView, "", now),
	}

	result := ComputeFunnel(evs)

	assert.Zero(t, result.Stages[0].Count)
}
