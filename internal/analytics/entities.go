package analytics

import (
	"sort"

	"pagelink/internal/events"
)

// TopEntityLimit caps the top assets/links/collections lists.
const TopEntityLimit = 5

// EntityStat is the aggregated activity for one catalog entity (asset,
// short link or collection).
type EntityStat struct {
	ID             uint
	Views          int
	Downloads      int
	UniqueVisitors int
}

// EntityRollup holds the per-entity activity tables for one window.
type EntityRollup struct {
	Assets      []EntityStat
	Links       []EntityStat
	Collections []EntityStat
}

type entityAccumulator struct {
	views     int
	downloads int
	visitors  map[string]struct{}
}

// RollupEntities folds events into per-asset, per-link and per-collection
// activity, ranked by views. Events not referencing an entity are
// ignored; unknown event types contribute visitors only.
func RollupEntities(evs []events.AnalyticsEvent) EntityRollup {
	assets := make(map[uint]*entityAccumulator)
	links := make(map[uint]*entityAccumulator)
	collections := make(map[uint]*entityAccumulator)

	for i := range evs {
		ev := &evs[i]
		if ev.AssetID != nil {
			accumulate(assets, *ev.AssetID, ev)
		}
		if ev.LinkID != nil {
			accumulate(links, *ev.LinkID, ev)
		}
		if ev.CollectionID != nil {
			accumulate(collections, *ev.CollectionID, ev)
		}
	}

	return EntityRollup{
		Assets:      rank(assets, TopEntityLimit),
		Links:       rank(links, TopEntityLimit),
		Collections: rank(collections, TopEntityLimit),
	}
}

func accumulate(m map[uint]*entityAccumulator, id uint, ev *events.AnalyticsEvent) {
	acc, ok := m[id]
	if !ok {
		acc = &entityAccumulator{visitors: make(map[string]struct{})}
		m[id] = acc
	}

	switch {
	case ev.Type.CountsAsView():
		acc.views++
	case ev.Type == events.TypeDownload:
		acc.downloads++
	}
	if visitor, ok := ev.Visitor(); ok {
		acc.visitors[visitor] = struct{}{}
	}
}

func rank(m map[uint]*entityAccumulator, limit int) []EntityStat {
	out := make([]EntityStat, 0, len(m))
	for id, acc := range m {
		out = append(out, EntityStat{
			ID:             id,
			Views:          acc.views,
			Downloads:      acc.downloads,
			UniqueVisitors: len(acc.visitors),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
