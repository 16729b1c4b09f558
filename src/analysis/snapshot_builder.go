package analysis

import (
	"sort"
	"time"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
	"bikeflow-observer/src/utils"
)

// -----------------------------------------------------------------------------
// SnapshotBuilder orchestrates one run: ingest the fetched counts, derive
// deltas per station, aggregate windows and assemble the published snapshot.
// The caller prunes and persists afterwards; Build itself never prunes, so
// window math always sees the full pre-prune history.
// -----------------------------------------------------------------------------

type SnapshotBuilder struct {
	Config     *models.MConfig
	Store      *SampleStore
	Deriver    *DeltaDeriver
	Aggregator *WindowAggregator
	Logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSnapshotBuilder(cfg *models.MConfig, loc *time.Location, log *logger.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		Config:     cfg,
		Store:      NewSampleStore(log),
		Deriver:    NewDeltaDeriver(),
		Aggregator: NewWindowAggregator(loc),
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// Build ingests the live counts into the history and assembles the snapshot.
// The history is mutated in place (append only; pruning is the caller's
// later step). All window math uses the single nowMs passed in, never a
// re-read clock, so one run is internally consistent.
func (b *SnapshotBuilder) Build(counts map[string]int, history *models.MHistory, nowMs int64) *models.MSnapshot {
	// 1. Ingest the new sample batch.
	recorded := 0
	for stationID, bikes := range counts {
		if b.Store.Append(history, stationID, bikes, nowMs) {
			recorded++
		}
	}
	b.Logger.Info("Ingested %d/%d stations (debounced: %d)", recorded, len(counts), len(counts)-recorded)

	// 2. Derive deltas for every station with enough samples.
	deltasByStation := make(map[string][]models.MDeltaEvent)
	for stationID, series := range history.Stations {
		deltas := b.Deriver.Derive(series)
		if len(deltas) > 0 {
			deltasByStation[stationID] = deltas
		}
	}

	// 3. Per-station net over the published window.
	windows := b.Aggregator.CanonicalWindows(nowMs)
	published := windows[b.Config.PublishWindow]

	// Non-nil so the published artifact serializes as [] rather than null.
	stations := []models.MStationNet{}
	totals := models.MTotals{}

	for stationID, deltas := range deltasByStation {
		net := b.Aggregator.SumWindow(deltas, published.From, published.To)
		if net == 0 {
			continue
		}

		stations = append(stations, models.MStationNet{ID: stationID, Net: net})

		// Totals are the sums of the published per-station nets by
		// construction, not a separate pass over raw deltas.
		if net < 0 {
			totals.Pickups += -net
		} else {
			totals.Returns += net
		}
	}

	// Byte-stable output across runs with identical data.
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].ID < stations[j].ID
	})

	// 4. Hourly buckets over the full retained history, all stations.
	hourly := b.Aggregator.HourlyTotals(deltasByStation)

	return &models.MSnapshot{
		GeneratedAt:        time.UnixMilli(nowMs).In(b.Aggregator.Location).Format(time.RFC3339),
		Window:             b.Config.PublishWindow,
		ShortWindowMinutes: utils.ShortWindowMinutes,
		Stations:           stations,
		Totals:             totals,
		Hourly:             hourly,
	}
}

// -----------------------------------------------------------------------------

// Prune applies the retention policy to the history. Exposed separately
// from Build because ordering matters: snapshot first, prune second,
// persist last.
func (b *SnapshotBuilder) Prune(history *models.MHistory, nowMs int64) {
	before := history.SampleCount()
	b.Store.Prune(history, nowMs, b.Config.Feed.RetentionHours)
	b.Logger.Info("Pruned history: %d -> %d samples (%d stations)",
		before, history.SampleCount(), len(history.Stations))
}
