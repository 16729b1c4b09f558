package analysis

import (
	"testing"
	"time"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
)

func newTestBuilder(window string) *SnapshotBuilder {
	cfg := &models.MConfig{
		Name:          "test",
		PublishWindow: window,
		Feed:          models.MFeedConfig{Name: "test-feed", RetentionHours: 36},
	}
	return NewSnapshotBuilder(cfg, time.UTC, logger.NewLogger(nil, "test"))
}

func TestSnapshotBuilder_FirstRunEmptyHistory(t *testing.T) {
	b := newTestBuilder(models.WindowDay)
	history := models.NewHistory()

	counts := map[string]int{"st-1": 10, "st-2": 3}
	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()

	snapshot := b.Build(counts, history, nowMs)

	// Two fresh series of length 1; no station has enough samples for deltas.
	if len(history.Stations) != 2 {
		t.Fatalf("expected 2 stations in history, got %d", len(history.Stations))
	}
	for id, series := range history.Stations {
		if len(series) != 1 {
			t.Errorf("station %s: expected 1 sample, got %d", id, len(series))
		}
	}

	if len(snapshot.Stations) != 0 {
		t.Errorf("expected no published stations, got %v", snapshot.Stations)
	}
	if snapshot.Totals.Pickups != 0 || snapshot.Totals.Returns != 0 {
		t.Errorf("expected zero totals, got %+v", snapshot.Totals)
	}
	if len(snapshot.Hourly) != 0 {
		t.Errorf("expected no hourly buckets, got %v", snapshot.Hourly)
	}

	if err := snapshot.Validate(); err != nil {
		t.Errorf("snapshot failed validation: %v", err)
	}
}

func TestSnapshotBuilder_PublishesNonZeroNets(t *testing.T) {
	b := newTestBuilder(models.WindowDay)
	history := models.NewHistory()

	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()

	// Seeded earlier samples, all within today's window.
	history.Stations["picked"] = []models.MSample{
		{T: nowMs - 40*60_000, Bikes: 10},
		{T: nowMs - 20*60_000, Bikes: 6}, // -4
	}
	history.Stations["returned"] = []models.MSample{
		{T: nowMs - 40*60_000, Bikes: 2},
		{T: nowMs - 20*60_000, Bikes: 5}, // +3
	}
	history.Stations["flat"] = []models.MSample{
		{T: nowMs - 40*60_000, Bikes: 8},
		{T: nowMs - 20*60_000, Bikes: 8},
	}

	// Live counts leave every net unchanged from the last sample.
	counts := map[string]int{"picked": 6, "returned": 5, "flat": 8}

	snapshot := b.Build(counts, history, nowMs)

	if len(snapshot.Stations) != 2 {
		t.Fatalf("expected 2 published stations, got %v", snapshot.Stations)
	}

	// Sorted by id: "picked" before "returned".
	if snapshot.Stations[0].ID != "picked" || snapshot.Stations[0].Net != -4 {
		t.Errorf("stations[0] = %+v, expected picked/-4", snapshot.Stations[0])
	}
	if snapshot.Stations[1].ID != "returned" || snapshot.Stations[1].Net != 3 {
		t.Errorf("stations[1] = %+v, expected returned/+3", snapshot.Stations[1])
	}

	// Totals invariant: sums of the published nets.
	if snapshot.Totals.Pickups != 4 || snapshot.Totals.Returns != 3 {
		t.Errorf("totals = %+v, expected pickups=4 returns=3", snapshot.Totals)
	}

	if err := snapshot.Validate(); err != nil {
		t.Errorf("snapshot failed validation: %v", err)
	}
}

func TestSnapshotBuilder_WindowSelection(t *testing.T) {
	nowMs := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC).UnixMilli()

	// One pickup two hours ago (inside day window, outside hour and now),
	// one return five minutes ago (inside all three).
	seed := func() *models.MHistory {
		h := models.NewHistory()
		h.Stations["st"] = []models.MSample{
			{T: nowMs - 3*3_600_000, Bikes: 10},
			{T: nowMs - 2*3_600_000, Bikes: 7}, // -3, 10:30
			{T: nowMs - 5*60_000, Bikes: 8},    // +1, 12:25
		}
		return h
	}

	tests := []struct {
		window   string
		expected int
	}{
		{window: models.WindowDay, expected: -2},
		{window: models.WindowHour, expected: 1},
		{window: models.WindowNow, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.window, func(t *testing.T) {
			b := newTestBuilder(tt.window)
			history := seed()

			snapshot := b.Build(map[string]int{"st": 8}, history, nowMs)

			if snapshot.Window != tt.window {
				t.Errorf("window = %q, expected %q", snapshot.Window, tt.window)
			}
			if len(snapshot.Stations) != 1 {
				t.Fatalf("expected 1 published station, got %v", snapshot.Stations)
			}
			if snapshot.Stations[0].Net != tt.expected {
				t.Errorf("net = %d, expected %d", snapshot.Stations[0].Net, tt.expected)
			}
		})
	}
}

func TestSnapshotBuilder_HourlyCoversFullHistory(t *testing.T) {
	// Published window is the trailing 15 minutes, but hourly buckets must
	// cover every delta in the retained history.
	b := newTestBuilder(models.WindowNow)
	history := models.NewHistory()

	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()

	history.Stations["st"] = []models.MSample{
		{T: nowMs - 10*3_600_000, Bikes: 10},
		{T: nowMs - 9*3_600_000, Bikes: 4}, // -6 at 03:00
	}

	snapshot := b.Build(map[string]int{"st": 4}, history, nowMs)

	if len(snapshot.Stations) != 0 {
		t.Errorf("old delta should not be published in the now window: %v", snapshot.Stations)
	}

	bucket, ok := snapshot.Hourly["2026-08-28T03:00"]
	if !ok {
		t.Fatalf("expected hourly bucket for 03:00, got %v", snapshot.Hourly)
	}
	if bucket.Pickups != 6 || bucket.Returns != 0 {
		t.Errorf("bucket = %+v, expected pickups=6", bucket)
	}
}

func TestSnapshotBuilder_MetadataFields(t *testing.T) {
	b := newTestBuilder(models.WindowNow)
	history := models.NewHistory()

	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()
	snapshot := b.Build(map[string]int{}, history, nowMs)

	if snapshot.GeneratedAt != "2026-08-28T12:00:00Z" {
		t.Errorf("generated_at = %q", snapshot.GeneratedAt)
	}
	if snapshot.ShortWindowMinutes != 15 {
		t.Errorf("short_window_minutes = %d, expected 15", snapshot.ShortWindowMinutes)
	}
}

func TestSnapshotBuilder_DebouncedSecondRun(t *testing.T) {
	b := newTestBuilder(models.WindowNow)
	history := models.NewHistory()

	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()

	b.Build(map[string]int{"st": 5}, history, nowMs)
	// Duplicate trigger 10 seconds later must not grow the series.
	b.Build(map[string]int{"st": 9}, history, nowMs+10_000)

	if len(history.Stations["st"]) != 1 {
		t.Errorf("series grew under duplicate trigger: %v", history.Stations["st"])
	}
}

func TestSnapshotBuilder_MissingCountLeavesHistoryUntouched(t *testing.T) {
	b := newTestBuilder(models.WindowNow)
	history := models.NewHistory()

	nowMs := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli()

	// A station skipped by the feed this run (null or absent count) must
	// keep its prior series exactly as it was.
	prior := []models.MSample{
		{T: nowMs - 10*60_000, Bikes: 4},
		{T: nowMs - 5*60_000, Bikes: 6},
	}
	history.Stations["skipped"] = append([]models.MSample(nil), prior...)

	b.Build(map[string]int{"other": 3}, history, nowMs)

	got := history.Stations["skipped"]
	if len(got) != len(prior) {
		t.Fatalf("skipped station's series changed: %v", got)
	}
	for i := range prior {
		if got[i] != prior[i] {
			t.Errorf("sample %d changed: %+v -> %+v", i, prior[i], got[i])
		}
	}
}

func TestSnapshotBuilder_Prune(t *testing.T) {
	b := newTestBuilder(models.WindowNow)
	history := models.NewHistory()

	nowMs := int64(100 * 3_600_000)
	history.Stations["st"] = []models.MSample{
		{T: nowMs - 37*3_600_000, Bikes: 1}, // beyond 36h retention
		{T: nowMs - 1*3_600_000, Bikes: 2},
	}

	b.Prune(history, nowMs)

	if len(history.Stations["st"]) != 1 {
		t.Errorf("expected 1 surviving sample, got %v", history.Stations["st"])
	}
}
