package analysis

import (
	"time"

	"bikeflow-observer/src/models"
	"bikeflow-observer/src/utils"
)

// -----------------------------------------------------------------------------
// WindowAggregator sums delta events over time windows. Window boundaries
// (midnight, top of hour) are computed in an explicitly configured zone
// rather than whatever zone the container happens to run in.
// -----------------------------------------------------------------------------

type WindowAggregator struct {
	Location *time.Location
}

// -----------------------------------------------------------------------------

func NewWindowAggregator(loc *time.Location) *WindowAggregator {
	if loc == nil {
		loc = time.Local
	}
	return &WindowAggregator{Location: loc}
}

// -----------------------------------------------------------------------------

// SumWindow returns the net of all deltas with fromMs <= t <= toMs.
// Inclusive of toMs, exclusive below fromMs. Deltas must be ascending in
// time (DeltaDeriver guarantees this): the scan walks backward from the
// most recent event and terminates at the first event before fromMs.
func (w *WindowAggregator) SumWindow(deltas []models.MDeltaEvent, fromMs, toMs int64) int {
	net := 0
	for i := len(deltas) - 1; i >= 0; i-- {
		if deltas[i].T > toMs {
			continue
		}
		if deltas[i].T < fromMs {
			break
		}
		net += deltas[i].Delta
	}
	return net
}

// -----------------------------------------------------------------------------

// MWindowBounds holds the [From, To] millisecond range of one canonical window.
type MWindowBounds struct {
	From int64
	To   int64
}

// -----------------------------------------------------------------------------

// CanonicalWindows returns the three windows computed every run from the
// run's single fixed now:
//
//	day:  midnight of now (configured zone) -> now
//	hour: top of the current hour          -> now
//	now:  trailing 15 minutes              -> now
//
// All three are always computable; exactly one is selected for publication.
func (w *WindowAggregator) CanonicalWindows(nowMs int64) map[string]MWindowBounds {
	now := time.UnixMilli(nowMs).In(w.Location)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, w.Location)
	hourStart := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, w.Location)

	return map[string]MWindowBounds{
		models.WindowDay:  {From: midnight.UnixMilli(), To: nowMs},
		models.WindowHour: {From: hourStart.UnixMilli(), To: nowMs},
		models.WindowNow:  {From: nowMs - int64(utils.ShortWindowMinutes)*60_000, To: nowMs},
	}
}

// -----------------------------------------------------------------------------

// HourlyTotals buckets every delta event of every station in the full
// retained history by the hour it occurred in, accumulating pickups
// (absolute negative deltas) and returns (positive deltas) separately.
// This is a full-history summary, independent of the published window.
func (w *WindowAggregator) HourlyTotals(deltasByStation map[string][]models.MDeltaEvent) map[string]models.MHourlyTotals {
	hourly := make(map[string]models.MHourlyTotals)

	for _, deltas := range deltasByStation {
		for _, ev := range deltas {
			key := w.HourBucketKey(ev.T)
			bucket := hourly[key]
			if ev.Delta < 0 {
				bucket.Pickups += -ev.Delta
			} else {
				bucket.Returns += ev.Delta
			}
			hourly[key] = bucket
		}
	}

	return hourly
}

// -----------------------------------------------------------------------------

// HourBucketKey truncates a timestamp to the start of its hour in the
// configured zone and formats it as the snapshot's hourly map key.
func (w *WindowAggregator) HourBucketKey(tMs int64) string {
	return time.UnixMilli(tMs).In(w.Location).Format(utils.HourBucketLayout)
}
