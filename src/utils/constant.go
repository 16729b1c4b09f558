package utils

// -----------------------------------------------------------------------------

// Constants for ingestion and windowing.
// The debounce window guards against duplicate ingestion when a run is
// triggered twice within the same minute. Retention (36h) exceeds the
// largest published window (1 day) plus margin, so pruning never removes
// samples needed by the current run's window calculations.
const (
	// AppendDebounceMs is the minimum spacing between recorded samples of
	// one station. A new sample is recorded only if the last one is older
	// than now - AppendDebounceMs.
	AppendDebounceMs = 60_000

	// DefaultRetentionHours bounds the persisted history per station.
	DefaultRetentionHours = 36

	// ShortWindowMinutes is the trailing "now" window length, published as
	// short_window_minutes in every snapshot.
	ShortWindowMinutes = 15

	// MsPerHour is one hour in milliseconds.
	MsPerHour = 3_600_000
)

// -----------------------------------------------------------------------------

// HourBucketLayout formats an hour-truncated time into the snapshot's
// hourly map key, e.g. "2026-08-28T14:00".
const HourBucketLayout = "2006-01-02T15:00"
