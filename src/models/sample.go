package models

// MSample represents one observation of available bikes at a station.
// Immutable once recorded; owned by the station's series inside MHistory.
type MSample struct {
	T     int64 `json:"t"`     // milliseconds since epoch
	Bikes int   `json:"bikes"` // non-negative count at time T
}

// -----------------------------------------------------------------------------

// MHistory is the persisted per-station sample history.
// Each series is append-only and non-decreasing in T. The persisted file
// (or table) is the only continuity mechanism between runs.
type MHistory struct {
	Stations map[string][]MSample `json:"stations"`
}

// -----------------------------------------------------------------------------

// NewHistory creates an empty history.
func NewHistory() *MHistory {
	return &MHistory{
		Stations: make(map[string][]MSample),
	}
}

// -----------------------------------------------------------------------------

// SampleCount returns the total number of samples across all stations.
func (h *MHistory) SampleCount() int {
	total := 0
	for _, series := range h.Stations {
		total += len(series)
	}
	return total
}
