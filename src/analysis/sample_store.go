package analysis

import (
	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
	"bikeflow-observer/src/utils"
)

// -----------------------------------------------------------------------------
// SampleStore maintains the per-station history across runs with bounded
// retention and debounced, near-idempotent ingestion.
// -----------------------------------------------------------------------------

type SampleStore struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSampleStore(log *logger.Logger) *SampleStore {
	return &SampleStore{Logger: log}
}

// -----------------------------------------------------------------------------

// Append records {nowMs, bikes} for the station, but only if the series is
// empty or its last sample is older than nowMs - 60s. The debounce makes
// ingestion safe to call repeatedly in quick succession (duplicate cron
// triggers) without growing the series. A station unknown to the history
// starts a fresh series. Returns whether a sample was recorded.
func (s *SampleStore) Append(history *models.MHistory, stationID string, bikes int, nowMs int64) bool {
	if history.Stations == nil {
		history.Stations = make(map[string][]models.MSample)
	}

	series := history.Stations[stationID]
	if len(series) > 0 {
		last := series[len(series)-1]
		if last.T >= nowMs-utils.AppendDebounceMs {
			return false
		}
	}

	history.Stations[stationID] = append(series, models.MSample{T: nowMs, Bikes: bikes})
	return true
}

// -----------------------------------------------------------------------------

// Prune drops every sample older than the retention horizon and removes
// stations whose series become empty. Must run after snapshot computation
// so the current run's windows never lose samples to pruning.
func (s *SampleStore) Prune(history *models.MHistory, nowMs int64, retentionHours int) {
	cutoff := nowMs - int64(retentionHours)*utils.MsPerHour

	for id, series := range history.Stations {
		kept := series[:0]
		for _, sample := range series {
			if sample.T >= cutoff {
				kept = append(kept, sample)
			}
		}

		if len(kept) == 0 {
			delete(history.Stations, id)
			continue
		}
		history.Stations[id] = kept
	}
}
