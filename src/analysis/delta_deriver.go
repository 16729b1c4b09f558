package analysis

import (
	"bikeflow-observer/src/models"
)

// -----------------------------------------------------------------------------
// DeltaDeriver turns a chronologically ordered sample series into signed
// delta events.
// -----------------------------------------------------------------------------

type DeltaDeriver struct{}

// -----------------------------------------------------------------------------

func NewDeltaDeriver() *DeltaDeriver {
	return &DeltaDeriver{}
}

// -----------------------------------------------------------------------------

// Derive computes curr.Bikes - prev.Bikes for each adjacent pair and emits
// an event at the later sample's timestamp when the delta is non-zero.
// Output preserves the input's ascending time order, with length at most
// len(samples)-1. A series shorter than 2 yields no events: there is no
// derivable activity yet, not an error.
//
// The deltas are a net signal. Simultaneous pickups and returns within one
// sampling interval cancel out and only the net surfaces.
func (d *DeltaDeriver) Derive(samples []models.MSample) []models.MDeltaEvent {
	if len(samples) < 2 {
		return nil
	}

	events := make([]models.MDeltaEvent, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		delta := samples[i].Bikes - samples[i-1].Bikes
		if delta == 0 {
			continue
		}
		events = append(events, models.MDeltaEvent{T: samples[i].T, Delta: delta})
	}

	return events
}
