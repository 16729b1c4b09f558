package models

// MDeltaEvent is a signed count change between two consecutive samples of
// the same station. Negative = net bikes removed (pickups dominate),
// positive = net bikes added (returns dominate). Zero deltas are never
// emitted. Ephemeral: recomputed from the history every run, never persisted.
type MDeltaEvent struct {
	T     int64 `json:"t"`
	Delta int   `json:"delta"`
}
