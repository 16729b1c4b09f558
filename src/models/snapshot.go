package models

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------

// MStationNet is the net flow for one station over the published window.
// Stations with a net of exactly 0 are omitted from the snapshot.
type MStationNet struct {
	ID  string `json:"id"`
	Net int    `json:"net"`
}

// -----------------------------------------------------------------------------

// MTotals holds system-wide pickup/return totals. Both are non-negative:
// pickups is the sum of -net over stations with negative net, returns the
// sum of net over stations with positive net.
type MTotals struct {
	Pickups int `json:"pickups"`
	Returns int `json:"returns"`
}

// -----------------------------------------------------------------------------

// MHourlyTotals holds pickup/return counts for one hour bucket.
type MHourlyTotals struct {
	Pickups int `json:"pickups"`
	Returns int `json:"returns"`
}

// -----------------------------------------------------------------------------

// MSnapshot is the published artifact of one run. Fully recomputed each
// run; not cumulative across runs except through the persisted history.
type MSnapshot struct {
	GeneratedAt        string                   `json:"generated_at"` // ISO-8601 of the run's fixed now
	Window             string                   `json:"window"`       // "day" | "hour" | "now"
	ShortWindowMinutes int                      `json:"short_window_minutes"`
	Stations           []MStationNet            `json:"stations"`
	Totals             MTotals                  `json:"totals"`
	Hourly             map[string]MHourlyTotals `json:"hourly"`
}

// -----------------------------------------------------------------------------

// Validate checks that the snapshot is internally consistent.
func (s *MSnapshot) Validate() error {
	if s.GeneratedAt == "" {
		return errors.New("generated_at must not be empty")
	}
	if s.Window != WindowDay && s.Window != WindowHour && s.Window != WindowNow {
		return fmt.Errorf("unknown window identifier: %q", s.Window)
	}
	if s.Totals.Pickups < 0 || s.Totals.Returns < 0 {
		return errors.New("totals must be non-negative")
	}

	pickups, returns := 0, 0
	for _, st := range s.Stations {
		if st.ID == "" {
			return errors.New("station id must not be empty")
		}
		if st.Net == 0 {
			return fmt.Errorf("station %s published with zero net", st.ID)
		}
		if st.Net < 0 {
			pickups += -st.Net
		} else {
			returns += st.Net
		}
	}

	if pickups != s.Totals.Pickups || returns != s.Totals.Returns {
		return fmt.Errorf("totals {%d %d} do not match published nets {%d %d}",
			s.Totals.Pickups, s.Totals.Returns, pickups, returns)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Window identifiers for the published aggregation window.
const (
	WindowDay  = "day"
	WindowHour = "hour"
	WindowNow  = "now"
)
