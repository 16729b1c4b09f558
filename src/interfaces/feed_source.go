package interfaces

import "context"

// -----------------------------------------------------------------------------
// IFeedSource is the contract for the upstream availability feed. It yields
// a mapping from station id to a non-negative bike count; stations whose
// live count is missing or malformed are absent from the map, never an error.
// -----------------------------------------------------------------------------

type IFeedSource interface {

	// Name returns the unique identifier of the feed
	Name() string

	// -----------------------------------------------------------------------------

	// FetchCounts retrieves the current per-station bike counts. The two
	// underlying documents (information, status) are independent reads and
	// may be fetched concurrently. A transport failure or non-success
	// status is fatal for the run.
	FetchCounts(ctx context.Context) (map[string]int, error)
}
