package interfaces

import "bikeflow-observer/src/models"

// -----------------------------------------------------------------------------
// IHistoryStore defines the contract for history and snapshot persistence.
// -----------------------------------------------------------------------------

type IHistoryStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the backing files or database schema.
	Initialize() error

	// -----------------------------------------------------------------------------

	// LoadHistory reads the persisted history. An absent or unreadable
	// history loads as empty, never as an error.
	LoadHistory() (*models.MHistory, error)

	// -----------------------------------------------------------------------------

	// SaveHistory persists the (already pruned) history.
	SaveHistory(history *models.MHistory) error

	// -----------------------------------------------------------------------------

	// SaveSnapshot publishes the run's snapshot artifact.
	SaveSnapshot(snapshot *models.MSnapshot) error

	// -----------------------------------------------------------------------------

	// LatestSnapshot returns the most recently published snapshot, or nil
	// if none has been published yet. Used by serve mode.
	LatestSnapshot() (*models.MSnapshot, error)

	// -----------------------------------------------------------------------------

	// Close releases the underlying resources
	Close() error
}
