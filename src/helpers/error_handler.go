package helpers

import (
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type BikeflowError struct {
	Message string
	Cause   error
}

func (e *BikeflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BikeflowError) Unwrap() error {
	return e.Cause
}

// Distinct error types for the run's failure taxonomy:
//   - FetchError: upstream feed unreachable or non-success status. Fatal,
//     aborts the run before any write.
//   - FeedDataError: a single station's data is malformed. Recovered by
//     skipping that station; never fatal.
//   - StorageError: history/snapshot persistence failed. Fatal on save;
//     a missing or unreadable history on load is NOT an error (empty history).
//   - ConfigurationError: invalid configuration at startup.
type ConfigurationError struct{ BikeflowError }
type FetchError struct{ BikeflowError }
type FeedDataError struct{ BikeflowError }
type StorageError struct{ BikeflowError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewFetchError(message string, cause error) *FetchError {
	return &FetchError{BikeflowError{Message: message, Cause: cause}}
}

func NewFeedDataError(message string, cause error) *FeedDataError {
	return &FeedDataError{BikeflowError{Message: message, Cause: cause}}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{BikeflowError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{BikeflowError{Message: message, Cause: cause}}
}
