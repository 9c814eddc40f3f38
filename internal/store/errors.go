package store

import "errors"

var (
	// ErrQueueEntryNotFound is returned when an operation targets a queue id
	// that does not exist.
	ErrQueueEntryNotFound = errors.New("queue entry not found")
)
