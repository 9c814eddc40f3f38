package service

import "errors"

var (
	// ErrEntityNotFound is returned when an operation references a local id
	// that does not exist in the targeted collection.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnknownKind is returned for a kind outside {food, subscription}.
	ErrUnknownKind = errors.New("unknown entity kind")
)
