package adapter

import "errors"

// Errors the rest of the application branches on. Everything else coming out
// of the adapter is an opaque transport or CMS error.
var (
	// ErrWriteUnavailable means no usable management credential is configured.
	// Mutations short-circuit before any network I/O and must be queued.
	ErrWriteUnavailable = errors.New("remote write capability unavailable")
	// ErrUnauthorized means the CMS rejected the configured credentials.
	ErrUnauthorized = errors.New("remote rejected credentials")
	// ErrRemoteNotFound means the targeted entry does not exist remotely.
	ErrRemoteNotFound = errors.New("remote entry not found")
	// ErrValidation means the CMS rejected the entry fields.
	ErrValidation = errors.New("remote validation failed")
)
