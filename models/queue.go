package models

import "time"

// Action is the remote mutation recorded by a queue entry.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// QueueEntry is one unresolved (or historically resolved) remote mutation in
// the retry queue. Entries are created only when a remote write fails or is
// skipped, mutated only by mark-resolved, and removed only by explicit
// pruning.
type QueueEntry struct {
	ID     int64  `json:"id"`
	Action Action `json:"action"`
	Kind   Kind   `json:"kind"`

	// Payload is the entity snapshot carried by create and update entries.
	// Nil for deletes.
	Payload *Entity `json:"data,omitempty"`

	// RemoteID is the remote identity targeted by a delete entry.
	RemoteID string `json:"remoteId,omitempty"`

	EnqueuedAt time.Time  `json:"enqueuedAt"`
	Synced     bool       `json:"synced"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
}

// QueueSnapshot is the persisted form of the retry queue: pending mutations
// partitioned by kind plus the last global sync timestamp. It round-trips
// exactly through JSON.
type QueueSnapshot struct {
	PendingFood          []QueueEntry `json:"pendingFood"`
	PendingSubscriptions []QueueEntry `json:"pendingSubscriptions"`
	LastSync             *time.Time   `json:"lastSync"`
}
