package models

import "time"

// KindReport breaks the queue down for a single entity kind.
type KindReport struct {
	Total   int `json:"total"`
	Synced  int `json:"synced"`
	Pending int `json:"pending"`
}

// SyncReport summarises the retry queue for manual reconciliation.
type SyncReport struct {
	TotalItems    int        `json:"totalItems"`
	SyncedItems   int        `json:"syncedItems"`
	PendingItems  int        `json:"pendingItems"`
	Food          KindReport `json:"food"`
	Subscriptions KindReport `json:"subscriptions"`
	LastSync      *time.Time `json:"lastSync"`
}

// ExportInstructions tells the operator how queued local fields map onto the
// remote CMS schema when entries have to be recreated by hand.
type ExportInstructions struct {
	Food         string              `json:"food"`
	Subscription string              `json:"subscription"`
	Fields       map[string][]string `json:"fields"`
}

// ExportSnapshot is the transportable document produced by export-pending:
// every unresolved queue entry plus remediation instructions.
type ExportSnapshot struct {
	ExportID     string             `json:"exportId"`
	ExportTime   time.Time          `json:"exportTime"`
	Items        []QueueEntry       `json:"items"`
	Instructions ExportInstructions `json:"instructions"`
}
