package models

import (
	"math"
	"time"
)

// Kind selects one of the two tracked collections.
type Kind string

const (
	KindFood         Kind = "food"
	KindSubscription Kind = "subscription"
)

// Valid reports whether k is one of the known entity kinds.
func (k Kind) Valid() bool {
	return k == KindFood || k == KindSubscription
}

// Status values. Food status is user-set and defaults to StatusGood;
// subscription status is derived from the days remaining until the next
// payment date.
const (
	StatusGood      = "good"
	StatusActive    = "active"
	StatusAttention = "attention"
	StatusExpiring  = "expiring"
)

// DateLayout is the wire format for all entity dates, both locally and in the
// remote CMS (Contentful date fields).
const DateLayout = "2006-01-02"

// Entity is a single tracked record: a food item or a subscription, tagged by
// Kind. The two kinds share one shape; Brand is food-only and URL is
// subscription-only.
type Entity struct {
	// LocalID is assigned by the entity store at creation and is the primary
	// key for every local operation. Unique within its kind, never reused for
	// the process lifetime.
	LocalID int64 `json:"id"`

	// RemoteID is the identifier assigned by the remote CMS once a create has
	// succeeded there. Absence does not mean the entity is new — every remote
	// write attempt so far may have failed.
	RemoteID string `json:"remoteId,omitempty"`

	Kind Kind `json:"kind"`

	Name string `json:"name"`

	// Brand is a free-text brand/quantity display string (food only). The
	// remote schema stores a numeric amount, so the adapter parses and
	// reconstructs this field lossily.
	Brand string `json:"brand,omitempty"`

	// URL is the subscription's site (subscription only).
	URL string `json:"url,omitempty"`

	// Price is an opaque display string such as "NT$ 530". It is never used
	// for arithmetic locally; the adapter parses its digits for the remote
	// schema.
	Price string `json:"price"`

	Status string `json:"status"`

	// TargetDate is the expiry date (food) or next payment date
	// (subscription) in DateLayout format. Empty means unset.
	TargetDate string `json:"targetDate"`

	// DaysRemaining is derived from TargetDate on every read and mutation;
	// it is never a source of truth.
	DaysRemaining int `json:"daysRemaining"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// PendingSyncID references the retry-queue entry covering the last failed
	// remote write for this entity. Zero when no write is outstanding. An
	// entity has at most one outstanding entry at a time: newer mutations
	// supersede the pending entry instead of appending another.
	PendingSyncID int64 `json:"pendingSyncId,omitempty"`
}

// SyncState is the caller-visible sync outcome of a mutation.
type SyncState string

const (
	// SyncStateSynced means the entity exists remotely and nothing is queued.
	SyncStateSynced SyncState = "synced"
	// SyncStatePending means the entity is saved locally and the remote write
	// is still outstanding (in flight or queued for retry).
	SyncStatePending SyncState = "pending"
)

// SyncState derives the entity's sync outcome from its remote identity and
// pending queue reference.
func (e Entity) SyncState() SyncState {
	if e.RemoteID != "" && e.PendingSyncID == 0 {
		return SyncStateSynced
	}
	return SyncStatePending
}

// Recompute refreshes the derived fields against now. Subscription status is
// fully derived; food status is user-set and left untouched.
func (e *Entity) Recompute(now time.Time) {
	e.DaysRemaining = DaysRemainingAt(e.TargetDate, now)
	if e.Kind == KindSubscription {
		e.Status = SubscriptionStatusAt(e.TargetDate, now)
	}
}

// EntityPatch carries the partial fields of an update. Empty fields leave the
// existing value in place.
type EntityPatch struct {
	Name       string `json:"name,omitempty"`
	Brand      string `json:"brand,omitempty"`
	URL        string `json:"url,omitempty"`
	Price      string `json:"price,omitempty"`
	Status     string `json:"status,omitempty"`
	TargetDate string `json:"targetDate,omitempty"`
}

// DaysRemainingAt returns the number of whole days from now until the given
// date, rounded up and floored at zero. An empty or unparsable date counts as
// zero days, matching how missing dates have always been displayed.
func DaysRemainingAt(date string, now time.Time) int {
	if date == "" {
		return 0
	}
	target, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}

	days := int(math.Ceil(target.Sub(now.UTC()).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days
}

// SubscriptionStatusAt derives a subscription's status from the days
// remaining until its next payment: 3 or fewer days is expiring, 7 or fewer
// needs attention, anything later is active.
func SubscriptionStatusAt(date string, now time.Time) string {
	days := DaysRemainingAt(date, now)
	switch {
	case days <= 3:
		return StatusExpiring
	case days <= 7:
		return StatusAttention
	default:
		return StatusActive
	}
}
