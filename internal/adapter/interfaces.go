package adapter

import (
	"context"

	"github.com/pylin/shelflife/models"
)

// RemoteStore is the boundary to the remote CMS acting as the system of
// record. Implementations translate between the local entity shape and the
// remote field schema; callers never see remote field names.
//
// Write operations return ErrWriteUnavailable without touching the network
// when the write credential is missing or still the documented placeholder.
type RemoteStore interface {
	// List fetches every published entry of the given kind. Used only at
	// bootstrap.
	List(ctx context.Context, kind models.Kind) ([]models.Entity, error)

	// Create writes a new entry and returns the remote identity assigned by
	// the CMS.
	Create(ctx context.Context, kind models.Kind, entity models.Entity) (string, error)

	// Update overwrites the mapped fields of an existing entry.
	Update(ctx context.Context, kind models.Kind, remoteID string, entity models.Entity) error

	// Delete unpublishes and removes an entry.
	Delete(ctx context.Context, kind models.Kind, remoteID string) error

	// Ping verifies read connectivity to the CMS space.
	Ping(ctx context.Context) error
}
