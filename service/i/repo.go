package i

import (
	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/google/uuid"
)

// WorldRepo defines the interface for world snapshot persistence.
type WorldRepo interface {
	// Save inserts or updates a snapshot.
	// If a snapshot with the same ID exists, it is replaced. Otherwise, a new one is created.
	Save(snapshot *dmn.WorldSnapshot) error

	// ByID retrieves a snapshot by its session ID.
	// Returns an error if the snapshot is not found or in case of an unexpected error.
	ByID(id uuid.UUID) (*dmn.WorldSnapshot, error)
}
