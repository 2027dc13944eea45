package i

import (
	"context"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
)

// WorldSessionManager owns the live worlds and serialises every mutation of each one.
type WorldSessionManager interface {
	// Create generates a world from seedInput and starts a session for it. An empty
	// seedInput draws a seed, reported back in the result.
	Create(ctx context.Context, seedInput string, width, height int) (*dmn.WorldInfo, error)

	// Regenerate cancels all navigation and rebuilds the session's world in place.
	Regenerate(ctx context.Context, id uuid.UUID, seedInput string) (*dmn.WorldInfo, error)

	// View returns a consistent read of the session.
	View(id uuid.UUID) (*dmn.WorldView, error)

	// Cell returns a single cell.
	Cell(id uuid.UUID, pos world.Position) (world.Cell, error)

	// Viewport returns a window of the given size centered on the player.
	Viewport(id uuid.UUID, width, height int) (*dmn.ViewportView, error)

	// RandomEmpty picks an empty cell with the session's seeded generator.
	RandomEmpty(id uuid.UUID) (world.Position, error)

	// FindPath runs a search on a copy of the world, leaving the session untouched.
	FindPath(ctx context.Context, id uuid.UUID, from, to world.Position) ([]world.Position, error)

	// Enqueue, Remove and CancelAll drive the session's movement queue.
	Enqueue(id uuid.UUID, pos world.Position) (movement.Request, error)
	Remove(id uuid.UUID, index int) (movement.Request, error)
	CancelAll(id uuid.UUID) error

	// Wander enqueues a seeded random empty destination.
	Wander(id uuid.UUID) (movement.Request, error)
}
