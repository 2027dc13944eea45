package i

import (
	"context"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
)

// WorldCache stores generated grids so a seed is only generated once per size.
type WorldCache interface {
	// Get returns the cached world, or an error wrapping ErrCacheMiss when absent.
	Get(ctx context.Context, seed uint32, width, height int) (*dmn.CachedWorld, error)

	// Put stores a generated world.
	Put(ctx context.Context, world *dmn.CachedWorld) error

	// Lock serialises generation of one seed and size across instances. The returned
	// function releases the lock.
	Lock(ctx context.Context, seed uint32, width, height int) (func(), error)
}
