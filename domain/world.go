// Package domain holds the records exchanged between the service, its storage and the API.
package domain

import (
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-caves/game/cavegen"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned by world caches when nothing is stored for a key.
var ErrCacheMiss = errors.New("world not cached")

// WorldSnapshot is the persisted description of a session's world. The grid is stored for
// inspection; a session is restored by regenerating from Seed, which reproduces Rows exactly.
type WorldSnapshot struct {
	ID        uuid.UUID       `bson:"_id"`
	Seed      uint32          `bson:"seed"`
	Width     int             `bson:"width"`
	Height    int             `bson:"height"`
	Rows      []string        `bson:"rows"`
	Report    *cavegen.Report `bson:"report"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

// CachedWorld is a generated grid keyed by seed and dimensions.
type CachedWorld struct {
	Seed   uint32          `bson:"seed"`
	Width  int             `bson:"width"`
	Height int             `bson:"height"`
	Grid   string          `bson:"grid"`
	Report *cavegen.Report `bson:"report"`
}

// WorldInfo describes a freshly generated session world.
type WorldInfo struct {
	ID              uuid.UUID       `json:"id"`
	Seed            uint32          `json:"seed"`
	SeedSynthesized bool            `json:"seed_synthesized"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Report          *cavegen.Report `json:"report"`
}

// WorldView is a consistent read of a session at one instant.
type WorldView struct {
	ID      uuid.UUID          `json:"id"`
	Seed    uint32             `json:"seed"`
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Player  world.Position     `json:"player"`
	Phase   string             `json:"phase"`
	Current *movement.Request  `json:"current"`
	Queue   []movement.Request `json:"queue"`
	Rows    []string           `json:"rows"`
}

// ViewportView is the window of a world centered on the player.
type ViewportView struct {
	Offset world.Position `json:"offset"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Rows   []string       `json:"rows"`
}
