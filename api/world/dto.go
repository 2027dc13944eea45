// Package worldapi exposes world sessions over HTTP.
package worldapi

import (
	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/game/world"
)

// CreateWorldRequest asks for a new world. Every field is optional.
type CreateWorldRequest struct {
	Seed   string `json:"seed"`
	Width  int    `json:"width" binding:"min=0,max=512"`
	Height int    `json:"height" binding:"min=0,max=512"`
}

// CreateWorldResponse carries the new world and the token controlling it.
type CreateWorldResponse struct {
	*dmn.WorldInfo
	Token string `json:"token"`
}

// RegenerateRequest rebuilds a world, drawing a seed when Seed is empty.
type RegenerateRequest struct {
	Seed string `json:"seed"`
}

// PositionRequest names a single cell.
type PositionRequest struct {
	X *int `json:"x" form:"x" binding:"required"`
	Y *int `json:"y" form:"y" binding:"required"`
}

func (p PositionRequest) position() world.Position {
	return world.Position{X: *p.X, Y: *p.Y}
}

// PathRequest asks for a shortest path between two cells.
type PathRequest struct {
	From *world.Position `json:"from" binding:"required"`
	To   *world.Position `json:"to" binding:"required"`
}

// PathResponse is a path query result. Path is null when the destination is unreachable.
type PathResponse struct {
	Path   []world.Position `json:"path"`
	Found  bool             `json:"found"`
	Length int              `json:"length"`
}

// ViewportRequest sizes the window returned around the player.
type ViewportRequest struct {
	Width  int `form:"width" binding:"required,min=1,max=512"`
	Height int `form:"height" binding:"required,min=1,max=512"`
}

// CellResponse describes one cell.
type CellResponse struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	State    string `json:"state"`
	Walkable bool   `json:"walkable"`
}
