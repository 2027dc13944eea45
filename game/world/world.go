/*
Package world holds the authoritative grid of cell states.

A World is a fixed-size rectangle of cells; every position inside it always has exactly one
cell. Structural tags (Empty, Wall, Player) describe the world while the remaining tags are
transient annotations that can always be reset back to Empty without losing information,
because walls are never annotated.
*/
package world

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/beka-birhanu/vinom-caves/game/rng"
)

const (
	MaxDimension = 512
)

var (
	ErrInvalidDimensions = errors.New("invalid world dimensions")
	ErrMalformedGrid     = errors.New("malformed grid text")
)

// World is a rectangular grid of cells.
type World struct {
	width  int
	height int
	cells  []CellState // Row-major cell states.
}

// New creates a world of the given dimensions with every cell Empty.
func New(width, height int) (*World, error) {
	if min(width, height) <= 0 || max(width, height) > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	return &World{
		width:  width,
		height: height,
		cells:  make([]CellState, width*height),
	}, nil
}

// Width returns the number of columns.
func (w *World) Width() int { return w.width }

// Height returns the number of rows.
func (w *World) Height() int { return w.height }

// Size returns the total number of cells.
func (w *World) Size() int { return w.width * w.height }

// InBounds reports whether pos lies inside the world.
func (w *World) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < w.width && pos.Y >= 0 && pos.Y < w.height
}

func (w *World) index(pos Position) int {
	return pos.Y*w.width + pos.X
}

// CellAt returns the cell at pos. The boolean is false when pos is out of bounds.
func (w *World) CellAt(pos Position) (Cell, bool) {
	if !w.InBounds(pos) {
		return Cell{}, false
	}
	return Cell{Pos: pos, State: w.cells[w.index(pos)]}, true
}

// State returns the state at pos. The boolean is false when pos is out of bounds.
func (w *World) State(pos Position) (CellState, bool) {
	if !w.InBounds(pos) {
		return Empty, false
	}
	return w.cells[w.index(pos)], true
}

// IsWalkable reports whether pos is inside the world and not a wall.
func (w *World) IsWalkable(pos Position) bool {
	state, ok := w.State(pos)
	return ok && state != Wall
}

// Neighbors4 returns the walkable axis-aligned neighbours of pos in North, East, South,
// West order. The order is relied upon for deterministic tie-breaking in path search.
func (w *World) Neighbors4(pos Position) []Cell {
	neighbors := make([]Cell, 0, len(Directions))
	for _, d := range Directions {
		n := pos.Add(d)
		if w.IsWalkable(n) {
			neighbors = append(neighbors, Cell{Pos: n, State: w.cells[w.index(n)]})
		}
	}
	return neighbors
}

// Clone returns an independent copy of the world.
func (w *World) Clone() *World {
	cells := make([]CellState, len(w.cells))
	copy(cells, w.cells)
	return &World{width: w.width, height: w.height, cells: cells}
}

// Set writes state at pos unconditionally. It returns false when pos is out of bounds.
func (w *World) Set(pos Position, state CellState) bool {
	if !w.InBounds(pos) {
		return false
	}
	w.cells[w.index(pos)] = state
	return true
}

// Fill sets every cell to state.
func (w *World) Fill(state CellState) {
	for i := range w.cells {
		w.cells[i] = state
	}
}

// Annotate layers a transient tag over pos. Walls and the player cell are never
// annotated and structural states are rejected; false is returned in those cases.
func (w *World) Annotate(pos Position, state CellState) bool {
	if state.Structural() {
		return false
	}

	current, ok := w.State(pos)
	if !ok || current == Wall || current == Player {
		return false
	}

	w.cells[w.index(pos)] = state
	return true
}

// ResetAll sets every cell to Empty.
func (w *World) ResetAll() {
	w.Fill(Empty)
}

// ResetTransient restores every annotated cell to Empty, leaving walls and the player untouched.
func (w *World) ResetTransient() {
	for i, s := range w.cells {
		if !s.Structural() {
			w.cells[i] = Empty
		}
	}
}

// ClearStates restores every cell holding one of the given transient states to Empty
// and returns how many cells changed. Structural states are ignored.
func (w *World) ClearStates(states ...CellState) int {
	var mask uint16
	for _, s := range states {
		if !s.Structural() {
			mask |= 1 << s
		}
	}

	cleared := 0
	for i, s := range w.cells {
		if mask&(1<<s) != 0 {
			w.cells[i] = Empty
			cleared++
		}
	}
	return cleared
}

// Count returns the number of cells holding state.
func (w *World) Count(state CellState) int {
	n := 0
	for _, s := range w.cells {
		if s == state {
			n++
		}
	}
	return n
}

// Positions returns the positions holding state in row-major order.
func (w *World) Positions(state CellState) []Position {
	var positions []Position
	for i, s := range w.cells {
		if s == state {
			positions = append(positions, Position{X: i % w.width, Y: i / w.width})
		}
	}
	return positions
}

// RandomEmptyPosition selects uniformly among the cells currently tagged Empty using the
// supplied seeded generator. The boolean is false when no empty cell exists.
func (w *World) RandomEmptyPosition(r *rng.Random) (Position, bool) {
	candidates := w.Positions(Empty)
	if len(candidates) == 0 {
		return Position{}, false
	}
	return candidates[r.Intn(len(candidates))], true
}

// MarshalText encodes the grid as one glyph per cell and one line per row.
func (w *World) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(w.height * (w.width + 1))
	for y := 0; y < w.height; y++ {
		for _, s := range w.cells[y*w.width : (y+1)*w.width] {
			buf.WriteByte(s.Glyph())
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// UnmarshalText decodes a grid produced by MarshalText. The dimensions are taken from
// the text, so a World decoded into replaces any previous contents.
func (w *World) UnmarshalText(text []byte) error {
	rows := bytes.Split(bytes.TrimRight(text, "\n"), []byte{'\n'})
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrMalformedGrid
	}

	width, height := len(rows[0]), len(rows)
	if max(width, height) > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	cells := make([]CellState, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedGrid, y, len(row), width)
		}
		for x, g := range row {
			s, ok := stateFromGlyph(g)
			if !ok {
				return fmt.Errorf("%w: unknown glyph %q at (%d,%d)", ErrMalformedGrid, g, x, y)
			}
			cells = append(cells, s)
		}
	}

	w.width, w.height, w.cells = width, height, cells
	return nil
}

// Rows returns the serialized grid split into rows.
func (w *World) Rows() []string {
	rows := make([]string, w.height)
	for y := range rows {
		row := make([]byte, w.width)
		for x, s := range w.cells[y*w.width : (y+1)*w.width] {
			row[x] = s.Glyph()
		}
		rows[y] = string(row)
	}
	return rows
}

// String provides a textual representation of the world.
func (w *World) String() string {
	text, _ := w.MarshalText()
	return string(text)
}
