package world

// Viewport is a rectangular window over a World used to decide which cells are exposed
// for rendering. The offset is clamped so the window never leaves the world.
type Viewport struct {
	world  *World
	offset Position
	width  int
	height int
}

// NewViewport creates a viewport of the given size anchored at the world origin.
// Sizes larger than the world are kept; the offset on such an axis stays at 0.
func NewViewport(w *World, width, height int) *Viewport {
	v := &Viewport{
		world:  w,
		width:  max(width, 1),
		height: max(height, 1),
	}
	v.clamp()
	return v
}

// Offset returns the world position of the viewport's top-left corner.
func (v *Viewport) Offset() Position { return v.offset }

// Width returns the viewport width in cells.
func (v *Viewport) Width() int { return v.width }

// Height returns the viewport height in cells.
func (v *Viewport) Height() int { return v.height }

// Move shifts the viewport by (dx, dy), clamping at the world edges.
func (v *Viewport) Move(dx, dy int) {
	v.offset = v.offset.Add(Position{X: dx, Y: dy})
	v.clamp()
}

// CenterOn moves the viewport so that pos is as close to its center as the world allows.
func (v *Viewport) CenterOn(pos Position) {
	v.offset = Position{X: pos.X - v.width/2, Y: pos.Y - v.height/2}
	v.clamp()
}

// Contains reports whether the world position pos is visible.
func (v *Viewport) Contains(pos Position) bool {
	_, ok := v.ToLocal(pos)
	return ok
}

// ToWorld converts viewport-relative coordinates to world coordinates.
func (v *Viewport) ToWorld(local Position) Position {
	return local.Add(v.offset)
}

// ToLocal converts world coordinates to viewport-relative ones.
// The boolean is false when pos is outside the visible window or the world.
func (v *Viewport) ToLocal(pos Position) (Position, bool) {
	local := Position{X: pos.X - v.offset.X, Y: pos.Y - v.offset.Y}
	if local.X < 0 || local.Y < 0 || local.X >= v.width || local.Y >= v.height {
		return Position{}, false
	}
	return local, v.world.InBounds(pos)
}

// Rows returns the glyphs of the visible cells, one string per row.
// Rows and columns beyond the world edge are omitted.
func (v *Viewport) Rows() []string {
	visibleW := min(v.width, v.world.width-v.offset.X)
	visibleH := min(v.height, v.world.height-v.offset.Y)

	rows := make([]string, 0, visibleH)
	for y := 0; y < visibleH; y++ {
		row := make([]byte, visibleW)
		for x := range row {
			s, _ := v.world.State(v.ToWorld(Position{X: x, Y: y}))
			row[x] = s.Glyph()
		}
		rows = append(rows, string(row))
	}
	return rows
}

// clamp keeps the viewport inside the world on every axis the world is large enough for.
func (v *Viewport) clamp() {
	v.offset.X = clampAxis(v.offset.X, v.world.width-v.width)
	v.offset.Y = clampAxis(v.offset.Y, v.world.height-v.height)
}

func clampAxis(offset, limit int) int {
	if limit <= 0 {
		return 0
	}
	return min(max(offset, 0), limit)
}
