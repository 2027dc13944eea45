package world

// CellState tags a single grid cell. Exactly one tag is held per cell at any time.
type CellState uint8

const (
	Empty CellState = iota
	Wall
	Player
	PlayerTrail
	Path
	Visited
	Target
	QueuedTarget
)

var glyphs = [...]byte{
	Empty:        '.',
	Wall:         '#',
	Player:       '@',
	PlayerTrail:  ',',
	Path:         '*',
	Visited:      '~',
	Target:       'X',
	QueuedTarget: 'x',
}

var names = [...]string{
	Empty:        "empty",
	Wall:         "wall",
	Player:       "player",
	PlayerTrail:  "player_trail",
	Path:         "path",
	Visited:      "visited",
	Target:       "target",
	QueuedTarget: "queued_target",
}

// Structural reports whether the state describes the world itself rather than a
// transient visualization annotation layered over an empty cell.
func (s CellState) Structural() bool {
	return s == Empty || s == Wall || s == Player
}

// Glyph returns the single character used when serializing the state.
func (s CellState) Glyph() byte {
	if int(s) >= len(glyphs) {
		return '?'
	}
	return glyphs[s]
}

// String returns the lower-case name of the state.
func (s CellState) String() string {
	if int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

// stateFromGlyph is the inverse of Glyph.
func stateFromGlyph(g byte) (CellState, bool) {
	for s, glyph := range glyphs {
		if glyph == g {
			return CellState(s), true
		}
	}
	return Empty, false
}

// Position is a world coordinate pair.
type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Manhattan returns the 4-connected distance between p and q.
func (p Position) Manhattan(q Position) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// Cardinal offsets in North, East, South, West order.
var (
	North = Position{X: 0, Y: -1}
	East  = Position{X: 1, Y: 0}
	South = Position{X: 0, Y: 1}
	West  = Position{X: -1, Y: 0}

	Directions = [4]Position{North, East, South, West}
)

// Cell is a grid cell identified by its position.
type Cell struct {
	Pos   Position  // Position of the cell in world coordinates.
	State CellState // Current tag of the cell.
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
