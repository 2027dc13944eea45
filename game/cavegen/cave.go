package cavegen

import (
	"math"

	"github.com/beka-birhanu/vinom-caves/game/world"
)

const (
	wallsToStayWall   = 5 // Walled Moore neighbours a wall needs to survive smoothing.
	wallsToBecomeWall = 6 // Walled Moore neighbours that close an open cell.
)

// Rect is an axis-aligned rectangle of cells.
type Rect struct {
	X, Y int
	W, H int
}

// Contains reports whether pos lies inside r.
func (r Rect) Contains(pos world.Position) bool {
	return pos.X >= r.X && pos.X < r.X+r.W && pos.Y >= r.Y && pos.Y < r.Y+r.H
}

// Center returns the cell closest to the middle of r.
func (r Rect) Center() world.Position {
	return world.Position{X: r.X + (r.W-1)/2, Y: r.Y + (r.H-1)/2}
}

// onBorder reports whether pos is on the outermost ring of r.
func (r Rect) onBorder(pos world.Position) bool {
	return pos.X == r.X || pos.Y == r.Y || pos.X == r.X+r.W-1 || pos.Y == r.Y+r.H-1
}

// placeCaves partitions the world into a near-square grid of regions and carves one cave
// in each region.
func (g *Generator) placeCaves() {
	width, height := g.world.Width(), g.world.Height()

	count := int(math.Round(float64(g.world.Size()) / float64(g.opts.CellsPerCave)))
	count = max(count, g.opts.MinCaves)

	cols := int(math.Ceil(math.Sqrt(float64(count))))
	rows := int(math.Ceil(float64(count) / float64(cols)))
	regionW := max(width/cols, 1)
	regionH := max(height/rows, 1)

	for i := 0; i < count; i++ {
		region := Rect{
			X: min((i%cols)*regionW, width-1),
			Y: min((i/cols)*regionH, height-1),
			W: regionW,
			H: regionH,
		}
		region.W = min(region.W, width-region.X)
		region.H = min(region.H, height-region.Y)

		cave := g.carveCave(region)
		g.caves = append(g.caves, cave)
		g.report.CaveSizes = append(g.report.CaveSizes, len(cave.Members))
	}

	g.report.Caves = len(g.caves)
}

// carveCave runs the cellular automaton inside a randomly offset sub-rectangle of region.
func (g *Generator) carveCave(region Rect) *Cave {
	caveW := max(int(float64(region.W)*g.opts.CaveFill), 1)
	caveH := max(int(float64(region.H)*g.opts.CaveFill), 1)

	bounds := Rect{
		X: region.X + g.rng.IntRange(0, region.W-caveW),
		Y: region.Y + g.rng.IntRange(0, region.H-caveH),
		W: caveW,
		H: caveH,
	}

	g.seedCave(bounds)
	for round := 0; round < g.opts.SmoothingRounds; round++ {
		g.smooth(bounds)
	}

	cave := &Cave{Bounds: bounds}
	for y := bounds.Y; y < bounds.Y+bounds.H; y++ {
		for x := bounds.X; x < bounds.X+bounds.W; x++ {
			pos := world.Position{X: x, Y: y}
			if state, _ := g.world.State(pos); state == world.Empty {
				cave.Members = append(cave.Members, pos)
			}
		}
	}
	return cave
}

// seedCave opens cells with a probability that attenuates linearly with the normalized
// Manhattan distance from the center of bounds.
func (g *Generator) seedCave(bounds Rect) {
	cx := float64(bounds.X) + float64(bounds.W-1)/2
	cy := float64(bounds.Y) + float64(bounds.H-1)/2
	halfW := math.Max(float64(bounds.W)/2, 1)
	halfH := math.Max(float64(bounds.H)/2, 1)

	for y := bounds.Y; y < bounds.Y+bounds.H; y++ {
		for x := bounds.X; x < bounds.X+bounds.W; x++ {
			dist := math.Abs(float64(x)-cx)/halfW + math.Abs(float64(y)-cy)/halfH
			dist = math.Min(dist, 1)
			prob := g.opts.CenterOpenProb - (g.opts.CenterOpenProb-g.opts.EdgeOpenProb)*dist

			state := world.Wall
			if g.rng.Bool(prob) {
				state = world.Empty
			}
			g.world.Set(world.Position{X: x, Y: y}, state)
		}
	}
}

// smooth runs one cellular automaton round over bounds. Neighbour counts are read from the
// state before the round so cells updated earlier in the round do not influence later ones.
func (g *Generator) smooth(bounds Rect) {
	next := make([]world.CellState, 0, bounds.W*bounds.H)

	for y := bounds.Y; y < bounds.Y+bounds.H; y++ {
		for x := bounds.X; x < bounds.X+bounds.W; x++ {
			pos := world.Position{X: x, Y: y}
			state, _ := g.world.State(pos)

			switch {
			case bounds.onBorder(pos):
				// Border cells are re-rolled to avoid hard rectangular seams.
				state = world.Empty
				if g.rng.Bool(0.5) {
					state = world.Wall
				}
			case state == world.Wall && g.walledNeighbors(pos) < wallsToStayWall:
				state = world.Empty
			case state == world.Empty && g.walledNeighbors(pos) >= wallsToBecomeWall:
				state = world.Wall
			}
			next = append(next, state)
		}
	}

	i := 0
	for y := bounds.Y; y < bounds.Y+bounds.H; y++ {
		for x := bounds.X; x < bounds.X+bounds.W; x++ {
			g.world.Set(world.Position{X: x, Y: y}, next[i])
			i++
		}
	}
}

// walledNeighbors counts walls among the eight Moore neighbours; out of bounds counts as wall.
func (g *Generator) walledNeighbors(pos world.Position) int {
	walls := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if !g.world.IsWalkable(pos.Add(world.Position{X: dx, Y: dy})) {
				walls++
			}
		}
	}
	return walls
}
