package cavegen

import (
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/zyedidia/generic/mapset"
)

// FloodFill returns every Empty cell 4-connected to start in breadth-first order.
// The traversal is iterative so large sparse worlds cannot exhaust the call stack.
func FloodFill(w *world.World, start world.Position) []world.Position {
	order, _ := floodFill(w, start)
	return order
}

func floodFill(w *world.World, start world.Position) ([]world.Position, mapset.Set[world.Position]) {
	seen := mapset.New[world.Position]()
	if state, ok := w.State(start); !ok || state != world.Empty {
		return nil, seen
	}

	order := []world.Position{start}
	seen.Put(start)

	for head := 0; head < len(order); head++ {
		cur := order[head]
		for _, d := range world.Directions {
			next := cur.Add(d)
			if seen.Has(next) {
				continue
			}
			if state, ok := w.State(next); ok && state == world.Empty {
				seen.Put(next)
				order = append(order, next)
			}
		}
	}

	return order, seen
}

// ensureConnectivity makes every open cell reachable from the origin.
// When too little of the world is reachable a single repair pass carves straight
// corridors out of the reachable area; afterwards every open cell the origin still cannot
// reach is turned back into rock.
func (g *Generator) ensureConnectivity() {
	reachable, seen := floodFill(g.world, origin)
	g.report.ReachableBeforeRepair = len(reachable)

	if float64(len(reachable)) < g.opts.MinReachableRatio*float64(g.world.Size()) {
		g.repair(reachable)
		reachable, seen = floodFill(g.world, origin)
	}

	for _, pos := range g.world.Positions(world.Empty) {
		if !seen.Has(pos) {
			g.world.Set(pos, world.Wall)
			g.report.Pruned++
		}
	}
}

// repair carves a budgeted number of straight corridors starting at random reachable cells.
func (g *Generator) repair(reachable []world.Position) {
	g.report.Repaired = true
	if len(reachable) == 0 {
		return
	}

	budget := min(len(reachable)/g.opts.RepairDivisor, g.opts.MaxRepairPaths)
	for i := 0; i < budget; i++ {
		from := reachable[g.rng.Intn(len(reachable))]
		dir := world.Directions[g.rng.Intn(len(world.Directions))]
		length := g.rng.IntRange(g.opts.RepairMinLength, g.opts.RepairMaxLength)
		g.corridor(from, dir, length)
		g.report.RepairPaths++
	}
}

// corridor clears length cells from "from" along dir, regardless of what they hold.
func (g *Generator) corridor(from, dir world.Position, length int) {
	perpendicular := world.Position{X: dir.Y, Y: dir.X}
	cur := from

	for step := 0; step < length; step++ {
		cur = cur.Add(dir)
		if !g.world.InBounds(cur) {
			return
		}
		g.world.Set(cur, world.Empty)

		if g.rng.Bool(g.opts.RepairWidenProb) {
			side := perpendicular
			if g.rng.Bool(0.5) {
				side = world.Position{X: -side.X, Y: -side.Y}
			}
			g.world.Set(cur.Add(side), world.Empty)
		}
	}
}
