package cavegen

import (
	"github.com/beka-birhanu/vinom-caves/game/world"
)

// connectCaves joins consecutive caves and then adds random extra connections so the cave
// graph is more than a simple path.
func (g *Generator) connectCaves() {
	n := len(g.caves)
	if n < 2 {
		return
	}

	for i := 1; i < n; i++ {
		g.tunnel(g.pickPoint(g.caves[i-1]), g.pickPoint(g.caves[i]))
	}

	extra := int(float64(n) * g.opts.ExtraConnectionRatio)
	for i := 0; i < extra; i++ {
		a, b := g.rng.Intn(n), g.rng.Intn(n)
		if a == b {
			continue
		}
		g.tunnel(g.pickPoint(g.caves[a]), g.pickPoint(g.caves[b]))
	}
}

// pickPoint returns a random open cell of the cave, or its center when smoothing closed it.
func (g *Generator) pickPoint(c *Cave) world.Position {
	if len(c.Members) == 0 {
		return c.Bounds.Center()
	}
	return c.Members[g.rng.Intn(len(c.Members))]
}

// tunnel carves a corridor from "from" to "to" one axis step at a time.
// Mostly the axis with more remaining distance is advanced; sometimes the other one, as
// long as it still has distance to cover, so corridors are not perfectly straight.
func (g *Generator) tunnel(from, to world.Position) {
	cur := from
	g.world.Set(cur, world.Empty)

	for cur != to {
		dx, dy := to.X-cur.X, to.Y-cur.Y
		horizontal := abs(dx) >= abs(dy)

		if g.rng.Bool(g.opts.TunnelDetourProb) {
			if (horizontal && dy != 0) || (!horizontal && dx != 0) {
				horizontal = !horizontal
			}
		}

		if horizontal {
			cur.X += sign(dx)
		} else {
			cur.Y += sign(dy)
		}
		g.world.Set(cur, world.Empty)

		if g.rng.Bool(g.opts.TunnelWidenProb) {
			g.widen(cur, horizontal, g.rng.IntRange(1, 2))
		}
	}

	g.report.Tunnels++
}

// widen clears n (1 or 2) cells perpendicular to the direction of travel.
func (g *Generator) widen(pos world.Position, horizontal bool, n int) {
	side := world.Position{X: 1, Y: 0}
	if horizontal {
		side = world.Position{X: 0, Y: 1}
	}
	opposite := world.Position{X: -side.X, Y: -side.Y}

	if n >= 2 {
		g.world.Set(pos.Add(side), world.Empty)
		g.world.Set(pos.Add(opposite), world.Empty)
		return
	}

	if g.rng.Bool(0.5) {
		side = opposite
	}
	g.world.Set(pos.Add(side), world.Empty)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
