package cavegen

import (
	"strings"
	"testing"

	"github.com/beka-birhanu/vinom-caves/game/rng"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stage returns a generator over the given grid, ready to run a single stage.
func stage(t *testing.T, opts *Options, rows ...string) *Generator {
	t.Helper()
	w := &world.World{}
	require.NoError(t, w.UnmarshalText([]byte(strings.Join(rows, "\n"))))

	g := New(w, opts)
	g.rng = rng.New(1)
	g.report = &Report{}
	return g
}

// straight disables every random deviation of tunnels and corridors.
var straight = &Options{TunnelDetourProb: -1, TunnelWidenProb: -1, RepairWidenProb: -1}

func stateAt(g *Generator, x, y int) world.CellState {
	s, _ := g.world.State(world.Position{X: x, Y: y})
	return s
}

func TestWalledNeighbors(t *testing.T) {
	g := stage(t, nil,
		"#.#",
		"...",
		"#..",
	)

	assert.Equal(t, 3, g.walledNeighbors(world.Position{X: 1, Y: 1}))
	assert.Equal(t, 5, g.walledNeighbors(world.Position{X: 0, Y: 0}), "out of bounds counts as wall")
	assert.Equal(t, 5, g.walledNeighbors(world.Position{X: 2, Y: 2}))
}

func TestSmooth(t *testing.T) {
	// Only (2,2) is inside the ring of bounds; ring cells are re-rolled every round.
	bounds := Rect{X: 1, Y: 1, W: 3, H: 3}

	tests := []struct {
		name string
		rows []string
		want world.CellState
	}{
		{
			name: "Wall with five walled neighbours stays",
			rows: []string{".....", ".###.", ".###.", ".....", "....."},
			want: world.Wall,
		},
		{
			name: "Wall with four walled neighbours opens",
			rows: []string{".....", ".###.", ".##..", ".....", "....."},
			want: world.Empty,
		},
		{
			name: "Open cell with six walled neighbours closes",
			rows: []string{".....", ".###.", ".#.#.", ".#...", "....."},
			want: world.Wall,
		},
		{
			name: "Open cell with five walled neighbours stays",
			rows: []string{".....", ".###.", ".#.#.", ".....", "....."},
			want: world.Empty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := stage(t, nil, tt.rows...)
			g.smooth(bounds)
			assert.Equal(t, tt.want, stateAt(g, 2, 2))
		})
	}

	t.Run("Counts come from the previous round", func(t *testing.T) {
		g := stage(t, nil,
			"......",
			".####.",
			".#..#.",
			".##...",
			"......",
		)
		g.smooth(Rect{X: 1, Y: 1, W: 4, H: 3})

		// (2,2) closes with six walls. (3,2) saw it open and keeps five walls.
		assert.Equal(t, world.Wall, stateAt(g, 2, 2))
		assert.Equal(t, world.Empty, stateAt(g, 3, 2))
	})

	t.Run("Cells outside bounds are untouched", func(t *testing.T) {
		g := stage(t, nil, ".....", ".###.", ".###.", ".###.", ".....")
		g.smooth(bounds)
		for x := 0; x < 5; x++ {
			assert.Equal(t, world.Empty, stateAt(g, x, 0))
			assert.Equal(t, world.Empty, stateAt(g, x, 4))
		}
	})
}

func TestTunnel(t *testing.T) {
	rock := []string{"#######", "#######", "#######", "#######", "#######"}

	t.Run("Advances the longer axis and ends on the target", func(t *testing.T) {
		g := stage(t, straight, rock...)
		g.tunnel(world.Position{X: 1, Y: 1}, world.Position{X: 5, Y: 3})

		assert.Equal(t, []string{
			"#######",
			"#....##",
			"####..#",
			"#####.#",
			"#######",
		}, g.world.Rows())
		assert.Equal(t, 1, g.report.Tunnels)
	})

	t.Run("Tunnel to itself clears one cell", func(t *testing.T) {
		g := stage(t, straight, rock...)
		g.tunnel(world.Position{X: 3, Y: 2}, world.Position{X: 3, Y: 2})
		assert.Equal(t, 1, g.world.Count(world.Empty))
		assert.Equal(t, world.Empty, stateAt(g, 3, 2))
	})

	t.Run("Every random tunnel links its endpoints", func(t *testing.T) {
		for seed := uint32(0); seed < 40; seed++ {
			rows := make([]string, 20)
			for y := range rows {
				rows[y] = strings.Repeat("#", 20)
			}
			g := stage(t, nil, rows...)
			g.rng = rng.New(seed)

			from := world.Position{X: g.rng.Intn(20), Y: g.rng.Intn(20)}
			to := world.Position{X: g.rng.Intn(20), Y: g.rng.Intn(20)}
			g.tunnel(from, to)

			require.Equal(t, world.Empty, stateAt(g, to.X, to.Y), "seed %d", seed)
			assert.Contains(t, FloodFill(g.world, from), to, "seed %d", seed)
		}
	})
}

func TestWiden(t *testing.T) {
	rock := []string{"###", "###", "###"}
	center := world.Position{X: 1, Y: 1}

	t.Run("Two cells across a horizontal step", func(t *testing.T) {
		g := stage(t, nil, rock...)
		g.widen(center, true, 2)
		assert.Equal(t, []string{"#.#", "###", "#.#"}, g.world.Rows())
	})

	t.Run("Two cells across a vertical step", func(t *testing.T) {
		g := stage(t, nil, rock...)
		g.widen(center, false, 2)
		assert.Equal(t, []string{"###", ".#.", "###"}, g.world.Rows())
	})

	t.Run("One cell on either side", func(t *testing.T) {
		g := stage(t, nil, rock...)
		g.widen(center, true, 1)
		assert.Equal(t, 1, g.world.Count(world.Empty))
		assert.Equal(t, world.Wall, stateAt(g, 0, 1))
		assert.Equal(t, world.Wall, stateAt(g, 2, 1))
	})
}

func TestCorridor(t *testing.T) {
	t.Run("Stops at the world edge", func(t *testing.T) {
		g := stage(t, straight, "#####", "#####", "#####")
		g.corridor(world.Position{X: 3, Y: 1}, world.East, 10)
		assert.Equal(t, []string{"#####", "####.", "#####"}, g.world.Rows())
	})

	t.Run("Clears exactly its length", func(t *testing.T) {
		g := stage(t, straight, "#####", "#####", "#####")
		g.corridor(world.Position{X: 3, Y: 1}, world.West, 2)
		assert.Equal(t, []string{"#####", "#..##", "#####"}, g.world.Rows())
	})
}

func TestDecorate(t *testing.T) {
	rows := make([]string, 10)
	for y := range rows {
		rows[y] = strings.Repeat("#", 10)
	}

	t.Run("Counts only cells that were rock", func(t *testing.T) {
		g := stage(t, &Options{DecorationRatio: 0.5}, rows...)
		g.decorate()
		assert.Positive(t, g.report.Decorated)
		assert.Equal(t, g.world.Count(world.Empty), g.report.Decorated)
	})

	t.Run("Negative ratio disables decoration", func(t *testing.T) {
		g := stage(t, &Options{DecorationRatio: -1}, rows...)
		g.decorate()
		assert.Zero(t, g.report.Decorated)
		assert.Zero(t, g.world.Count(world.Empty))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Zero values take the defaults", func(t *testing.T) {
		o := normalize(nil)
		assert.Equal(t, defaultTunnelDetourProb, o.TunnelDetourProb)
		assert.Equal(t, defaultExtraConnectionRatio, o.ExtraConnectionRatio)
		assert.Equal(t, defaultCellsPerCave, o.CellsPerCave)
		assert.Equal(t, defaultRepairMaxLength, o.RepairMaxLength)
	})

	t.Run("Negative probabilities switch behaviour off", func(t *testing.T) {
		o := normalize(&Options{TunnelDetourProb: -1, ExtraConnectionRatio: -0.5, MinReachableRatio: -1})
		assert.Zero(t, o.TunnelDetourProb)
		assert.Zero(t, o.ExtraConnectionRatio)
		assert.Zero(t, o.MinReachableRatio)
	})

	t.Run("Probabilities are capped", func(t *testing.T) {
		o := normalize(&Options{TunnelWidenProb: 3, ExtraConnectionRatio: 2})
		assert.Equal(t, 1.0, o.TunnelWidenProb)
		assert.Equal(t, 2.0, o.ExtraConnectionRatio)
	})

	t.Run("Disabled knobs still generate connected worlds", func(t *testing.T) {
		w, err := world.New(30, 20)
		require.NoError(t, err)
		report := New(w, &Options{TunnelDetourProb: -1, TunnelWidenProb: -1, DecorationRatio: -1}).Generate(9)

		assert.Zero(t, report.Decorated)
		assert.Equal(t, w.Count(world.Empty), len(FloodFill(w, world.Position{X: 0, Y: 0})))
	})
}
