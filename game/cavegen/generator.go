/*
Package cavegen carves a walkable cave system out of solid rock.

Generation runs a fixed sequence of stages over a world.World, each allowed to overwrite the
previous ones: fill with rock, carve cellular-automaton caves, connect them with tunnels,
scatter decoration, clear the start block and finally guarantee that every open cell can be
reached from the origin. The result is a pure function of the seed.
*/
package cavegen

import (
	"github.com/beka-birhanu/vinom-caves/game/rng"
	"github.com/beka-birhanu/vinom-caves/game/world"
)

const (
	defaultCellsPerCave           = 150
	defaultMinCaves               = 4
	defaultCaveFill               = 0.7
	defaultCenterOpenProb         = 0.9
	defaultEdgeOpenProb           = 0.7
	defaultSmoothingRounds        = 3
	defaultExtraConnectionRatio   = 0.7
	defaultTunnelDetourProb       = 0.2
	defaultTunnelWidenProb        = 0.7
	defaultDecorationRatio        = 0.15
	defaultDecorationDiagonalProb = 0.3
	defaultMinReachableRatio      = 0.25
	defaultRepairDivisor          = 20
	defaultMaxRepairPaths         = 10
	defaultRepairMinLength        = 5
	defaultRepairMaxLength        = 15
	defaultRepairWidenProb        = 0.4

	startBlockSize = 3
)

var origin = world.Position{X: 0, Y: 0}

// Options tunes the generator. Zero values fall back to the defaults, so a probability or
// ratio is switched off with a negative value. Probabilities above 1 are capped.
type Options struct {
	CellsPerCave         int     // Roughly one cave is placed per this many cells.
	MinCaves             int     // Lower bound on the number of caves.
	CaveFill             float64 // Share of a region's dimensions a cave occupies.
	CenterOpenProb       float64 // Probability a cave cell starts open at the cave center.
	EdgeOpenProb         float64 // Probability a cave cell starts open at the cave edge.
	SmoothingRounds      int     // Cellular automaton rounds per cave.
	ExtraConnectionRatio float64 // Extra random tunnels per cave.
	TunnelDetourProb     float64 // Probability a tunnel steps along the minor axis.
	TunnelWidenProb      float64 // Probability a tunnel step is widened.

	DecorationRatio        float64 // Share of all cells randomly opened.
	DecorationDiagonalProb float64 // Probability a decoration also opens a diagonal neighbour.

	MinReachableRatio float64 // Reachable share below which the repair pass runs.
	RepairDivisor     int     // Repair corridors per reachable cell (reachable / divisor).
	MaxRepairPaths    int     // Upper bound on repair corridors.
	RepairMinLength   int     // Shortest repair corridor.
	RepairMaxLength   int     // Longest repair corridor.
	RepairWidenProb   float64 // Probability a repair step is widened.
}

// Cave is one carved open region.
type Cave struct {
	Bounds  Rect             // Sub-rectangle the cave was carved in.
	Members []world.Position // Open cells right after smoothing.
}

// Report summarizes a generation run.
type Report struct {
	Seed                  uint32 `json:"seed" bson:"seed"`
	Caves                 int    `json:"caves" bson:"caves"`
	CaveSizes             []int  `json:"cave_sizes" bson:"caveSizes"`
	Tunnels               int    `json:"tunnels" bson:"tunnels"`
	Decorated             int    `json:"decorated" bson:"decorated"`
	ReachableBeforeRepair int    `json:"reachable_before_repair" bson:"reachableBeforeRepair"`
	Repaired              bool   `json:"repaired" bson:"repaired"`
	RepairPaths           int    `json:"repair_paths" bson:"repairPaths"`
	Pruned                int    `json:"pruned" bson:"pruned"`
	Empty                 int    `json:"empty" bson:"empty"`
}

// Generator synthesizes the walkable topology of a world.
type Generator struct {
	world  *world.World
	opts   *Options
	rng    *rng.Random
	caves  []*Cave
	report *Report
}

// New creates a generator that paints onto w.
func New(w *world.World, opts *Options) *Generator {
	return &Generator{
		world: w,
		opts:  normalize(opts),
	}
}

// normalize fills unset options with their defaults.
func normalize(opts *Options) *Options {
	o := Options{}
	if opts != nil {
		o = *opts
	}

	if o.CellsPerCave <= 0 {
		o.CellsPerCave = defaultCellsPerCave
	}
	if o.MinCaves <= 0 {
		o.MinCaves = defaultMinCaves
	}
	if o.CaveFill <= 0 || o.CaveFill > 1 {
		o.CaveFill = defaultCaveFill
	}
	o.CenterOpenProb = probability(o.CenterOpenProb, defaultCenterOpenProb)
	o.EdgeOpenProb = probability(o.EdgeOpenProb, defaultEdgeOpenProb)
	if o.SmoothingRounds <= 0 {
		o.SmoothingRounds = defaultSmoothingRounds
	}
	o.ExtraConnectionRatio = ratio(o.ExtraConnectionRatio, defaultExtraConnectionRatio)
	o.TunnelDetourProb = probability(o.TunnelDetourProb, defaultTunnelDetourProb)
	o.TunnelWidenProb = probability(o.TunnelWidenProb, defaultTunnelWidenProb)
	o.DecorationRatio = probability(o.DecorationRatio, defaultDecorationRatio)
	o.DecorationDiagonalProb = probability(o.DecorationDiagonalProb, defaultDecorationDiagonalProb)
	o.MinReachableRatio = probability(o.MinReachableRatio, defaultMinReachableRatio)
	if o.RepairDivisor <= 0 {
		o.RepairDivisor = defaultRepairDivisor
	}
	if o.MaxRepairPaths <= 0 {
		o.MaxRepairPaths = defaultMaxRepairPaths
	}
	if o.RepairMinLength <= 0 {
		o.RepairMinLength = defaultRepairMinLength
	}
	if o.RepairMaxLength < o.RepairMinLength {
		o.RepairMaxLength = max(defaultRepairMaxLength, o.RepairMinLength)
	}
	o.RepairWidenProb = probability(o.RepairWidenProb, defaultRepairWidenProb)

	return &o
}

// probability maps an unset value to def and a negative one to 0, capping at 1.
func probability(v, def float64) float64 {
	return min(ratio(v, def), 1)
}

func ratio(v, def float64) float64 {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	}
	return v
}

// Generate overwrites the whole world from seed.
func (g *Generator) Generate(seed uint32) *Report {
	return g.GenerateWith(rng.New(seed))
}

// GenerateWith overwrites the whole world drawing every decision from r.
// After it returns, r continues the same sequence and can drive later seeded choices.
func (g *Generator) GenerateWith(r *rng.Random) *Report {
	g.rng = r
	g.caves = nil
	g.report = &Report{Seed: r.Seed()}

	// 1. Solid rock
	g.world.Fill(world.Wall)

	// 2. Cellular automaton caves
	g.placeCaves()

	// 3. Tunnels between caves
	g.connectCaves()

	// 4. Scattered openings
	g.decorate()

	// 5. Start block
	g.clearStart()

	// 6. Reachability from the origin
	g.ensureConnectivity()

	g.report.Empty = g.world.Count(world.Empty)
	return g.report
}

// Caves returns the caves carved by the last run in generation order.
func (g *Generator) Caves() []*Cave {
	return g.caves
}

// Random returns the generator driving the last run, positioned right after generation.
func (g *Generator) Random() *rng.Random {
	return g.rng
}

// decorate opens random cells to break up uniformity.
func (g *Generator) decorate() {
	w, h := g.world.Width(), g.world.Height()
	count := int(float64(g.world.Size()) * g.opts.DecorationRatio)

	for i := 0; i < count; i++ {
		pos := world.Position{X: g.rng.Intn(w), Y: g.rng.Intn(h)}
		g.open(pos)

		if g.rng.Bool(g.opts.DecorationDiagonalProb) {
			g.open(pos.Add(diagonals[g.rng.Intn(len(diagonals))]))
		}
	}
}

// clearStart forces the block anchored at the origin open.
func (g *Generator) clearStart() {
	for y := 0; y < startBlockSize; y++ {
		for x := 0; x < startBlockSize; x++ {
			g.world.Set(world.Position{X: x, Y: y}, world.Empty)
		}
	}
}

// open clears pos and counts it as decoration when it was rock.
func (g *Generator) open(pos world.Position) {
	if state, ok := g.world.State(pos); ok && state == world.Wall {
		g.world.Set(pos, world.Empty)
		g.report.Decorated++
	}
}

var diagonals = [4]world.Position{
	{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
}
