/*
Package pathfinder computes shortest walkable paths with A*.

The search is staged: every call to Search.Step finalizes at most one cell, tags it Visited
in the grid and returns, so a caller can observe and animate progress or abandon the search
between steps. FindPath drives a search to completion for callers that only want the result.
*/
package pathfinder

import (
	"context"

	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// Status describes where a search stands after a step.
type Status int

const (
	StatusSearching Status = iota // Not finished; no cell has been finalized yet.
	StatusExpanded                // A cell was finalized and tagged Visited.
	StatusFound                   // The goal was reached; Path is available.
	StatusNoPath                  // The open set ran dry; the goal is unreachable.
)

var statusNames = [...]string{"searching", "expanded", "found", "no_path"}

func (s Status) String() string {
	return statusNames[s]
}

// Done reports whether the search has terminated.
func (s Status) Done() bool {
	return s == StatusFound || s == StatusNoPath
}

// Grid is the read-mostly view of the world a search needs.
type Grid interface {
	InBounds(pos world.Position) bool
	Neighbors4(pos world.Position) []world.Cell
	Annotate(pos world.Position, state world.CellState) bool
}

// node is the bookkeeping record of one position during a single search.
type node struct {
	pos    world.Position
	g      int    // Cost from start.
	h      int    // Estimated cost to goal.
	f      int    // g + h.
	parent *node  // Predecessor on the best known path.
	seq    uint64 // Order in which the position was first discovered.
}

// Search is a single staged A* run from start to goal.
type Search struct {
	grid     Grid
	start    world.Position
	goal     world.Position
	open     *heap.Heap[*node]
	best     map[world.Position]*node
	closed   mapset.Set[world.Position]
	seq      uint64
	status   Status
	path     []world.Position
	expanded int
}

// NewSearch prepares a search over g. Nothing is explored until Step is called.
func NewSearch(g Grid, start, goal world.Position) *Search {
	s := &Search{
		grid:   g,
		start:  start,
		goal:   goal,
		open:   heap.New[*node](lessNode),
		best:   make(map[world.Position]*node),
		closed: mapset.New[world.Position](),
	}

	if !g.InBounds(start) || !g.InBounds(goal) {
		s.status = StatusNoPath
		return s
	}

	first := &node{pos: start, h: start.Manhattan(goal)}
	first.f = first.h
	s.best[start] = first
	s.open.Push(first)
	s.seq = 1
	return s
}

// lessNode orders by f, breaking ties in favour of the earliest discovered position.
func lessNode(a, b *node) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

// Step advances the search to its next yield point: either a non-start cell was finalized
// (StatusExpanded) or the search terminated (StatusFound, StatusNoPath). Calling Step on a
// terminated search returns the final status again.
func (s *Search) Step() Status {
	if s.status.Done() {
		return s.status
	}

	for {
		cur, ok := s.open.Pop()
		if !ok {
			s.status = StatusNoPath
			return s.status
		}

		// Superseded entries stay in the heap after a better g was found.
		if s.closed.Has(cur.pos) || s.best[cur.pos] != cur {
			continue
		}

		if cur.pos == s.goal {
			s.path = reconstruct(cur)
			s.status = StatusFound
			return s.status
		}

		s.closed.Put(cur.pos)
		s.expanded++
		s.relax(cur)

		if cur.pos != s.start {
			s.grid.Annotate(cur.pos, world.Visited)
			s.status = StatusExpanded
			return s.status
		}
	}
}

// relax offers every walkable, unfinalized neighbour of cur a path through cur.
func (s *Search) relax(cur *node) {
	for _, c := range s.grid.Neighbors4(cur.pos) {
		if s.closed.Has(c.Pos) {
			continue
		}

		g := cur.g + 1
		prev, seen := s.best[c.Pos]
		if seen && g >= prev.g {
			continue
		}

		seq := s.seq
		if seen {
			seq = prev.seq
		} else {
			s.seq++
		}

		h := c.Pos.Manhattan(s.goal)
		n := &node{pos: c.Pos, g: g, h: h, f: g + h, parent: cur, seq: seq}
		s.best[c.Pos] = n
		s.open.Push(n)
	}
}

// reconstruct walks predecessor links back to the start.
func reconstruct(n *node) []world.Position {
	var path []world.Position
	for ; n != nil; n = n.parent {
		path = append(path, n.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Status returns the status after the last step.
func (s *Search) Status() Status { return s.status }

// Path returns the path from start to goal inclusive once the goal was found, nil otherwise.
func (s *Search) Path() []world.Position { return s.path }

// Expanded returns how many cells have been finalized, including the start.
func (s *Search) Expanded() int { return s.expanded }

// Start returns the search origin.
func (s *Search) Start() world.Position { return s.start }

// Goal returns the search destination.
func (s *Search) Goal() world.Position { return s.goal }

// FindPath runs a search from start to goal to completion. A nil path with a nil error
// means no path exists. The context is checked at every yield point; when it is done the
// search is abandoned and the context error returned.
func FindPath(ctx context.Context, g Grid, start, goal world.Position) ([]world.Position, error) {
	s := NewSearch(g, start, goal)
	for {
		switch s.Step() {
		case StatusFound:
			return s.Path(), nil
		case StatusNoPath:
			return nil, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
