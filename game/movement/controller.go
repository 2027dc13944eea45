/*
Package movement sequences destination requests for a single player.

A Controller owns a FIFO queue of destinations and at most one navigation in flight. Each
navigation runs search, reveal and replay stages as an explicit state machine advanced by
Tick, so the caller decides pacing (see Delay) and cancellation is observed at every tick.
*/
package movement

import (
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-caves/game/pathfinder"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
)

const (
	defaultSearchStepDelay = 15 * time.Millisecond
	defaultRevealPause     = 400 * time.Millisecond
	defaultReplayStepDelay = 60 * time.Millisecond
)

var (
	ErrOutOfBounds     = errors.New("position is out of bounds")
	ErrNotWalkable     = errors.New("position is not walkable")
	ErrIndexOutOfRange = errors.New("queue index out of range")
)

// navigationStates are the tags one navigation may leave behind.
var navigationStates = []world.CellState{world.Visited, world.Path, world.PlayerTrail, world.Target}

// Options tune pacing and reporting. Zero values fall back to defaults.
type Options struct {
	SearchStepDelay time.Duration
	RevealPause     time.Duration
	ReplayStepDelay time.Duration

	// OnFinish is called synchronously from Tick or CancelAll when a navigation ends.
	OnFinish func(Result)
}

// navigation is the request currently owned by the controller.
type navigation struct {
	req    Request
	search *pathfinder.Search
	path   []world.Position
	step   int // Index in path of the player's cell.
}

// Controller drives one player through a world. It is not safe for concurrent use; the
// owner serialises Tick, Enqueue, Remove and CancelAll.
type Controller struct {
	world   *world.World
	grid    *markerGrid
	player  world.Position
	opts    *Options
	queue   []Request
	current *navigation
	phase   Phase
}

// New places the player at player and returns an idle controller.
func New(w *world.World, player world.Position, opts *Options) (*Controller, error) {
	if !w.InBounds(player) {
		return nil, ErrOutOfBounds
	}
	if !w.IsWalkable(player) {
		return nil, ErrNotWalkable
	}

	w.Set(player, world.Player)
	return &Controller{
		world:  w,
		grid:   &markerGrid{w},
		player: player,
		opts:   normalize(opts),
	}, nil
}

func normalize(opts *Options) *Options {
	if opts == nil {
		opts = &Options{}
	}
	o := *opts

	if o.SearchStepDelay <= 0 {
		o.SearchStepDelay = defaultSearchStepDelay
	}
	if o.RevealPause <= 0 {
		o.RevealPause = defaultRevealPause
	}
	if o.ReplayStepDelay <= 0 {
		o.ReplayStepDelay = defaultReplayStepDelay
	}
	return &o
}

// Enqueue appends a destination and tags it QueuedTarget unless it is the live Target.
func (c *Controller) Enqueue(pos world.Position) (Request, error) {
	if !c.world.InBounds(pos) {
		return Request{}, ErrOutOfBounds
	}

	req := Request{ID: uuid.New(), Target: pos}
	c.queue = append(c.queue, req)
	c.grid.Annotate(pos, world.QueuedTarget)
	return req, nil
}

// Remove drops the still-queued request at index. Its tag is reverted unless another queued
// request targets the same cell.
func (c *Controller) Remove(index int) (Request, error) {
	if index < 0 || index >= len(c.queue) {
		return Request{}, ErrIndexOutOfRange
	}

	req := c.queue[index]
	c.queue = append(c.queue[:index], c.queue[index+1:]...)

	if !c.isQueued(req.Target) {
		if state, _ := c.world.State(req.Target); state == world.QueuedTarget {
			c.world.Set(req.Target, world.Empty)
		}
	}
	return req, nil
}

// CancelAll abandons the current navigation and drops the queue, leaving only structural
// states in the world. The controller does not touch the world again until new work arrives.
func (c *Controller) CancelAll() {
	c.queue = nil
	c.world.ResetTransient()

	if c.current == nil {
		return
	}

	nav := c.current
	c.current = nil
	c.phase = PhaseCancelled
	c.finish(nav, OutcomeCancelled)
}

// Tick advances the state machine by one step and returns the resulting phase.
func (c *Controller) Tick() Phase {
	switch c.phase {
	case PhaseIdle, PhaseDone, PhaseCancelled:
		c.startNext()
	case PhaseSearching:
		c.searchStep()
	case PhasePathRevealed:
		c.phase = PhaseReplaying
	case PhaseReplaying:
		c.replayStep()
	}
	return c.phase
}

func (c *Controller) startNext() {
	if len(c.queue) == 0 {
		c.phase = PhaseIdle
		return
	}

	req := c.queue[0]
	c.queue = c.queue[1:]

	c.world.Annotate(req.Target, world.Target)
	c.current = &navigation{
		req:    req,
		search: pathfinder.NewSearch(c.grid, c.player, req.Target),
	}
	c.phase = PhaseSearching
}

func (c *Controller) searchStep() {
	nav := c.current
	switch nav.search.Step() {
	case pathfinder.StatusFound:
		nav.path = nav.search.Path()
		if len(nav.path) == 1 {
			c.arrive()
			return
		}

		c.world.ClearStates(world.Visited)
		c.markQueued()
		for _, p := range nav.path[1 : len(nav.path)-1] {
			c.grid.Annotate(p, world.Path)
		}
		c.phase = PhasePathRevealed
	case pathfinder.StatusNoPath:
		c.cleanup()
		c.current = nil
		c.phase = PhaseDone
		c.finish(nav, OutcomeUnreachable)
	}
}

func (c *Controller) replayStep() {
	nav := c.current
	nav.step++
	next := nav.path[nav.step]

	c.world.Set(c.player, world.PlayerTrail)
	c.world.Set(next, world.Player)
	c.player = next

	if nav.step == len(nav.path)-1 {
		c.arrive()
	}
}

func (c *Controller) arrive() {
	nav := c.current
	c.cleanup()
	c.current = nil
	c.phase = PhaseDone
	c.finish(nav, OutcomeArrived)
}

// cleanup removes the tags of the current navigation and restores those of queued requests.
func (c *Controller) cleanup() {
	c.world.ClearStates(navigationStates...)
	c.markQueued()
}

func (c *Controller) markQueued() {
	for _, r := range c.queue {
		c.grid.Annotate(r.Target, world.QueuedTarget)
	}
}

func (c *Controller) isQueued(pos world.Position) bool {
	for _, r := range c.queue {
		if r.Target == pos {
			return true
		}
	}
	return false
}

func (c *Controller) finish(nav *navigation, outcome Outcome) {
	if c.opts.OnFinish == nil {
		return
	}

	moved := 0
	if outcome != OutcomeUnreachable {
		moved = nav.step
	}
	c.opts.OnFinish(Result{
		Request:  nav.req,
		Outcome:  outcome,
		Path:     nav.path,
		Expanded: nav.search.Expanded(),
		Moved:    moved,
	})
}

// Queue returns a copy of the pending requests in service order.
func (c *Controller) Queue() []Request {
	queue := make([]Request, len(c.queue))
	copy(queue, c.queue)
	return queue
}

// Current returns the request being navigated, if any.
func (c *Controller) Current() (Request, bool) {
	if c.current == nil {
		return Request{}, false
	}
	return c.current.req, true
}

// Phase returns the phase reached by the last Tick or CancelAll.
func (c *Controller) Phase() Phase { return c.phase }

// Player returns the player's position.
func (c *Controller) Player() world.Position { return c.player }

// Busy reports whether a navigation is in flight or waiting.
func (c *Controller) Busy() bool {
	return c.current != nil || len(c.queue) > 0
}

// Delay returns how long the owner should wait before the next Tick when in phase.
func (c *Controller) Delay(phase Phase) time.Duration {
	switch phase {
	case PhaseSearching:
		return c.opts.SearchStepDelay
	case PhasePathRevealed:
		return c.opts.RevealPause
	case PhaseReplaying:
		return c.opts.ReplayStepDelay
	default:
		return 0
	}
}

// markerGrid keeps destination markers visible while a search annotates around them.
type markerGrid struct {
	*world.World
}

func (g *markerGrid) Annotate(pos world.Position, state world.CellState) bool {
	if current, _ := g.State(pos); current == world.Target || current == world.QueuedTarget {
		return false
	}
	return g.World.Annotate(pos, state)
}
