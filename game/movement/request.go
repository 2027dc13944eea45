package movement

import (
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
)

// Phase is the stage of the navigation currently owned by the controller.
type Phase int

const (
	PhaseIdle         Phase = iota // Nothing to do.
	PhaseSearching                 // A* is expanding cells.
	PhasePathRevealed              // The path is drawn; waiting before the player moves.
	PhaseReplaying                 // The player walks the path one cell per tick.
	PhaseDone                      // The last navigation finished.
	PhaseCancelled                 // The last navigation was abandoned.
)

var phaseNames = [...]string{"idle", "searching", "path_revealed", "replaying", "done", "cancelled"}

func (p Phase) String() string {
	return phaseNames[p]
}

// Outcome is how a navigation ended.
type Outcome int

const (
	OutcomeArrived Outcome = iota
	OutcomeUnreachable
	OutcomeCancelled
)

var outcomeNames = [...]string{"arrived", "unreachable", "cancelled"}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Request is a single destination waiting for, or undergoing, navigation.
type Request struct {
	ID     uuid.UUID      `json:"id"`
	Target world.Position `json:"target"`
}

// Result is reported once per request that left the queue through navigation.
type Result struct {
	Request  Request
	Outcome  Outcome
	Path     []world.Position // Nil unless a path was found.
	Expanded int              // Cells finalized by the search.
	Moved    int              // Steps the player actually walked.
}
