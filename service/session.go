package service

import (
	"context"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-caves/game/cavegen"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/rng"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
)

// session is one live world. The embedded mutex guards the world and controller; lifecycle
// serialises regeneration and shutdown so only one of them restarts the runner at a time.
type session struct {
	id        uuid.UUID
	seed      uint32
	world     *world.World
	report    *cavegen.Report
	ctrl      *movement.Controller
	random    *rng.Random
	touched   time.Time // Last request or navigation.
	wake      chan struct{}
	cancel    context.CancelFunc
	runner    sync.WaitGroup
	lifecycle sync.Mutex
	sync.Mutex
}

// start launches the runner goroutine that drives the controller.
func (s *session) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.runner.Add(1)
	go s.run(ctx)
}

// stop revokes the runner and waits until it can no longer touch the world.
func (s *session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.runner.Wait()
}

func (s *session) touch() {
	s.Lock()
	s.touched = time.Now()
	s.Unlock()
}

// idleFor reports how long the session has gone unused at now. A navigation in flight
// counts as use.
func (s *session) idleFor(now time.Time) time.Duration {
	s.Lock()
	defer s.Unlock()
	if s.ctrl.Busy() {
		s.touched = now
		return 0
	}
	return now.Sub(s.touched)
}

// notify wakes an idle runner without blocking.
func (s *session) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) run(ctx context.Context) {
	defer s.runner.Done()

	for {
		s.Lock()
		if !s.ctrl.Busy() {
			s.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		phase := s.ctrl.Tick()
		delay := s.ctrl.Delay(phase)
		s.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
