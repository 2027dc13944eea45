package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/game/cavegen"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/pathfinder"
	"github.com/beka-birhanu/vinom-caves/game/rng"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/google/uuid"
)

const (
	defaultWorldWidth  = 64
	defaultWorldHeight = 48
	defaultIdleTTL     = 2 * time.Hour
	cacheTimeout       = 2 * time.Second
)

// error types
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoEmptyCell     = errors.New("world has no empty cell")
)

// origin is where every player starts; generation always leaves it open.
var origin = world.Position{X: 0, Y: 0}

// WorldSessionManager keeps the live worlds in memory. Each session is mutated only by the
// caller holding its lock, so generation, search and replay never overlap on one world.
type WorldSessionManager struct {
	sessions  map[uuid.UUID]*session
	cache     i.WorldCache
	repo      i.WorldRepo
	logger    i.Logger
	width     int
	height    int
	generator *cavegen.Options
	movement  movement.Options
	idleTTL   time.Duration
	done      chan struct{}
	stopOnce  sync.Once
	janitor   sync.WaitGroup
	sync.RWMutex
}

// Config wires a WorldSessionManager. Cache and Repo are optional.
type Config struct {
	Cache     i.WorldCache
	Repo      i.WorldRepo
	Logger    i.Logger
	Width     int // Used when a request omits the width.
	Height    int // Used when a request omits the height.
	Generator *cavegen.Options
	Movement  *movement.Options
	IdleTTL   time.Duration // Sessions without requests or navigation for this long are evicted.
}

// NewWorldSessionManager creates a manager with no sessions.
func NewWorldSessionManager(c *Config) (*WorldSessionManager, error) {
	if c == nil || c.Logger == nil {
		return nil, errors.New("session manager needs a logger")
	}

	m := &WorldSessionManager{
		sessions:  make(map[uuid.UUID]*session),
		cache:     c.Cache,
		repo:      c.Repo,
		logger:    c.Logger,
		width:     c.Width,
		height:    c.Height,
		generator: c.Generator,
		idleTTL:   c.IdleTTL,
		done:      make(chan struct{}),
	}

	if c.Movement != nil {
		m.movement = *c.Movement
	}
	if m.width <= 0 {
		m.width = defaultWorldWidth
	}
	if m.height <= 0 {
		m.height = defaultWorldHeight
	}
	if m.idleTTL <= 0 {
		m.idleTTL = defaultIdleTTL
	}

	m.janitor.Add(1)
	go m.expire()
	return m, nil
}

// Create generates a world and starts a session owning it.
func (m *WorldSessionManager) Create(ctx context.Context, seedInput string, width, height int) (*dmn.WorldInfo, error) {
	if width == 0 {
		width = m.width
	}
	if height == 0 {
		height = m.height
	}

	seed, synthesized := rng.ParseSeed(seedInput)
	w, err := world.New(width, height)
	if err != nil {
		return nil, err
	}

	s := &session{id: m.newID(), wake: make(chan struct{}, 1)}
	if err := m.build(ctx, s, w, seed); err != nil {
		return nil, err
	}

	s.start()
	m.Lock()
	m.sessions[s.id] = s
	m.Unlock()

	m.persist(s)
	m.logger.Info(fmt.Sprintf("created world %s: seed=%d size=%dx%d caves=%d empty=%d", s.id, seed, width, height, s.report.Caves, s.report.Empty))

	return m.info(s, synthesized), nil
}

// Regenerate cancels every navigation, revokes the runner, then rebuilds the world in place.
func (m *WorldSessionManager) Regenerate(ctx context.Context, id uuid.UUID, seedInput string) (*dmn.WorldInfo, error) {
	s, err := m.session(ctx, id)
	if err != nil {
		return nil, err
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.Lock()
	s.ctrl.CancelAll()
	s.Unlock()
	s.stop()

	seed, synthesized := rng.ParseSeed(seedInput)
	s.Lock()
	err = m.build(ctx, s, s.world, seed)
	s.Unlock()
	s.start()
	if err != nil {
		return nil, err
	}

	m.persist(s)
	m.logger.Info(fmt.Sprintf("regenerated world %s: seed=%d caves=%d empty=%d", s.id, seed, s.report.Caves, s.report.Empty))
	return m.info(s, synthesized), nil
}

// build fills w from seed and attaches a fresh controller. The caller owns s.
func (m *WorldSessionManager) build(ctx context.Context, s *session, w *world.World, seed uint32) error {
	report := m.generate(ctx, w, seed)

	ctrl, err := movement.New(w, origin, m.movementOptions(s.id))
	if err != nil {
		return fmt.Errorf("placing player: %w", err)
	}

	s.seed = seed
	s.world = w
	s.report = report
	s.ctrl = ctrl
	s.random = rng.New(seed)
	s.touched = time.Now()
	return nil
}

// generate produces the world for seed, preferring the cache. Cache failures only cost a
// local generation.
func (m *WorldSessionManager) generate(ctx context.Context, w *world.World, seed uint32) *cavegen.Report {
	if m.cache == nil {
		return cavegen.New(w, m.generator).Generate(seed)
	}

	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	unlock, err := m.cache.Lock(ctx, seed, w.Width(), w.Height())
	if err != nil {
		m.logger.Warning(fmt.Sprintf("generation lock for seed %d: %s", seed, err))
	} else {
		defer unlock()
	}

	cached, err := m.cache.Get(ctx, seed, w.Width(), w.Height())
	if err == nil {
		if err := w.UnmarshalText([]byte(cached.Grid)); err == nil && cached.Report != nil {
			return cached.Report
		}
		m.logger.Warning(fmt.Sprintf("ignoring malformed cached world for seed %d", seed))
	} else if !errors.Is(err, dmn.ErrCacheMiss) {
		m.logger.Warning(fmt.Sprintf("reading world cache: %s", err))
	}

	report := cavegen.New(w, m.generator).Generate(seed)
	entry := &dmn.CachedWorld{Seed: seed, Width: w.Width(), Height: w.Height(), Grid: w.String(), Report: report}
	if err := m.cache.Put(ctx, entry); err != nil {
		m.logger.Warning(fmt.Sprintf("writing world cache: %s", err))
	}
	return report
}

func (m *WorldSessionManager) movementOptions(id uuid.UUID) *movement.Options {
	opts := m.movement
	opts.OnFinish = func(r movement.Result) {
		m.logger.Info(fmt.Sprintf("world %s: navigation to %v %s after %d expansions and %d steps", id, r.Request.Target, r.Outcome, r.Expanded, r.Moved))
	}
	return &opts
}

// persist stores a snapshot of the session's structural world. Failures are logged only.
func (m *WorldSessionManager) persist(s *session) {
	if m.repo == nil {
		return
	}

	s.Lock()
	snapshot := &dmn.WorldSnapshot{
		ID:     s.id,
		Seed:   s.seed,
		Width:  s.world.Width(),
		Height: s.world.Height(),
		Rows:   s.world.Rows(),
		Report: s.report,
	}
	s.Unlock()

	if err := m.repo.Save(snapshot); err != nil {
		m.logger.Error(fmt.Sprintf("saving snapshot of world %s: %s", s.id, err))
	}
}

func (m *WorldSessionManager) info(s *session, synthesized bool) *dmn.WorldInfo {
	s.Lock()
	defer s.Unlock()
	return &dmn.WorldInfo{
		ID:              s.id,
		Seed:            s.seed,
		SeedSynthesized: synthesized,
		Width:           s.world.Width(),
		Height:          s.world.Height(),
		Report:          s.report,
	}
}

func (m *WorldSessionManager) newID() uuid.UUID {
	m.RLock()
	defer m.RUnlock()
	id := uuid.New()
	for {
		if _, ok := m.sessions[id]; !ok {
			return id
		}
		id = uuid.New()
	}
}

// session returns the live session for id, restoring it from its snapshot when the
// process no longer holds it.
func (m *WorldSessionManager) session(ctx context.Context, id uuid.UUID) (*session, error) {
	m.RLock()
	s, ok := m.sessions[id]
	m.RUnlock()
	if ok {
		s.touch()
		return s, nil
	}

	if m.repo == nil {
		return nil, ErrSessionNotFound
	}
	return m.restore(ctx, id)
}

func (m *WorldSessionManager) restore(ctx context.Context, id uuid.UUID) (*session, error) {
	snapshot, err := m.repo.ByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, err)
	}

	m.Lock()
	defer m.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	w, err := world.New(snapshot.Width, snapshot.Height)
	if err != nil {
		return nil, err
	}

	s := &session{id: id, wake: make(chan struct{}, 1)}
	if err := m.build(ctx, s, w, snapshot.Seed); err != nil {
		return nil, err
	}
	m.sessions[id] = s
	s.start()

	m.logger.Info(fmt.Sprintf("restored world %s from seed %d", id, snapshot.Seed))
	return s, nil
}

// View returns a consistent read of the session.
func (m *WorldSessionManager) View(id uuid.UUID) (*dmn.WorldView, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	view := &dmn.WorldView{
		ID:     s.id,
		Seed:   s.seed,
		Width:  s.world.Width(),
		Height: s.world.Height(),
		Player: s.ctrl.Player(),
		Phase:  s.ctrl.Phase().String(),
		Queue:  s.ctrl.Queue(),
		Rows:   s.world.Rows(),
	}
	if current, ok := s.ctrl.Current(); ok {
		view.Current = &current
	}
	return view, nil
}

// Cell returns the cell at pos, or movement.ErrOutOfBounds.
func (m *WorldSessionManager) Cell(id uuid.UUID, pos world.Position) (world.Cell, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return world.Cell{}, err
	}

	s.Lock()
	defer s.Unlock()
	cell, ok := s.world.CellAt(pos)
	if !ok {
		return world.Cell{}, movement.ErrOutOfBounds
	}
	return cell, nil
}

// Viewport returns a width×height window centered on the player.
func (m *WorldSessionManager) Viewport(id uuid.UUID, width, height int) (*dmn.ViewportView, error) {
	if width <= 0 || height <= 0 || width > world.MaxDimension || height > world.MaxDimension {
		return nil, fmt.Errorf("%w: viewport %dx%d", world.ErrInvalidDimensions, width, height)
	}

	s, err := m.session(context.Background(), id)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	vp := world.NewViewport(s.world, width, height)
	vp.CenterOn(s.ctrl.Player())
	return &dmn.ViewportView{
		Offset: vp.Offset(),
		Width:  vp.Width(),
		Height: vp.Height(),
		Rows:   vp.Rows(),
	}, nil
}

// RandomEmpty picks an empty cell with the session's seeded generator.
func (m *WorldSessionManager) RandomEmpty(id uuid.UUID) (world.Position, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return world.Position{}, err
	}

	s.Lock()
	defer s.Unlock()
	return s.randomEmpty()
}

func (s *session) randomEmpty() (world.Position, error) {
	pos, ok := s.world.RandomEmptyPosition(s.random)
	if !ok {
		return world.Position{}, ErrNoEmptyCell
	}
	return pos, nil
}

// FindPath searches a copy of the world so the live session is neither blocked nor annotated.
// A nil path with a nil error means the destination is unreachable.
func (m *WorldSessionManager) FindPath(ctx context.Context, id uuid.UUID, from, to world.Position) ([]world.Position, error) {
	s, err := m.session(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Lock()
	snapshot := s.world.Clone()
	s.Unlock()

	return pathfinder.FindPath(ctx, snapshot, from, to)
}

// Enqueue appends a destination to the session's movement queue.
func (m *WorldSessionManager) Enqueue(id uuid.UUID, pos world.Position) (movement.Request, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return movement.Request{}, err
	}

	s.Lock()
	req, err := s.ctrl.Enqueue(pos)
	s.Unlock()
	if err != nil {
		return movement.Request{}, err
	}

	s.notify()
	return req, nil
}

// Remove drops a still-queued destination.
func (m *WorldSessionManager) Remove(id uuid.UUID, index int) (movement.Request, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return movement.Request{}, err
	}

	s.Lock()
	defer s.Unlock()
	return s.ctrl.Remove(index)
}

// CancelAll abandons the session's navigation and queue.
func (m *WorldSessionManager) CancelAll(id uuid.UUID) error {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	s.ctrl.CancelAll()
	return nil
}

// Wander enqueues a seeded random empty destination.
func (m *WorldSessionManager) Wander(id uuid.UUID) (movement.Request, error) {
	s, err := m.session(context.Background(), id)
	if err != nil {
		return movement.Request{}, err
	}

	s.Lock()
	pos, err := s.randomEmpty()
	if err != nil {
		s.Unlock()
		return movement.Request{}, err
	}
	req, err := s.ctrl.Enqueue(pos)
	s.Unlock()
	if err != nil {
		return movement.Request{}, err
	}

	s.notify()
	return req, nil
}

// expire evicts idle sessions until StopAll. An evicted session is restored from its
// snapshot by the next request that names it.
func (m *WorldSessionManager) expire() {
	defer m.janitor.Done()

	ticker := time.NewTicker(max(m.idleTTL/2, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *WorldSessionManager) evictIdle(now time.Time) {
	var idle []*session
	m.Lock()
	for id, s := range m.sessions {
		if s.idleFor(now) >= m.idleTTL {
			delete(m.sessions, id)
			idle = append(idle, s)
		}
	}
	m.Unlock()

	for _, s := range idle {
		s.lifecycle.Lock()
		s.stop()
		s.lifecycle.Unlock()
		m.logger.Info(fmt.Sprintf("evicted idle world %s", s.id))
	}
}

// StopAll cancels every session and waits for their runners to exit.
func (m *WorldSessionManager) StopAll() {
	m.stopOnce.Do(func() { close(m.done) })
	m.janitor.Wait()

	m.Lock()
	defer m.Unlock()

	for _, s := range m.sessions {
		s.lifecycle.Lock()
		s.Lock()
		s.ctrl.CancelAll()
		s.Unlock()
		s.stop()
		s.lifecycle.Unlock()
	}
	m.logger.Info(fmt.Sprintf("stopped %d sessions", len(m.sessions)))
}
