package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/game/cavegen"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/rng"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *memLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+" "+msg)
}

func (l *memLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func (l *memLogger) Info(msg string)    { l.add("INFO", msg) }
func (l *memLogger) Warning(msg string) { l.add("WARNING", msg) }
func (l *memLogger) Error(msg string)   { l.add("ERROR", msg) }

type memCache struct {
	mu      sync.Mutex
	entries map[string]*dmn.CachedWorld
	hits    int
	puts    int
}

func cacheKey(seed uint32, width, height int) string {
	return fmt.Sprintf("%d:%dx%d", seed, width, height)
}

func (c *memCache) Get(_ context.Context, seed uint32, width, height int) (*dmn.CachedWorld, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey(seed, width, height)]
	if !ok {
		return nil, dmn.ErrCacheMiss
	}
	c.hits++
	return entry, nil
}

func (c *memCache) Put(_ context.Context, w *dmn.CachedWorld) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(w.Seed, w.Width, w.Height)] = w
	c.puts++
	return nil
}

func (c *memCache) Lock(context.Context, uint32, int, int) (func(), error) {
	return func() {}, nil
}

type memRepo struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]*dmn.WorldSnapshot
}

func (r *memRepo) Save(s *dmn.WorldSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[s.ID] = s
	return nil
}

func (r *memRepo) ByID(id uuid.UUID) (*dmn.WorldSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("no snapshot %s", id)
	}
	return s, nil
}

type fixture struct {
	manager *WorldSessionManager
	cache   *memCache
	repo    *memRepo
	logger  *memLogger
	idleTTL time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cache:  &memCache{entries: make(map[string]*dmn.CachedWorld)},
		repo:   &memRepo{snapshots: make(map[uuid.UUID]*dmn.WorldSnapshot)},
		logger: &memLogger{},
	}
	f.manager = f.newManager(t)
	return f
}

func (f *fixture) newManager(t *testing.T) *WorldSessionManager {
	t.Helper()
	m, err := NewWorldSessionManager(&Config{
		Cache:  f.cache,
		Repo:   f.repo,
		Logger: f.logger,
		Width:  20,
		Height: 20,
		Movement: &movement.Options{
			SearchStepDelay: time.Millisecond,
			RevealPause:     time.Millisecond,
			ReplayStepDelay: time.Millisecond,
		},
		IdleTTL: f.idleTTL,
	})
	require.NoError(t, err)
	t.Cleanup(m.StopAll)
	return m
}

// expectedRows generates seed independently and places the player at the origin.
func expectedRows(t *testing.T, seed uint32, width, height int) []string {
	t.Helper()
	w, err := world.New(width, height)
	require.NoError(t, err)
	cavegen.New(w, nil).Generate(seed)
	w.Set(world.Position{}, world.Player)
	return w.Rows()
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Seeded world", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(ctx, "abc123", 0, 0)
		require.NoError(t, err)

		assert.Equal(t, rng.HashString("abc123"), info.Seed)
		assert.False(t, info.SeedSynthesized)
		assert.Equal(t, 20, info.Width)
		assert.Equal(t, 20, info.Height)
		require.NotNil(t, info.Report)
		assert.Equal(t, info.Seed, info.Report.Seed)

		view, err := f.manager.View(info.ID)
		require.NoError(t, err)
		assert.Equal(t, expectedRows(t, info.Seed, 20, 20), view.Rows)
		assert.Equal(t, world.Position{}, view.Player)
		assert.Equal(t, "idle", view.Phase)
		assert.Nil(t, view.Current)
	})

	t.Run("Numeric seeds are used as is", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(ctx, "12345", 30, 10)
		require.NoError(t, err)
		assert.Equal(t, uint32(12345), info.Seed)
		assert.Equal(t, 30, info.Width)
		assert.Equal(t, 10, info.Height)
	})

	t.Run("Missing seed is synthesized", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.True(t, info.SeedSynthesized)

		view, err := f.manager.View(info.ID)
		require.NoError(t, err)
		assert.Equal(t, expectedRows(t, info.Seed, 20, 20), view.Rows)
	})

	t.Run("Invalid dimensions", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Create(ctx, "x", -1, 10)
		assert.ErrorIs(t, err, world.ErrInvalidDimensions)
		_, err = f.manager.Create(ctx, "x", world.MaxDimension+1, 10)
		assert.ErrorIs(t, err, world.ErrInvalidDimensions)
	})

	t.Run("Same seed is generated once", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.manager.Create(ctx, "cached", 0, 0)
		require.NoError(t, err)
		b, err := f.manager.Create(ctx, "cached", 0, 0)
		require.NoError(t, err)

		assert.Equal(t, 1, f.cache.puts)
		assert.Equal(t, 1, f.cache.hits)
		assert.Equal(t, a.Report, b.Report)

		va, _ := f.manager.View(a.ID)
		vb, _ := f.manager.View(b.ID)
		assert.Equal(t, va.Rows, vb.Rows)
	})

	t.Run("Snapshot is persisted and restorable", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(ctx, "persist", 0, 0)
		require.NoError(t, err)
		require.Contains(t, f.repo.snapshots, info.ID)

		restarted := f.newManager(t)
		view, err := restarted.View(info.ID)
		require.NoError(t, err)
		assert.Equal(t, f.repo.snapshots[info.ID].Rows, view.Rows)
	})
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.manager.View(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.manager.Enqueue(id, world.Position{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.manager.CancelAll(id), ErrSessionNotFound)
	_, err = f.manager.Regenerate(context.Background(), id, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	info, err := f.manager.Create(context.Background(), "abc123", 0, 0)
	require.NoError(t, err)

	t.Run("Cell", func(t *testing.T) {
		cell, err := f.manager.Cell(info.ID, world.Position{})
		require.NoError(t, err)
		assert.Equal(t, world.Player, cell.State)

		_, err = f.manager.Cell(info.ID, world.Position{X: 20, Y: 0})
		assert.ErrorIs(t, err, movement.ErrOutOfBounds)
	})

	t.Run("Viewport", func(t *testing.T) {
		vp, err := f.manager.Viewport(info.ID, 5, 4)
		require.NoError(t, err)
		assert.Equal(t, world.Position{}, vp.Offset)
		assert.Len(t, vp.Rows, 4)
		assert.Equal(t, byte('@'), vp.Rows[0][0])

		_, err = f.manager.Viewport(info.ID, 0, 4)
		assert.ErrorIs(t, err, world.ErrInvalidDimensions)
	})

	t.Run("RandomEmpty", func(t *testing.T) {
		pos, err := f.manager.RandomEmpty(info.ID)
		require.NoError(t, err)
		cell, err := f.manager.Cell(info.ID, pos)
		require.NoError(t, err)
		assert.Equal(t, world.Empty, cell.State)
	})

	t.Run("FindPath leaves the session untouched", func(t *testing.T) {
		before, err := f.manager.View(info.ID)
		require.NoError(t, err)

		path, err := f.manager.FindPath(context.Background(), info.ID, world.Position{}, world.Position{X: 10, Y: 10})
		require.NoError(t, err)
		require.NotEmpty(t, path)
		assert.Equal(t, world.Position{X: 10, Y: 10}, path[len(path)-1])

		after, err := f.manager.View(info.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Rows, after.Rows)
	})
}

func TestNavigation(t *testing.T) {
	t.Run("Enqueued destination is reached", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(context.Background(), "abc123", 0, 0)
		require.NoError(t, err)

		target := world.Position{X: 10, Y: 10}
		req, err := f.manager.Enqueue(info.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, req.Target)

		assert.Eventually(t, func() bool {
			view, err := f.manager.View(info.ID)
			return err == nil && view.Player == target && view.Current == nil
		}, 5*time.Second, 5*time.Millisecond)

		view, err := f.manager.View(info.ID)
		require.NoError(t, err)
		for _, row := range view.Rows {
			for _, g := range []byte(row) {
				assert.Contains(t, []byte{'.', '#', '@'}, g)
			}
		}
	})

	t.Run("Wander picks an empty destination", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(context.Background(), "wander", 0, 0)
		require.NoError(t, err)

		req, err := f.manager.Wander(info.ID)
		require.NoError(t, err)
		assert.Eventually(t, func() bool {
			view, err := f.manager.View(info.ID)
			return err == nil && view.Player == req.Target
		}, 5*time.Second, 5*time.Millisecond)
	})

	t.Run("Queue operations", func(t *testing.T) {
		f := newFixture(t)
		info, err := f.manager.Create(context.Background(), "queue", 0, 0)
		require.NoError(t, err)

		_, err = f.manager.Remove(info.ID, 0)
		assert.ErrorIs(t, err, movement.ErrIndexOutOfRange)
		_, err = f.manager.Enqueue(info.ID, world.Position{X: -1, Y: 0})
		assert.ErrorIs(t, err, movement.ErrOutOfBounds)

		require.NoError(t, f.manager.CancelAll(info.ID))
	})
}

func TestRegenerate(t *testing.T) {
	f := newFixture(t)
	m, err := NewWorldSessionManager(&Config{
		Logger: f.logger,
		Width:  40,
		Height: 40,
		Movement: &movement.Options{
			SearchStepDelay: 5 * time.Millisecond,
			RevealPause:     5 * time.Millisecond,
			ReplayStepDelay: 5 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.StopAll)

	info, err := m.Create(context.Background(), "first", 0, 0)
	require.NoError(t, err)

	target, err := m.RandomEmpty(info.ID)
	require.NoError(t, err)
	_, err = m.Enqueue(info.ID, target)
	require.NoError(t, err)
	_, err = m.Enqueue(info.ID, world.Position{X: 39, Y: 39})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	regenerated, err := m.Regenerate(context.Background(), info.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, info.ID, regenerated.ID)
	assert.Equal(t, rng.HashString("second"), regenerated.Seed)

	want := expectedRows(t, regenerated.Seed, 40, 40)
	view, err := m.View(info.ID)
	require.NoError(t, err)
	assert.Equal(t, want, view.Rows)
	assert.Empty(t, view.Queue)
	assert.Nil(t, view.Current)
	assert.Equal(t, world.Position{}, view.Player)

	time.Sleep(50 * time.Millisecond)
	view, err = m.View(info.ID)
	require.NoError(t, err)
	assert.Equal(t, want, view.Rows)
}

func (m *WorldSessionManager) live(id uuid.UUID) *session {
	m.RLock()
	defer m.RUnlock()
	return m.sessions[id]
}

func TestIdleEviction(t *testing.T) {
	ctx := context.Background()

	t.Run("Expired session stops its runner and is restored on demand", func(t *testing.T) {
		f := newFixture(t)
		f.idleTTL = 20 * time.Millisecond
		m := f.newManager(t)

		info, err := m.Create(ctx, "idle", 16, 16)
		require.NoError(t, err)
		s := m.live(info.ID)
		require.NotNil(t, s)

		exited := make(chan struct{})
		go func() {
			s.runner.Wait()
			close(exited)
		}()

		select {
		case <-exited:
		case <-time.After(2 * time.Second):
			require.FailNow(t, "runner of an idle session is still running")
		}
		assert.Nil(t, m.live(info.ID))
		evicted := fmt.Sprintf("INFO evicted idle world %s", info.ID)
		assert.Eventually(t, func() bool {
			for _, msg := range f.logger.messages() {
				if msg == evicted {
					return true
				}
			}
			return false
		}, time.Second, 5*time.Millisecond)

		view, err := m.View(info.ID)
		require.NoError(t, err)
		assert.Equal(t, info.Seed, view.Seed)
		assert.Equal(t, expectedRows(t, info.Seed, 16, 16), view.Rows)
	})

	t.Run("Goroutines of expired sessions are reclaimed", func(t *testing.T) {
		f := newFixture(t)
		f.idleTTL = 20 * time.Millisecond
		m := f.newManager(t)
		before := runtime.NumGoroutine()

		for i := 0; i < 50; i++ {
			_, err := m.Create(ctx, "", 16, 16)
			require.NoError(t, err)
		}

		assert.Eventually(t, func() bool {
			m.RLock()
			defer m.RUnlock()
			return len(m.sessions) == 0 && runtime.NumGoroutine() <= before
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Requests keep a session alive", func(t *testing.T) {
		f := newFixture(t)
		f.idleTTL = 80 * time.Millisecond
		m := f.newManager(t)

		info, err := m.Create(ctx, "busy", 16, 16)
		require.NoError(t, err)
		s := m.live(info.ID)

		for i := 0; i < 10; i++ {
			time.Sleep(15 * time.Millisecond)
			_, err := m.View(info.ID)
			require.NoError(t, err)
		}
		assert.Same(t, s, m.live(info.ID))
	})

	t.Run("Without snapshots an evicted session is gone", func(t *testing.T) {
		m, err := NewWorldSessionManager(&Config{Logger: &memLogger{}, IdleTTL: 20 * time.Millisecond})
		require.NoError(t, err)
		t.Cleanup(m.StopAll)

		info, err := m.Create(ctx, "gone", 16, 16)
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return m.live(info.ID) == nil }, time.Second, 5*time.Millisecond)
		_, err = m.View(info.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
