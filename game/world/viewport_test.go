package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewport(t *testing.T) {
	w, err := New(20, 10)
	require.NoError(t, err)

	t.Run("Move clamps at the world edges", func(t *testing.T) {
		v := NewViewport(w, 8, 4)
		v.Move(-5, -5)
		assert.Equal(t, Position{X: 0, Y: 0}, v.Offset())

		v.Move(100, 100)
		assert.Equal(t, Position{X: 12, Y: 6}, v.Offset())
	})

	t.Run("CenterOn", func(t *testing.T) {
		v := NewViewport(w, 8, 4)
		v.CenterOn(Position{X: 10, Y: 5})
		assert.Equal(t, Position{X: 6, Y: 3}, v.Offset())

		v.CenterOn(Position{X: 19, Y: 9})
		assert.Equal(t, Position{X: 12, Y: 6}, v.Offset())
		assert.True(t, v.Contains(Position{X: 19, Y: 9}))
		assert.False(t, v.Contains(Position{X: 0, Y: 0}))
	})

	t.Run("Viewport larger than the world stays at origin", func(t *testing.T) {
		v := NewViewport(w, 30, 30)
		v.CenterOn(Position{X: 15, Y: 8})
		assert.Equal(t, Position{X: 0, Y: 0}, v.Offset())
		assert.Len(t, v.Rows(), 10)
		assert.Len(t, v.Rows()[0], 20)
		assert.False(t, v.Contains(Position{X: 25, Y: 0}))
	})

	t.Run("Coordinate conversions", func(t *testing.T) {
		v := NewViewport(w, 5, 5)
		v.Move(3, 2)
		assert.Equal(t, Position{X: 4, Y: 3}, v.ToWorld(Position{X: 1, Y: 1}))

		local, ok := v.ToLocal(Position{X: 4, Y: 3})
		assert.True(t, ok)
		assert.Equal(t, Position{X: 1, Y: 1}, local)

		_, ok = v.ToLocal(Position{X: 2, Y: 3})
		assert.False(t, ok)
	})

	t.Run("Rows show the visible window", func(t *testing.T) {
		require.True(t, w.Set(Position{X: 3, Y: 2}, Wall))
		v := NewViewport(w, 3, 2)
		v.Move(2, 2)
		assert.Equal(t, []string{".#.", "..."}, v.Rows())
	})
}
