package navigation

import (
	"testing"

	"github.com/annel0/mudmap/internal/world"
	"github.com/stretchr/testify/assert"
)

func TestHistory_FallsBackToHome(t *testing.T) {
	home := world.NewWorldCoordinate(1, 5, 5)
	h := NewHistory(0, func() world.WorldCoordinate { return home })

	assert.Equal(t, home, h.Position())

	a := world.NewWorldCoordinate(1, 1, 1)
	b := world.NewWorldCoordinate(2, 3, 3)
	h.Push(a)
	h.Push(b)
	assert.Equal(t, b, h.Position())
	assert.Equal(t, a, h.Pop())
	assert.Equal(t, home, h.Pop())
	assert.Equal(t, home, h.Pop(), "пустая история остаётся пустой")
}

func TestHistory_RestoreAndLimit(t *testing.T) {
	h := NewHistory(3, nil)
	assert.Equal(t, world.WorldCoordinate{}, h.Position())

	h.Restore(world.NewWorldCoordinate(1, 0, 0))
	assert.Equal(t, 1, h.Len())

	for i := 1; i <= 4; i++ {
		h.Push(world.NewWorldCoordinate(1, float64(i), 0))
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2.0, h.Entries()[0].X)

	h.Restore(world.NewWorldCoordinate(1, 9, 9))
	assert.Equal(t, world.NewWorldCoordinate(1, 9, 9), h.Position())
	assert.Equal(t, 3, h.Len())

	h.Reset()
	assert.Equal(t, 0, h.Len())
}

func TestHistory_SetEntriesCopies(t *testing.T) {
	h := NewHistory(2, nil)
	src := []world.WorldCoordinate{
		world.NewWorldCoordinate(1, 1, 1),
		world.NewWorldCoordinate(1, 2, 2),
		world.NewWorldCoordinate(1, 3, 3),
	}
	h.SetEntries(src)
	assert.Equal(t, src[1:], h.Entries())

	got := h.Entries()
	got[0] = world.WorldCoordinate{}
	assert.Equal(t, src[1], h.Entries()[0])
}
