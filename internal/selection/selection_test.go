package selection

import (
	"testing"

	"github.com/annel0/mudmap/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillLayer(t *testing.T) (*world.World, *world.Layer) {
	t.Helper()
	w := world.New("sel")
	layer := w.NewLayer("ground")
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			_, err := w.PutPlaceholder(layer.ID(), x, y)
			require.NoError(t, err)
		}
	}
	return w, layer
}

func TestBox_ReversedCornersGiveSameSet(t *testing.T) {
	_, layer := fillLayer(t)
	id := layer.ID()

	a := Box(world.NewWorldCoordinate(id, 0, 0), world.NewWorldCoordinate(id, 2, 1), layer)
	b := Box(world.NewWorldCoordinate(id, 2, 1), world.NewWorldCoordinate(id, 0, 0), layer)
	c := Box(world.NewWorldCoordinate(id, 0, 1), world.NewWorldCoordinate(id, 2, 0), layer)

	assert.Equal(t, 6, a.Len())
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestBox_SingleCellAndRounding(t *testing.T) {
	_, layer := fillLayer(t)
	id := layer.ID()

	one := Box(world.NewWorldCoordinate(id, 1.2, 2.4), world.NewWorldCoordinate(id, 0.6, 1.6), layer)
	require.Equal(t, 1, one.Len())
	assert.True(t, one.Contains(layer.Get(1, 2)))
}

func TestBox_DifferentLayers(t *testing.T) {
	w, layer := fillLayer(t)
	other := w.NewLayer("sky")

	set := Box(world.NewWorldCoordinate(layer.ID(), 0, 0), world.NewWorldCoordinate(other.ID(), 3, 3), layer)
	assert.Equal(t, 0, set.Len())

	set = Box(world.NewWorldCoordinate(layer.ID(), 0, 0), world.NewWorldCoordinate(layer.ID(), 3, 3), nil)
	assert.Equal(t, 0, set.Len())
}

func TestBox_EmptyAreaOnPopulatedLayer(t *testing.T) {
	w, layer := fillLayer(t)
	id := layer.ID()

	// за пределами заполненного квадрата 4x4
	set := Box(world.NewWorldCoordinate(id, 10, 10), world.NewWorldCoordinate(id, 12, 14), layer)
	assert.Equal(t, 0, set.Len())
	set = Box(world.NewWorldCoordinate(id, -5, 0), world.NewWorldCoordinate(id, -1, 3), layer)
	assert.Equal(t, 0, set.Len())

	// дырка внутри занятой области
	sparse := w.NewLayer("sparse")
	for _, c := range [][2]int{{0, 0}, {4, 0}, {0, 4}, {4, 4}} {
		_, err := w.PutPlaceholder(sparse.ID(), c[0], c[1])
		require.NoError(t, err)
	}
	sid := sparse.ID()
	set = Box(world.NewWorldCoordinate(sid, 1, 1), world.NewWorldCoordinate(sid, 3, 3), sparse)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Slice())

	set = Box(world.NewWorldCoordinate(sid, 0, 0), world.NewWorldCoordinate(sid, 4, 4), sparse)
	assert.Equal(t, 4, set.Len())

	g := NewGroup()
	g.SetBox(world.NewWorldCoordinate(sid, 1, 1), world.NewWorldCoordinate(sid, 3, 3))
	assert.True(t, g.HasSelection())
	assert.Empty(t, g.Selection(sparse))
}

func TestGroup_AddToggleAndLayerSwitch(t *testing.T) {
	w, layer := fillLayer(t)
	other := w.NewLayer("sky")
	sky, err := w.PutPlace(other.ID(), 0, 0, "cloud")
	require.NoError(t, err)

	g := NewGroup()
	assert.False(t, g.HasSelection())

	p := layer.Get(1, 1)
	g.Add(p)
	assert.True(t, g.Contains(p))
	g.Add(p)
	assert.False(t, g.Contains(p), "повторное добавление снимает отметку")

	g.Add(layer.Get(0, 0))
	g.Add(layer.Get(1, 0))
	g.Add(sky)
	assert.True(t, g.Contains(sky))
	assert.False(t, g.Contains(layer.Get(0, 0)), "смена слоя сбрасывает выделение")
	assert.Len(t, g.Selection(other), 1)
}

func TestGroup_SelectionMergesBox(t *testing.T) {
	_, layer := fillLayer(t)
	id := layer.ID()

	g := NewGroup()
	g.Add(layer.Get(3, 3))
	g.SetBox(world.NewWorldCoordinate(id, 0, 0), world.NewWorldCoordinate(id, 1, 0))
	g.Add(layer.Get(0, 0))

	sel := g.Selection(layer)
	require.Len(t, sel, 3)
	// построчный порядок: сверху вниз, слева направо
	assert.Same(t, layer.Get(3, 3), sel[0])
	assert.Same(t, layer.Get(0, 0), sel[1])
	assert.Same(t, layer.Get(1, 0), sel[2])

	g.Reset()
	assert.False(t, g.HasSelection())
	assert.Empty(t, g.Selection(layer))
}

func TestGroup_SetAndExtendBox(t *testing.T) {
	w, layer := fillLayer(t)
	other := w.NewLayer("sky")
	sky, _ := w.PutPlace(other.ID(), 0, 0, "cloud")

	g := NewGroup()
	g.Set([]*world.Place{layer.Get(0, 0), sky, layer.Get(2, 2)})
	assert.Len(t, g.Selection(layer), 2)
	assert.False(t, g.Contains(sky))

	g.Reset()
	id := layer.ID()
	g.ExtendBox(world.NewWorldCoordinate(id, 0, 0), world.NewWorldCoordinate(id, 1, 1))
	g.ExtendBox(world.NewWorldCoordinate(id, 3, 3), world.NewWorldCoordinate(id, 2, 1))
	start, end, ok := g.BoxCorners()
	require.True(t, ok)
	assert.Equal(t, world.NewWorldCoordinate(id, 0, 0), start, "начало рамки сохраняется")
	assert.Equal(t, world.NewWorldCoordinate(id, 2, 1), end)
	assert.Len(t, g.Selection(layer), 6)
}
