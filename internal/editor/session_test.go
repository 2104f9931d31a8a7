package editor

import (
	"sync"
	"testing"

	"github.com/annel0/mudmap/internal/clipboard"
	"github.com/annel0/mudmap/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) OnMessage(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

func newSession(t *testing.T) (*Session, *world.Layer, *recorder) {
	t.Helper()
	w := world.New("editor")
	layer := w.NewLayer("ground")
	w.SetHome(world.NewWorldCoordinate(layer.ID(), 0, 0))

	rec := &recorder{}
	return NewSession(w, Options{Listener: rec}), layer, rec
}

func put(t *testing.T, s *Session, layer *world.Layer, x, y int, name string) *world.Place {
	t.Helper()
	p, err := s.World().PutPlace(layer.ID(), x, y, name)
	require.NoError(t, err)
	return p
}

func TestSession_CopyPasteMessages(t *testing.T) {
	s, layer, rec := newSession(t)
	put(t, s, layer, 0, 0, "gate")
	put(t, s, layer, 1, 0, "road")

	assert.Equal(t, 2, s.SelectAll())
	assert.Equal(t, 2, s.CopySelection())
	assert.Equal(t, "2 places copied", rec.last())

	s.SetCursor(0, 5)
	assert.True(t, s.CanPaste())
	n, err := s.Paste()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "2 places pasted", rec.last())
	assert.Equal(t, "road", layer.Get(1, 5).Name)
	assert.Empty(t, s.Selection(), "вставка сбрасывает выделение")

	_, err = s.Paste()
	assert.ErrorIs(t, err, clipboard.ErrInsufficientSpace)
	assert.Equal(t, "Can't paste: not enough free space on map", rec.last())

	s.ResetClipboard()
	_, err = s.Paste()
	assert.ErrorIs(t, err, clipboard.ErrEmptyBuffer)
	assert.Equal(t, "Can't paste: no places cut or copied", rec.last())
	assert.Equal(t, rec.last(), s.LastMessage())
}

func TestSession_CutMovesPlaceUnderCursor(t *testing.T) {
	s, layer, rec := newSession(t)
	gate := put(t, s, layer, 0, 0, "gate")

	assert.Equal(t, 1, s.CutSelection(), "без выделения берётся место под курсором")
	assert.Equal(t, "1 places cut", rec.last())
	assert.Equal(t, clipboard.ModeCut, s.ClipboardMode())

	s.SetCursor(3, 3)
	_, err := s.Paste()
	require.NoError(t, err)
	assert.Nil(t, layer.Get(0, 0))
	assert.Same(t, gate, layer.Get(3, 3))
	assert.Equal(t, clipboard.ModeNone, s.ClipboardMode())
}

func TestSession_QuickConnectAndDisconnect(t *testing.T) {
	s, layer, _ := newSession(t)
	hall := put(t, s, layer, 0, 0, "hall")
	yard := put(t, s, layer, 0, 1, "yard")

	path, err := s.QuickConnect(world.North)
	require.NoError(t, err)
	assert.Same(t, path, hall.Exit(world.North))
	assert.Same(t, path, yard.Exit(world.South))

	_, err = s.QuickConnect(world.North)
	assert.ErrorIs(t, err, world.ErrSlotOccupied)

	_, err = s.QuickConnect(world.East)
	assert.ErrorIs(t, err, world.ErrPlaceNotFound)

	_, err = s.QuickConnect(world.Up)
	assert.ErrorIs(t, err, world.ErrInvalidDirection)

	require.NoError(t, s.Disconnect(world.North))
	assert.Nil(t, yard.Exit(world.South))
	assert.ErrorIs(t, s.Disconnect(world.North), world.ErrPathNotFound)

	s.SetCursor(9, 9)
	_, err = s.QuickConnect(world.North)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSession_TogglePlaceholder(t *testing.T) {
	s, layer, _ := newSession(t)

	s.SetCursor(2, 2)
	ph, err := s.TogglePlaceholder()
	require.NoError(t, err)
	require.NotNil(t, ph)
	assert.True(t, ph.IsPlaceholder())
	assert.Same(t, ph, s.SelectedPlace())

	ph, err = s.TogglePlaceholder()
	require.NoError(t, err)
	assert.Nil(t, ph)
	assert.False(t, layer.Exist(2, 2))

	put(t, s, layer, 2, 2, "shop")
	_, err = s.TogglePlaceholder()
	assert.ErrorIs(t, err, world.ErrPositionOccupied)
}

func TestSession_FindPath(t *testing.T) {
	s, layer, rec := newSession(t)
	a := put(t, s, layer, 0, 0, "a")
	b := put(t, s, layer, 1, 0, "b")
	c := put(t, s, layer, 2, 0, "c")
	lonely := put(t, s, layer, 5, 5, "lonely")
	require.NoError(t, a.ConnectPath(world.NewPath(a, world.East, b, world.West)))
	require.NoError(t, b.ConnectPath(world.NewPath(b, world.East, c, world.West)))

	route := s.FindPath(c)
	require.NotNil(t, route)
	assert.Equal(t, 2, route.Len())
	assert.Equal(t, "Path found, length: 2", rec.last())
	assert.Equal(t, []*world.Place{a, b, c}, s.Selection())

	assert.Nil(t, s.FindPath(lonely))
	assert.Equal(t, "No Path found", rec.last())

	s.SetCursor(7, 7)
	assert.Nil(t, s.FindPath(c))
}

func TestSession_Navigation(t *testing.T) {
	s, layer, _ := newSession(t)
	home := world.NewWorldCoordinate(layer.ID(), 0, 0)
	assert.Equal(t, home, s.Position())

	far := world.NewWorldCoordinate(layer.ID(), 10, 10)
	s.Goto(far)
	assert.Equal(t, far, s.Cursor())

	require.NoError(t, s.MoveCursor(world.NorthEast))
	moved := world.NewWorldCoordinate(layer.ID(), 11, 11)
	assert.Equal(t, moved, s.Position(), "точка обзора следует за курсором")
	assert.Error(t, s.MoveCursor(world.Down))

	s.SetHome()
	assert.Equal(t, moved, s.World().Home())

	assert.Equal(t, moved, s.Back(), "история пуста, возвращаемся домой")
	s.GotoHome()
	assert.Len(t, s.HistoryEntries(), 1)

	s.SetHistoryEntries([]world.WorldCoordinate{home, far})
	assert.Equal(t, far, s.Cursor())
	s.ResetHistory()
	assert.Empty(t, s.HistoryEntries())
}

func TestSession_SelectionOps(t *testing.T) {
	s, layer, _ := newSession(t)
	put(t, s, layer, 0, 0, "a")
	put(t, s, layer, 1, 1, "b")
	put(t, s, layer, 3, 3, "c")

	assert.True(t, s.ToggleSelect())
	assert.Len(t, s.Selection(), 1)
	assert.False(t, s.ToggleSelect())

	s.ExtendBox(1, 1)
	assert.Len(t, s.Selection(), 2)
	assert.Equal(t, world.NewWorldCoordinate(layer.ID(), 1, 1), s.Cursor())

	sel := s.SelectBox(world.NewWorldCoordinate(layer.ID(), 3, 3), world.NewWorldCoordinate(layer.ID(), 0, 0))
	assert.Len(t, sel, 3)

	s.ClearSelection()
	assert.Empty(t, s.Selection())
	assert.Len(t, s.Neighbors(1), 1)
}

func TestSession_Metrics(t *testing.T) {
	w := world.New("metrics")
	layer := w.NewLayer("ground")
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := NewSession(w, Options{Metrics: m})
	s.Goto(world.NewWorldCoordinate(layer.ID(), 0, 0))

	_, err := w.PutPlace(layer.ID(), 0, 0, "a")
	require.NoError(t, err)

	s.CopySelection()
	s.SetCursor(4, 4)
	_, err = s.Paste()
	require.NoError(t, err)
	_, err = s.Paste()
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("paste", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("paste", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.placed))
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s, layer, _ := newSession(t)
	for i := 0; i < 10; i++ {
		put(t, s, layer, i, 0, "p")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetCursor(i, 0)
			s.SelectAll()
			s.CopySelection()
			_ = s.Selection()
			_ = s.Do(func(w *world.World) error {
				_ = w.PlaceCount()
				return nil
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, s.World().PlaceCount())
}

func TestSession_CopyPlacesAndPasteAt(t *testing.T) {
	s, layer, rec := newSession(t)
	other := s.World().NewLayer("cellar")
	a := put(t, s, layer, 4, 4, "a")
	b := put(t, s, layer, 5, 4, "b")

	anchor := world.NewWorldCoordinate(layer.ID(), 4, 4)
	n, err := s.CutPlaces(anchor, []world.PlaceID{a.ID(), b.ID()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "2 places cut", rec.last())

	n, err = s.PasteAt(world.NewWorldCoordinate(other.ID(), 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Same(t, a, other.Get(0, 0))
	assert.Same(t, b, other.Get(1, 0))
	assert.True(t, layer.IsEmpty())
	assert.Equal(t, other.ID(), s.Cursor().Layer)

	_, err = s.CopyPlaces(anchor, []world.PlaceID{"missing"})
	assert.ErrorIs(t, err, world.ErrPlaceNotFound)
}

func TestSession_TogglePlaceholderAt(t *testing.T) {
	s, layer, _ := newSession(t)
	at := world.NewWorldCoordinate(layer.ID(), 3, -1)

	created, err := s.TogglePlaceholderAt(at)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, at, s.Cursor())
	assert.Same(t, created, layer.Get(3, -1))

	created, err = s.TogglePlaceholderAt(at)
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.False(t, layer.Exist(3, -1))

	_, err = s.TogglePlaceholderAt(world.NewWorldCoordinate(42, 0, 0))
	assert.ErrorIs(t, err, world.ErrLayerNotFound)
}

func TestSession_FindPathByID(t *testing.T) {
	s, layer, rec := newSession(t)
	a := put(t, s, layer, 0, 0, "a")
	b := put(t, s, layer, 0, 1, "b")
	require.NoError(t, a.ConnectPath(world.NewPath(a, world.North, b, world.South)))

	route, err := s.FindPathByID(a.ID(), b.ID())
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, 1, route.Len())
	assert.Equal(t, "Path found, length: 1", rec.last())

	_, err = s.FindPathByID(a.ID(), "nowhere")
	assert.ErrorIs(t, err, world.ErrPlaceNotFound)
}
