// Package editor объединяет мир, буфер обмена, выделение и историю
// обзора в один сеанс редактирования с сообщениями о результатах.
package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/mudmap/internal/clipboard"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/navigation"
	"github.com/annel0/mudmap/internal/selection"
	"github.com/annel0/mudmap/internal/world"
)

// ErrNoSelection: на клетке курсора нет места
var ErrNoSelection = errors.New("no place under cursor")

// Options это необязательные параметры сеанса
type Options struct {
	HistoryLimit int
	Listener     MessageListener
	Metrics      *Metrics
}

// Session это сеанс редактирования одного мира.
// Все методы потокобезопасны; слушатель сообщений вызывается вне блокировки.
type Session struct {
	mu sync.Mutex

	world     *world.World
	clipboard *clipboard.Buffer
	group     *selection.Group
	history   *navigation.History
	cursor    world.WorldCoordinate

	listener    MessageListener
	metrics     *Metrics
	pending     []string
	lastMessage string
}

// NewSession создаёт сеанс; курсор стоит в доме мира
func NewSession(w *world.World, opts Options) *Session {
	s := &Session{
		world:     w,
		clipboard: clipboard.New(),
		group:     selection.NewGroup(),
		listener:  opts.Listener,
		metrics:   opts.Metrics,
	}
	s.history = navigation.NewHistory(opts.HistoryLimit, w.Home)
	s.cursor = w.Home()
	return s
}

func (s *Session) lock() {
	s.mu.Lock()
}

// unlock снимает блокировку и доставляет накопленные сообщения
func (s *Session) unlock() {
	msgs := s.pending
	s.pending = nil
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return
	}
	for _, m := range msgs {
		listener.OnMessage(m)
	}
}

func (s *Session) report(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.pending = append(s.pending, msg)
	s.lastMessage = msg
	logging.Debug("💬 %s", msg)
}

// SetListener заменяет получателя сообщений
func (s *Session) SetListener(l MessageListener) {
	s.lock()
	s.listener = l
	s.unlock()
}

// LastMessage возвращает последнее сообщение сеанса
func (s *Session) LastMessage() string {
	s.lock()
	defer s.unlock()
	return s.lastMessage
}

// Do выполняет fn над миром под блокировкой сеанса
func (s *Session) Do(fn func(w *world.World) error) error {
	s.lock()
	defer s.unlock()
	return fn(s.world)
}

// World возвращает мир без блокировки (для однопоточного использования)
func (s *Session) World() *world.World {
	return s.world
}

// --- навигация ---

// Position возвращает текущую точку обзора
func (s *Session) Position() world.WorldCoordinate {
	s.lock()
	defer s.unlock()
	return s.history.Position()
}

// Goto запоминает позицию в истории и переносит туда курсор
func (s *Session) Goto(c world.WorldCoordinate) {
	s.lock()
	defer s.unlock()
	s.history.Push(c)
	s.cursor = c
}

// Back возвращается к предыдущей позиции истории
func (s *Session) Back() world.WorldCoordinate {
	s.lock()
	defer s.unlock()
	s.cursor = s.history.Pop()
	return s.cursor
}

// GotoHome переходит в дом мира
func (s *Session) GotoHome() {
	s.lock()
	defer s.unlock()
	home := s.world.Home()
	s.history.Push(home)
	s.cursor = home
}

// SetHome делает позицию курсора домом мира
func (s *Session) SetHome() {
	s.lock()
	defer s.unlock()
	s.world.SetHome(s.cursor)
	s.report("Home set to %s", s.cursor)
}

// ResetHistory очищает историю
func (s *Session) ResetHistory() {
	s.lock()
	defer s.unlock()
	s.history.Reset()
}

// HistoryEntries возвращает историю обзора от старых позиций к новым
func (s *Session) HistoryEntries() []world.WorldCoordinate {
	s.lock()
	defer s.unlock()
	return s.history.Entries()
}

// SetHistoryEntries восстанавливает историю; курсор встаёт на последнюю позицию
func (s *Session) SetHistoryEntries(entries []world.WorldCoordinate) {
	s.lock()
	defer s.unlock()
	s.history.SetEntries(entries)
	s.cursor = s.history.Position()
}

// --- курсор ---

// Cursor возвращает позицию курсора
func (s *Session) Cursor() world.WorldCoordinate {
	s.lock()
	defer s.unlock()
	return s.cursor
}

// SetCursor ставит курсор на клетку текущего слоя; точка обзора следует за ним
func (s *Session) SetCursor(x, y int) {
	s.lock()
	defer s.unlock()
	s.setCursor(world.NewWorldCoordinate(s.cursor.Layer, float64(x), float64(y)))
}

// SetCursorAt ставит курсор в произвольную позицию мира, в том числе на другой слой
func (s *Session) SetCursorAt(c world.WorldCoordinate) {
	s.lock()
	defer s.unlock()
	s.setCursor(c)
}

func (s *Session) setCursor(c world.WorldCoordinate) {
	s.cursor = c
	s.history.Restore(c)
}

// MoveCursor сдвигает курсор на одну клетку в направлении dir
func (s *Session) MoveCursor(dir world.Direction) error {
	s.lock()
	defer s.unlock()
	offset, ok := dir.Offset()
	if !ok {
		return fmt.Errorf("move cursor: %w: %q", world.ErrInvalidDirection, dir)
	}
	s.setCursor(s.cursor.Moved(float64(offset.X), float64(offset.Y)))
	return nil
}

// CurrentLayer возвращает слой курсора (nil, если слоя нет)
func (s *Session) CurrentLayer() *world.Layer {
	s.lock()
	defer s.unlock()
	return s.world.Layer(s.cursor.Layer)
}

// SelectedPlace возвращает место под курсором
func (s *Session) SelectedPlace() *world.Place {
	s.lock()
	defer s.unlock()
	return s.selectedPlace()
}

func (s *Session) selectedPlace() *world.Place {
	layer := s.world.Layer(s.cursor.Layer)
	if layer == nil {
		return nil
	}
	cell := s.cursor.Cell()
	return layer.Get(cell.X, cell.Y)
}

// --- редактирование ---

// QuickConnect соединяет место под курсором с соседом по направлению dir.
// Соседу назначается противоположная метка.
func (s *Session) QuickConnect(dir world.Direction) (path *world.Path, err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("quick_connect", err) }()

	place := s.selectedPlace()
	if place == nil {
		return nil, ErrNoSelection
	}
	offset, ok := dir.Offset()
	if !ok {
		return nil, fmt.Errorf("quick connect: %w: %q", world.ErrInvalidDirection, dir)
	}
	target := place.Position().Add(offset)
	other := place.Layer().Get(target.X, target.Y)
	if other == nil {
		return nil, fmt.Errorf("quick connect %s: %w at %d, %d", dir, world.ErrPlaceNotFound, target.X, target.Y)
	}

	path = world.NewPath(place, dir, other, dir.Opposite())
	if err := place.ConnectPath(path); err != nil {
		return nil, fmt.Errorf("quick connect %s: %w", dir, err)
	}
	s.report("Connected %s %s to %s", place.Name, dir, other.Name)
	return path, nil
}

// Disconnect удаляет путь из слота dir места под курсором
func (s *Session) Disconnect(dir world.Direction) (err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("disconnect", err) }()

	place := s.selectedPlace()
	if place == nil {
		return ErrNoSelection
	}
	path := place.Exit(dir)
	if path == nil {
		return fmt.Errorf("disconnect %s: %w", dir, world.ErrPathNotFound)
	}
	return place.RemovePath(path)
}

// TogglePlaceholder ставит заглушку в пустую клетку курсора или убирает стоящую там заглушку.
// Возвращает созданную заглушку (nil при удалении).
func (s *Session) TogglePlaceholder() (*world.Place, error) {
	s.lock()
	defer s.unlock()
	return s.togglePlaceholder()
}

// TogglePlaceholderAt переносит курсор в c и переключает заглушку там
func (s *Session) TogglePlaceholderAt(c world.WorldCoordinate) (*world.Place, error) {
	s.lock()
	defer s.unlock()
	s.setCursor(c)
	return s.togglePlaceholder()
}

func (s *Session) togglePlaceholder() (created *world.Place, err error) {
	defer func() { s.metrics.observe("toggle_placeholder", err) }()

	if s.world.Layer(s.cursor.Layer) == nil {
		return nil, fmt.Errorf("toggle placeholder: %w: %d", world.ErrLayerNotFound, s.cursor.Layer)
	}

	place := s.selectedPlace()
	switch {
	case place == nil:
		cell := s.cursor.Cell()
		return s.world.PutPlaceholder(s.cursor.Layer, cell.X, cell.Y)
	case place.IsPlaceholder():
		s.group.Remove(place)
		return nil, s.world.RemovePlace(place)
	default:
		return nil, fmt.Errorf("toggle placeholder: %w by %q", world.ErrPositionOccupied, place.Name)
	}
}

// --- выделение ---

// Selection возвращает выделенные места на слое курсора
func (s *Session) Selection() []*world.Place {
	s.lock()
	defer s.unlock()
	return s.selection()
}

func (s *Session) selection() []*world.Place {
	return s.group.Selection(s.world.Layer(s.cursor.Layer))
}

// SelectAll выделяет все места слоя курсора
func (s *Session) SelectAll() int {
	s.lock()
	defer s.unlock()
	layer := s.world.Layer(s.cursor.Layer)
	if layer == nil {
		s.group.Reset()
		return 0
	}
	s.group.ClearBox()
	s.group.Set(layer.Places())
	return layer.Len()
}

// ToggleSelect переключает выделение места под курсором
func (s *Session) ToggleSelect() bool {
	s.lock()
	defer s.unlock()
	place := s.selectedPlace()
	if place == nil {
		return false
	}
	s.group.Add(place)
	return s.group.Contains(place)
}

// ExtendBox растягивает рамку выделения от курсора до (x, y) и переносит туда курсор
func (s *Session) ExtendBox(x, y int) {
	s.lock()
	defer s.unlock()
	to := world.NewWorldCoordinate(s.cursor.Layer, float64(x), float64(y))
	s.group.ExtendBox(s.cursor, to)
	s.setCursor(to)
}

// SelectBox задаёт рамку выделения целиком
func (s *Session) SelectBox(start, end world.WorldCoordinate) []*world.Place {
	s.lock()
	defer s.unlock()
	s.group.SetBox(start, end)
	return s.group.Selection(s.world.Layer(start.Layer))
}

// ClearSelection снимает выделение
func (s *Session) ClearSelection() {
	s.lock()
	defer s.unlock()
	s.group.Reset()
}

// --- буфер обмена ---

func (s *Session) clipSource() []*world.Place {
	places := s.selection()
	if len(places) == 0 {
		if p := s.selectedPlace(); p != nil {
			places = []*world.Place{p}
		}
	}
	return places
}

// CopySelection копирует выделение (или место под курсором) относительно курсора
func (s *Session) CopySelection() int {
	s.lock()
	defer s.unlock()
	return s.capture(clipboard.ModeCopy, s.clipSource())
}

// CutSelection запоминает выделение для переноса; места остаются на месте до вставки
func (s *Session) CutSelection() int {
	s.lock()
	defer s.unlock()
	return s.capture(clipboard.ModeCut, s.clipSource())
}

// CopyPlaces ставит курсор в anchor и копирует места с идентификаторами ids.
// Пустой ids означает текущее выделение.
func (s *Session) CopyPlaces(anchor world.WorldCoordinate, ids []world.PlaceID) (int, error) {
	return s.captureAt(clipboard.ModeCopy, anchor, ids)
}

// CutPlaces делает то же, что CopyPlaces, но для переноса
func (s *Session) CutPlaces(anchor world.WorldCoordinate, ids []world.PlaceID) (int, error) {
	return s.captureAt(clipboard.ModeCut, anchor, ids)
}

func (s *Session) captureAt(mode clipboard.Mode, anchor world.WorldCoordinate, ids []world.PlaceID) (int, error) {
	s.lock()
	defer s.unlock()

	places := make([]*world.Place, 0, len(ids))
	for _, id := range ids {
		p := s.world.PlaceByID(id)
		if p == nil {
			return 0, fmt.Errorf("%w: %s", world.ErrPlaceNotFound, id)
		}
		places = append(places, p)
	}

	s.setCursor(anchor)
	if len(places) == 0 {
		places = s.clipSource()
	}
	return s.capture(mode, places), nil
}

func (s *Session) capture(mode clipboard.Mode, places []*world.Place) int {
	cell := s.cursor.Cell()
	if mode == clipboard.ModeCut {
		s.clipboard.Cut(places, cell.X, cell.Y)
	} else {
		s.clipboard.Copy(places, cell.X, cell.Y)
	}
	n := s.clipboard.Len()
	s.metrics.observe(mode.String(), nil)
	if mode == clipboard.ModeCut {
		s.report("%d places cut", n)
	} else {
		s.report("%d places copied", n)
	}
	return n
}

// CanPaste проверяет, поместится ли буфер в позицию курсора
func (s *Session) CanPaste() bool {
	s.lock()
	defer s.unlock()
	cell := s.cursor.Cell()
	return s.clipboard.CanPaste(cell.X, cell.Y, s.world.Layer(s.cursor.Layer))
}

// ClipboardMode возвращает режим буфера
func (s *Session) ClipboardMode() clipboard.Mode {
	s.lock()
	defer s.unlock()
	return s.clipboard.Mode()
}

// ResetClipboard очищает буфер
func (s *Session) ResetClipboard() {
	s.lock()
	defer s.unlock()
	s.clipboard.Reset()
}

// Paste вставляет буфер так, что якорь попадает на курсор.
// После вставки выделение сбрасывается.
func (s *Session) Paste() (int, error) {
	s.lock()
	defer s.unlock()
	return s.paste()
}

// PasteAt переносит курсор в c и вставляет буфер
func (s *Session) PasteAt(c world.WorldCoordinate) (int, error) {
	s.lock()
	defer s.unlock()
	s.setCursor(c)
	return s.paste()
}

func (s *Session) paste() (n int, err error) {
	defer func() { s.metrics.observe("paste", err) }()

	cell := s.cursor.Cell()
	layer := s.world.Layer(s.cursor.Layer)
	if layer == nil && s.clipboard.HasPlaces() {
		return 0, fmt.Errorf("paste: %w: %d", world.ErrLayerNotFound, s.cursor.Layer)
	}

	n, err = s.clipboard.Paste(cell.X, cell.Y, layer)
	switch {
	case errors.Is(err, clipboard.ErrEmptyBuffer):
		s.report(msgEmptyBuffer)
		return 0, err
	case errors.Is(err, clipboard.ErrInsufficientSpace):
		s.report(msgNoSpace)
		return 0, err
	case err != nil:
		logging.Error("❌ Вставка прервана после %d мест: %v", n, err)
		return n, err
	}

	s.group.Reset()
	s.metrics.pasted(n)
	s.report("%d places pasted", n)
	return n, nil
}

// --- поиск ---

// FindPath ищет маршрут от места под курсором до end и выделяет его
func (s *Session) FindPath(end *world.Place) *world.Route {
	s.lock()
	defer s.unlock()
	return s.findPath(s.selectedPlace(), end)
}

// FindPathBetween ищет маршрут между двумя местами и выделяет его
func (s *Session) FindPathBetween(start, end *world.Place) *world.Route {
	s.lock()
	defer s.unlock()
	return s.findPath(start, end)
}

// FindPathByID это FindPathBetween по идентификаторам мест
func (s *Session) FindPathByID(start, end world.PlaceID) (*world.Route, error) {
	s.lock()
	defer s.unlock()
	from, to := s.world.PlaceByID(start), s.world.PlaceByID(end)
	if from == nil {
		return nil, fmt.Errorf("%w: %s", world.ErrPlaceNotFound, start)
	}
	if to == nil {
		return nil, fmt.Errorf("%w: %s", world.ErrPlaceNotFound, end)
	}
	return s.findPath(from, to), nil
}

func (s *Session) findPath(start, end *world.Place) *world.Route {
	route := s.world.BreadthSearch(start, end)
	if route == nil {
		s.metrics.observe("find_path", world.ErrPathNotFound)
		s.report(msgNoPath)
		return nil
	}
	s.metrics.observe("find_path", nil)
	s.group.Reset()
	s.group.Set(route.Places())
	s.report("Path found, length: %d", route.Len())
	return route
}

// Neighbors возвращает места в радиусе radius вокруг курсора
func (s *Session) Neighbors(radius int) []*world.Place {
	s.lock()
	defer s.unlock()
	layer := s.world.Layer(s.cursor.Layer)
	if layer == nil {
		return nil
	}
	c := s.cursor.Cell()
	return layer.Neighbors(c.X, c.Y, radius)
}
