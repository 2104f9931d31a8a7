package api

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eventStream это один websocket-подписчик на события шины
type eventStream struct {
	conn    *websocket.Conn
	send    chan *eventbus.Envelope
	dropped atomic.Int64
}

// handleEventStream отдаёт события шины клиенту по websocket.
// ?types=world.place_added,world.place_removed ограничивает типы.
func (rs *RestServer) handleEventStream(c *gin.Context) {
	if rs.bus == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "event bus disabled"})
		return
	}

	var filter eventbus.Filter
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rs.logError("❌ websocket upgrade: %v", err)
		return
	}

	stream := &eventStream{conn: conn, send: make(chan *eventbus.Envelope, wsSendBuffer)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := rs.bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		// Шина доставляет синхронно: медленный клиент теряет события, а не тормозит остальных
		select {
		case stream.send <- ev:
		default:
			stream.dropped.Add(1)
		}
	})
	if err != nil {
		rs.logError("❌ websocket subscribe: %v", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"))
		conn.Close()
		return
	}

	rs.logInfo("📡 Подписчик событий подключён: %s", c.ClientIP())
	done := make(chan struct{})
	go stream.readLoop(done)
	stream.writeLoop(done)

	sub.Unsubscribe()
	conn.Close()
	rs.logInfo("📴 Подписчик событий отключён: %s (потеряно %d)", c.ClientIP(), stream.dropped.Load())
}

// readLoop читает только control-кадры; закрывает done при разрыве
func (s *eventStream) readLoop(done chan<- struct{}) {
	defer close(done)
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *eventStream) writeLoop(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
