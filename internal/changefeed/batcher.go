package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/google/uuid"
)

// BatchEventType это тип конверта с пакетом изменений мира
const BatchEventType = "changefeed.batch"

// batchPayload это полезная нагрузка BatchEventType
type batchPayload struct {
	Codec  string `json:"codec"`
	Count  int    `json:"count"`
	Events []byte `json:"events"`
}

// Batcher накапливает события мира и отправляет их пакетами через EventBus.
// При переполнении буфера вытесняется событие с наименьшим приоритетом.
type Batcher struct {
	mu       sync.Mutex
	buf      []*eventbus.Envelope
	capacity int

	flushEvery time.Duration
	bus        eventbus.EventBus
	source     string
	codec      string
	compressor Compressor

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	dropped  int
}

// NewBatcher создаёт и запускает батчер
func NewBatcher(bus eventbus.EventBus, source string, capacity int, flushEvery time.Duration, compress bool) *Batcher {
	if capacity <= 0 {
		capacity = 256
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	b := &Batcher{
		capacity:   capacity,
		flushEvery: flushEvery,
		bus:        bus,
		source:     source,
		codec:      "json",
		compressor: NewJSONCompressor(),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if compress {
		b.codec, b.compressor = "zstd", NewZstdCompressor()
	}
	go b.loop()
	return b
}

// Add ставит событие в очередь
func (b *Batcher) Add(ev *eventbus.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) < b.capacity {
		b.buf = append(b.buf, ev)
		return
	}

	lowIdx, lowPri := -1, ev.Priority
	for i, queued := range b.buf {
		if queued.Priority < lowPri {
			lowIdx, lowPri = i, queued.Priority
		}
	}
	b.dropped++
	if lowIdx < 0 {
		return
	}
	// сохраняем порядок: вытесненное удаляется, новое встаёт в конец
	b.buf = append(b.buf[:lowIdx], b.buf[lowIdx+1:]...)
	b.buf = append(b.buf, ev)
}

// Pending возвращает число событий в буфере
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Dropped возвращает число вытесненных событий
func (b *Batcher) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Batcher) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.quit:
			return
		}
	}
}

// Flush отправляет накопленные события одним конвертом
func (b *Batcher) Flush() {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}
	events := b.buf
	b.buf = nil
	b.mu.Unlock()

	data, err := b.compressor.Compress(events)
	if err != nil {
		logging.Warn("⚠️ changefeed: ошибка сжатия пакета: %v", err)
		return
	}
	payload, err := json.Marshal(batchPayload{Codec: b.codec, Count: len(events), Events: data})
	if err != nil {
		logging.Warn("⚠️ changefeed: ошибка кодирования пакета: %v", err)
		return
	}

	env := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    b.source,
		EventType: BatchEventType,
		Version:   1,
		Priority:  5,
		Payload:   payload,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.bus.Publish(ctx, env); err != nil {
		logging.Warn("⚠️ changefeed: ошибка публикации пакета: %v", err)
		return
	}
	logging.Trace("📦 changefeed: отправлено %d событий (%d байт, %s)", len(events), len(data), b.codec)
}

// Stop останавливает батчер и отправляет остаток
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.quit)
		<-b.done
		b.Flush()
	})
}
