package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/logging"
)

// BatchHandler получает распакованный пакет изменений другого узла
type BatchHandler func(source string, events []*eventbus.Envelope)

// Producer подписывается на события world.* и передаёт их батчеру
type Producer struct {
	batcher *Batcher
	sub     eventbus.Subscription
}

func NewProducer(bus eventbus.EventBus, b *Batcher) (*Producer, error) {
	p := &Producer{batcher: b}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{}, p.handle)
	if err != nil {
		return nil, err
	}
	p.sub = sub
	return p, nil
}

func (p *Producer) handle(_ context.Context, ev *eventbus.Envelope) {
	if strings.HasPrefix(ev.EventType, eventbus.WorldEventPrefix) {
		p.batcher.Add(ev)
	}
}

func (p *Producer) Stop() { p.sub.Unsubscribe() }

// Consumer слушает пакеты других узлов
type Consumer struct {
	source  string
	sub     eventbus.Subscription
	handler BatchHandler
}

// NewConsumer подписывается на пакеты; собственные пакеты узла source пропускаются
func NewConsumer(bus eventbus.EventBus, source string, handler BatchHandler) (*Consumer, error) {
	c := &Consumer{source: source, handler: handler}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{BatchEventType}}, c.handle)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

func (c *Consumer) handle(_ context.Context, ev *eventbus.Envelope) {
	if ev.Source == c.source {
		return
	}
	events, err := DecodeBatch(ev)
	if err != nil {
		logging.Warn("⚠️ changefeed: пакет %s от %s отброшен: %v", ev.ID, ev.Source, err)
		return
	}
	logging.Debug("📦 changefeed: получено %d событий от %s", len(events), ev.Source)
	if c.handler != nil {
		c.handler(ev.Source, events)
	}
}

func (c *Consumer) Stop() { c.sub.Unsubscribe() }

// DecodeBatch распаковывает конверт BatchEventType
func DecodeBatch(ev *eventbus.Envelope) ([]*eventbus.Envelope, error) {
	if ev.EventType != BatchEventType {
		return nil, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	var payload batchPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode batch payload: %w", err)
	}

	var compressor Compressor
	switch payload.Codec {
	case "json":
		compressor = NewJSONCompressor()
	case "zstd":
		compressor = NewZstdCompressor()
	default:
		return nil, fmt.Errorf("unknown codec %q", payload.Codec)
	}
	events, err := compressor.Decompress(payload.Events)
	if err != nil {
		return nil, err
	}
	if len(events) != payload.Count {
		return nil, fmt.Errorf("batch count mismatch: %d != %d", len(events), payload.Count)
	}
	return events, nil
}

// Config это параметры ленты изменений
type Config struct {
	Source     string
	Bus        eventbus.EventBus
	BatchSize  int
	FlushEvery time.Duration
	Compress   bool
	OnBatch    BatchHandler // nil: пакеты других узлов только логируются
}

// Feed связывает Batcher, Producer и Consumer
type Feed struct {
	batcher  *Batcher
	producer *Producer
	consumer *Consumer
}

func New(cfg Config) (*Feed, error) {
	b := NewBatcher(cfg.Bus, cfg.Source, cfg.BatchSize, cfg.FlushEvery, cfg.Compress)
	producer, err := NewProducer(cfg.Bus, b)
	if err != nil {
		b.Stop()
		return nil, err
	}
	consumer, err := NewConsumer(cfg.Bus, cfg.Source, cfg.OnBatch)
	if err != nil {
		producer.Stop()
		b.Stop()
		return nil, err
	}

	logging.Info("🔄 Лента изменений: source=%s, batch=%d, flush=%v, zstd=%v",
		cfg.Source, b.capacity, b.flushEvery, cfg.Compress)
	return &Feed{batcher: b, producer: producer, consumer: consumer}, nil
}

// Batcher возвращает батчер ленты
func (f *Feed) Batcher() *Batcher { return f.batcher }

func (f *Feed) Stop() {
	f.producer.Stop()
	f.consumer.Stop()
	f.batcher.Stop()
	logging.Info("🔄 Лента изменений остановлена")
}
