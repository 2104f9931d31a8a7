package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultInvalidationSubject это subject рассылки инвалидаций снимков
const DefaultInvalidationSubject = "mudmap.cache.invalidate"

// NATSInvalidator рассылает инвалидацию снимков между узлами через NATS Pub/Sub.
// Собственные сообщения узла игнорируются.
type NATSInvalidator struct {
	conn    *nats.Conn
	subject string
	nodeID  string

	mu           sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator
type InvalidatorConfig struct {
	NATSURL       string
	Subject       string
	NodeID        string // пустой: случайный UUID
	MaxReconnects int
	ReconnectWait time.Duration
}

// InvalidationMessage это сообщение об инвалидации ключа
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NewNATSInvalidator подключается к NATS
func NewNATSInvalidator(config InvalidatorConfig) (*NATSInvalidator, error) {
	if config.MaxReconnects == 0 {
		config.MaxReconnects = 10
	}
	if config.ReconnectWait == 0 {
		config.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name("mudmap-cache-invalidator"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	inv := newInvalidator(conn, config.Subject, config.NodeID)
	logging.Info("🔔 NATS invalidator: %s (subject: %s, node: %s)", config.NATSURL, inv.subject, inv.nodeID)
	return inv, nil
}

func newInvalidator(conn *nats.Conn, subject, nodeID string) *NATSInvalidator {
	if subject == "" {
		subject = DefaultInvalidationSubject
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &NATSInvalidator{conn: conn, subject: subject, nodeID: nodeID}
}

// NodeID возвращает идентификатор узла
func (n *NATSInvalidator) NodeID() string {
	return n.nodeID
}

// Publish отправляет уведомление об инвалидации ключа
func (n *NATSInvalidator) Publish(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(InvalidationMessage{Key: key, Timestamp: time.Now().UTC(), NodeID: n.nodeID})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("publish invalidation: %w", err)
	}
	atomic.AddInt64(&n.publishedCount, 1)
	logging.Debug("Published invalidation for key: %s", key)
	return nil
}

// Subscribe подписывается на инвалидации; подписка снимается при отмене ctx
func (n *NATSInvalidator) Subscribe(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		return errors.New("already subscribed to invalidations")
	}

	sub, err := n.conn.Subscribe(n.subject, n.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to invalidations: %w", err)
	}
	n.subscription = sub
	n.handler = handler

	go func() {
		<-ctx.Done()
		n.unsubscribe()
	}()
	return nil
}

// handleMessage обрабатывает входящее сообщение об инвалидации
func (n *NATSInvalidator) handleMessage(msg *nats.Msg) {
	atomic.AddInt64(&n.receivedCount, 1)

	var inv InvalidationMessage
	if err := json.Unmarshal(msg.Data, &inv); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}
	if inv.NodeID == n.nodeID {
		return
	}

	n.mu.Lock()
	handler := n.handler
	n.mu.Unlock()
	if handler == nil {
		return
	}
	if err := handler(inv.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Invalidation handler failed for key %s: %v", inv.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil {
		logging.Error("Failed to unsubscribe from invalidations: %v", err)
	}
	n.subscription = nil
	n.handler = nil
}

// Stats возвращает счётчики публикаций, получений и ошибок
func (n *NATSInvalidator) Stats() (published, received, errs int64) {
	return atomic.LoadInt64(&n.publishedCount), atomic.LoadInt64(&n.receivedCount), atomic.LoadInt64(&n.errorsCount)
}

// Close закрывает соединение с NATS
func (n *NATSInvalidator) Close() error {
	n.unsubscribe()
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
