package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/topomap/internal/logging"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultInvalidationSubject - тема NATS для уведомлений об инвалидации
const DefaultInvalidationSubject = "cache.invalidation"

// NATSInvalidator реализует CacheInvalidator используя NATS Pub/Sub.
// Обеспечивает инвалидацию кеша тайлов между узлами сервера карт.
//
// Особенности:
// - Автоматическое переподключение при сбоях
// - Собственные сообщения узла игнорируются
// - Метрики публикации/подписки
type NATSInvalidator struct {
	conn    *nats.Conn
	config  *InvalidatorConfig
	subject string
	nodeID  string

	subMu        sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// Метрики (используем atomic для thread safety)
	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`

	// Retry настройки
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`

	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// InvalidationMessage представляет сообщение об инвалидации префикса ключей.
type InvalidationMessage struct {
	Prefix    string    `json:"prefix"`
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNATSInvalidator создаёт новый NATS invalidator.
// Пустой nodeID заменяется случайным UUID.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	if config.Subject == "" {
		config.Subject = DefaultInvalidationSubject
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = 10
	}
	if config.ReconnectWait == 0 {
		config.ReconnectWait = 2 * time.Second
	}
	if config.PublishTimeout == 0 {
		config.PublishTimeout = 5 * time.Second
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	opts := []nats.Option{
		nats.Name("topomap-" + nodeID),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logging.Info("NATS invalidator initialized: %s (subject: %s, node: %s)", config.NATSURL, config.Subject, nodeID)
	return &NATSInvalidator{
		conn:    conn,
		config:  config,
		subject: config.Subject,
		nodeID:  nodeID,
		stopCh:  make(chan struct{}),
	}, nil
}

// NodeID возвращает идентификатор узла
func (n *NATSInvalidator) NodeID() string {
	return n.nodeID
}

// PublishInvalidation отправляет уведомление об инвалидации префикса.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, prefix string) error {
	data, err := json.Marshal(&InvalidationMessage{
		Prefix:    prefix,
		NodeID:    n.nodeID,
		Timestamp: time.Now(),
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.PublishTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to flush invalidation: %w", err)
	}

	atomic.AddInt64(&n.publishedCount, 1)
	logging.Debug("Published invalidation for prefix: %s", prefix)
	return nil
}

// SubscribeInvalidations подписывается на уведомления других узлов.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription != nil {
		return errors.New("already subscribed to invalidations")
	}
	n.handler = handler

	sub, err := n.conn.Subscribe(n.subject, n.handleInvalidationMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	// Отписываемся при отмене контекста или закрытии
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()

	logging.Info("Subscribed to cache invalidations on subject: %s", n.subject)
	return nil
}

// Close закрывает соединение с NATS.
func (n *NATSInvalidator) Close() error {
	n.closeOnce.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
		n.unsubscribe()
		n.conn.Close()
		logging.Info("NATS invalidator closed")
	})
	return nil
}

// GetMetrics возвращает метрики invalidator.
func (n *NATSInvalidator) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"published_count": atomic.LoadInt64(&n.publishedCount),
		"received_count":  atomic.LoadInt64(&n.receivedCount),
		"errors_count":    atomic.LoadInt64(&n.errorsCount),
		"connected":       n.conn.IsConnected(),
		"node_id":         n.nodeID,
	}
}

func (n *NATSInvalidator) handleInvalidationMessage(msg *nats.Msg) {
	n.handle(msg.Data)
}

// handle разбирает уведомление и вызывает обработчик.
func (n *NATSInvalidator) handle(data []byte) {
	atomic.AddInt64(&n.receivedCount, 1)

	var im InvalidationMessage
	if err := json.Unmarshal(data, &im); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}

	// Собственные сообщения уже обработаны локально
	if im.NodeID == n.nodeID {
		return
	}

	if n.handler == nil {
		return
	}
	if err := n.handler(im.Prefix); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Invalidation handler failed for prefix %s: %v", im.Prefix, err)
		return
	}
	logging.Debug("Processed invalidation for prefix %s from node %s", im.Prefix, im.NodeID)
}

func (n *NATSInvalidator) unsubscribe() {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription != nil {
		if err := n.subscription.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			logging.Error("Failed to unsubscribe from invalidations: %v", err)
		}
		n.subscription = nil
	}
}
