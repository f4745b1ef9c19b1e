package storefront

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/notify"
)

// NotificationSubjectPrefix is the NATS subject root notifications are
// published under, followed by the session id.
const NotificationSubjectPrefix = "storefront.notifications"

var (
	_ Publisher             = (*nats.Conn)(nil)
	_ notify.Notifier       = (*EventManager)(nil)
	_ NotificationProcessor = (*EventManager)(nil)
)

// Publisher is the part of *nats.Conn the event manager needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

func NotificationSubject(sessionID string) string {
	if sessionID == "" {
		sessionID = "anonymous"
	}
	return NotificationSubjectPrefix + "." + sessionID
}

// EventManager forwards notifications to NATS through a worker pool, so a
// store mutation never waits on the network.
type EventManager struct {
	publisher  Publisher
	workerPool *WorkerPool
	logger     *zap.Logger
}

func NewEventManager(publisher Publisher, workers int, logger *zap.Logger) *EventManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	em := &EventManager{
		publisher: publisher,
		logger:    logger,
	}
	em.workerPool = NewWorkerPool(workers, em, logger)
	return em
}

func (em *EventManager) Notify(ctx context.Context, n *models.Notification) {
	cp := *n
	em.workerPool.Submit(context.WithoutCancel(ctx), &cp)
}

func (em *EventManager) ProcessNotification(_ context.Context, n *models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	subject := NotificationSubject(n.SessionID)
	if err := em.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	em.logger.Debug("Notification published",
		zap.String("subject", subject),
		zap.String("notification_id", n.ID))
	return nil
}

// Shutdown drains pending notifications.
func (em *EventManager) Shutdown() {
	em.workerPool.Shutdown()
}
