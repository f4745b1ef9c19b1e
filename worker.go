package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

const defaultQueueSize = 1000

type NotificationProcessor interface {
	ProcessNotification(ctx context.Context, n *models.Notification) error
}

type WorkerPool struct {
	mu        sync.RWMutex
	closed    bool
	tasks     chan func()
	wg        sync.WaitGroup
	logger    *zap.Logger
	processor NotificationProcessor
}

func NewWorkerPool(size int, processor NotificationProcessor, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	wp := &WorkerPool{
		tasks:     make(chan func(), defaultQueueSize),
		logger:    logger,
		processor: processor,
	}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues n for processing. It never blocks: when the queue is full
// or the pool is shut down the notification is dropped and false returned.
func (wp *WorkerPool) Submit(ctx context.Context, n *models.Notification) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.logger.Warn("Dropping notification after shutdown", zap.String("notification_id", n.ID))
		return false
	}

	task := func() {
		if err := wp.processor.ProcessNotification(ctx, n); err != nil {
			wp.logger.Error("Failed to process notification",
				zap.Error(err),
				zap.String("kind", string(n.Kind)),
				zap.String("notification_id", n.ID))
		}
	}

	select {
	case wp.tasks <- task:
		return true
	default:
		wp.logger.Warn("Notification queue full, dropping notification",
			zap.String("kind", string(n.Kind)),
			zap.String("notification_id", n.ID))
		return false
	}
}

// Shutdown stops accepting work and waits for queued tasks to finish.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
}
