// Package notify delivers the user-facing messages produced by store
// mutations and provides the subscription hub the stores use to publish
// snapshots.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

// Notifier receives notifications. Implementations must not block for long:
// they are called while a store holds its lock.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n *models.Notification)

func (f Func) Notify(ctx context.Context, n *models.Notification) {
	f(ctx, n)
}

// Nop drops every notification.
var Nop Notifier = Func(func(context.Context, *models.Notification) {})

// New builds a notification stamped with a fresh id and the current time.
func New(kind enum.NotificationKind, level enum.NotificationLevel, title, description string) *models.Notification {
	return &models.Notification{
		ID:          uuid.NewString(),
		Kind:        kind,
		Level:       level,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// Multi fans a notification out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return Func(func(ctx context.Context, n *models.Notification) {
		for _, next := range kept {
			next.Notify(ctx, n)
		}
	})
}

// WithSession stamps notifications with sessionID before passing them on.
func WithSession(next Notifier, sessionID string) Notifier {
	return Func(func(ctx context.Context, n *models.Notification) {
		n.SessionID = sessionID
		next.Notify(ctx, n)
	})
}

// Log writes every notification to logger.
func Log(logger *zap.Logger) Notifier {
	return Func(func(_ context.Context, n *models.Notification) {
		fields := []zap.Field{
			zap.String("notification_id", n.ID),
			zap.String("store", n.Kind.Store()),
			zap.String("kind", string(n.Kind)),
			zap.String("title", n.Title),
		}
		if n.SessionID != "" {
			fields = append(fields, zap.String("session_id", n.SessionID))
		}
		if n.Description != "" {
			fields = append(fields, zap.String("description", n.Description))
		}

		switch n.Level {
		case enum.NotificationLevelError:
			logger.Warn("Notification", fields...)
		default:
			logger.Info("Notification", fields...)
		}
	})
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	seen []models.Notification
}

func (r *Recorder) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	r.seen = append(r.seen, *n)
	r.mu.Unlock()
}

func (r *Recorder) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.seen))
	copy(out, r.seen)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (models.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return models.Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.seen = nil
	r.mu.Unlock()
}
