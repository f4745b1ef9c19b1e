package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.msgs))
	copy(out, p.msgs)
	return out
}

func TestNotificationSubject(t *testing.T) {
	assert.Equal(t, "storefront.notifications.abc", NotificationSubject("abc"))
	assert.Equal(t, "storefront.notifications.anonymous", NotificationSubject(""))
}

func TestEventManager_PublishesNotifications(t *testing.T) {
	pub := &fakePublisher{}
	em := NewEventManager(pub, 2, nil)

	n := notify.New(enum.NotificationKindCartCleared, enum.NotificationLevelSuccess, "Carrito vaciado", "")
	n.SessionID = "s1"
	em.Notify(context.Background(), n)
	em.Shutdown()

	msgs := pub.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "storefront.notifications.s1", msgs[0].subject)

	var got models.Notification
	require.NoError(t, json.Unmarshal(msgs[0].data, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, enum.NotificationKindCartCleared, got.Kind)
	assert.Equal(t, "s1", got.SessionID)
}

func TestEventManager_PublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	em := NewEventManager(pub, 1, zap.New(core))

	em.Notify(context.Background(), notify.New(enum.NotificationKindWishlistCleared, enum.NotificationLevelSuccess, "Favoritos eliminados", ""))
	em.Shutdown()

	entries := logs.FilterMessage("Failed to process notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "wishlist.cleared", entries[0].ContextMap()["kind"])
}

func TestEventManager_WiredIntoStorefront(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	em := NewEventManager(pub, 4, nil)

	s := New(ctx, "visitor", Options{Storage: storage.NewMemory(), Notifier: em})
	require.NoError(t, s.Cart().AddLine(ctx, cart.Line{ProductSlug: "medianoche", Name: "Medianoche", Size: "250g", Price: 12, Quantity: 1}))
	s.Wishlist().Toggle(ctx, "medianoche", "Medianoche")
	s.Close()
	em.Shutdown()

	msgs := pub.all()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "storefront.notifications.visitor", m.subject)
	}
}

type countingProcessor struct {
	mu    sync.Mutex
	seen  int
	delay time.Duration
}

func (p *countingProcessor) ProcessNotification(context.Context, *models.Notification) error {
	time.Sleep(p.delay)
	p.mu.Lock()
	p.seen++
	p.mu.Unlock()
	return nil
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	proc := &countingProcessor{delay: time.Millisecond}
	wp := NewWorkerPool(3, proc, nil)

	for i := 0; i < 20; i++ {
		assert.True(t, wp.Submit(context.Background(), notify.New(enum.NotificationKindCartCleared, enum.NotificationLevelSuccess, "x", "")))
	}
	wp.Shutdown()

	assert.Equal(t, 20, proc.seen)
}

func TestWorkerPool_IdleShutdownReturns(t *testing.T) {
	wp := NewWorkerPool(4, &countingProcessor{}, nil)

	done := make(chan struct{})
	go func() {
		wp.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown of an idle pool did not return")
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	proc := &countingProcessor{}
	wp := NewWorkerPool(1, proc, nil)
	wp.Shutdown()
	wp.Shutdown()

	assert.False(t, wp.Submit(context.Background(), notify.New(enum.NotificationKindCartCleared, enum.NotificationLevelSuccess, "x", "")))
	assert.Equal(t, 0, proc.seen)
}
