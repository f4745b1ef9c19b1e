package notify

import (
	"context"
	"slices"
	"sync"

	"gofalre.io/storefront/models"
)

// Hub is a set of subscriber callbacks for values of type T.
type Hub[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(T)
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns the function that removes it. Calling
// the returned function more than once is harmless.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish calls every subscriber with v, in subscription order.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Clear drops every subscriber.
func (h *Hub[T]) Clear() {
	h.mu.Lock()
	h.subs = make(map[uint64]func(T))
	h.mu.Unlock()
}

// Broadcast is a Notifier that republishes notifications to hub subscribers.
type Broadcast struct {
	*Hub[models.Notification]
}

func NewBroadcast() *Broadcast {
	return &Broadcast{Hub: NewHub[models.Notification]()}
}

func (b *Broadcast) Notify(_ context.Context, n *models.Notification) {
	b.Publish(*n)
}
