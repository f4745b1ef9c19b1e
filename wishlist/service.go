package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/notify"
)

var _ Service = (*service)(nil)

type Service interface {
	Contains(productSlug string) bool
	Add(ctx context.Context, productSlug, name string)
	Remove(ctx context.Context, productSlug, name string)
	// Toggle removes productSlug when present and adds it otherwise. It
	// reports whether the product is in the wishlist afterwards.
	Toggle(ctx context.Context, productSlug, name string) bool
	Clear(ctx context.Context)
	Count() int
	// Prune deletes the stored snapshot when the wishlist is empty and
	// reports whether it did.
	Prune(ctx context.Context) bool

	Snapshot() models.Wishlist
	Subscribe(fn func(models.Wishlist)) (unsubscribe func())
	Close()
}

type Option func(*service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	mu       sync.Mutex
	entries  models.Wishlist
	closed   bool
	repo     Repository
	hub      *notify.Hub[models.Wishlist]
	notifier notify.Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewService hydrates the wishlist from repo before returning.
func NewService(ctx context.Context, repo Repository, opts ...Option) Service {
	s := &service{
		repo:     repo,
		hub:      notify.NewHub[models.Wishlist](),
		notifier: notify.Nop,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = repo.Load(ctx)
	return s
}

func (s *service) Contains(productSlug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Contains(productSlug)
}

func (s *service) Add(ctx context.Context, productSlug, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(ctx, productSlug, name)
}

func (s *service) addLocked(ctx context.Context, productSlug, name string) {
	if productSlug == "" || s.entries.Contains(productSlug) {
		return
	}
	s.entries = append(s.entries, models.WishlistEntry{
		ProductSlug: productSlug,
		AddedAt:     s.now().UnixMilli(),
	})
	s.commit(ctx)

	var desc string
	if name != "" {
		desc = fmt.Sprintf("%s guardado en tus favoritos", name)
	}
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindWishlistAdded, enum.NotificationLevelSuccess,
		"Añadido a favoritos", desc))
}

func (s *service) Remove(ctx context.Context, productSlug, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, productSlug, name)
}

// removeLocked notifies even when nothing was removed; only a real change
// is published and written.
func (s *service) removeLocked(ctx context.Context, productSlug, name string) {
	if idx := s.entries.Index(productSlug); idx >= 0 {
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		s.commit(ctx)
	}

	var desc string
	if name != "" {
		desc = fmt.Sprintf("%s eliminado de favoritos", name)
	}
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindWishlistRemoved, enum.NotificationLevelInfo,
		"Eliminado de favoritos", desc))
}

func (s *service) Toggle(ctx context.Context, productSlug, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries.Contains(productSlug) {
		s.removeLocked(ctx, productSlug, name)
		return false
	}
	s.addLocked(ctx, productSlug, name)
	return s.entries.Contains(productSlug)
}

func (s *service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = models.Wishlist{}
	s.commit(ctx)
	s.notifier.Notify(ctx, notify.New(enum.NotificationKindWishlistCleared, enum.NotificationLevelSuccess,
		"Favoritos eliminados", ""))
}

func (s *service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *service) Prune(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) > 0 {
		return false
	}
	return s.repo.Delete(ctx)
}

func (s *service) Snapshot() models.Wishlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Clone()
}

func (s *service) Subscribe(fn func(models.Wishlist)) func() {
	return s.hub.Subscribe(fn)
}

func (s *service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Clear()
}

// commit publishes and persists. Caller holds s.mu.
func (s *service) commit(ctx context.Context) {
	if !s.closed {
		s.hub.Publish(s.entries.Clone())
	}
	s.repo.Save(ctx, s.entries)
	s.logger.Debug("Wishlist changed", zap.Int("count", len(s.entries)))
}
