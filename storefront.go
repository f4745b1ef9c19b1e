// Package storefront scopes one visitor's cart and wishlist. A Storefront is
// created (and hydrated) by a Manager, injected into request contexts with
// WithContext and read back with FromContext.
package storefront

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/storage"
	"gofalre.io/storefront/wishlist"
)

type Options struct {
	Storage storage.Storage

	// Prefix, CartKey and WishlistKey build the storage keys
	// "<Prefix>:<session>:<CartKey>". Empty keys use the package defaults.
	Prefix      string
	CartKey     string
	WishlistKey string

	// Notifier receives every notification in addition to the scope's own
	// broadcast. Optional.
	Notifier notify.Notifier

	// MergeCeiling caps AddLine at cart.MaxQuantity.
	MergeCeiling bool

	// IdleTTL is read by Manager only. Zero keeps scopes until Close.
	IdleTTL time.Duration

	Logger *zap.Logger
}

type Storefront struct {
	sessionID     string
	cart          cart.Service
	wishlist      wishlist.Service
	notifications *notify.Broadcast
	logger        *zap.Logger
}

// New builds the scope for sessionID and hydrates both stores.
func New(ctx context.Context, sessionID string, opts Options) *Storefront {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", sessionID))

	cartKey := opts.CartKey
	if cartKey == "" {
		cartKey = cart.StorageKey
	}
	wishlistKey := opts.WishlistKey
	if wishlistKey == "" {
		wishlistKey = wishlist.StorageKey
	}

	broadcast := notify.NewBroadcast()
	notifier := notify.WithSession(notify.Multi(broadcast, opts.Notifier), sessionID)

	cartOpts := []cart.Option{cart.WithNotifier(notifier), cart.WithLogger(logger)}
	if opts.MergeCeiling {
		cartOpts = append(cartOpts, cart.WithMergeCeiling())
	}

	s := &Storefront{
		sessionID: sessionID,
		cart: cart.NewService(ctx,
			cart.NewRepository(opts.Storage, storage.Key(opts.Prefix, sessionID, cartKey), logger),
			cartOpts...),
		wishlist: wishlist.NewService(ctx,
			wishlist.NewRepository(opts.Storage, storage.Key(opts.Prefix, sessionID, wishlistKey), logger),
			wishlist.WithNotifier(notifier), wishlist.WithLogger(logger)),
		notifications: broadcast,
		logger:        logger,
	}

	logger.Debug("Storefront hydrated")
	return s
}

func (s *Storefront) SessionID() string {
	return s.sessionID
}

func (s *Storefront) Cart() cart.Service {
	return s.cart
}

func (s *Storefront) Wishlist() wishlist.Service {
	return s.wishlist
}

// Notifications streams every notification the scope's stores emit.
func (s *Storefront) Notifications() *notify.Broadcast {
	return s.notifications
}

// Watched reports whether a notification subscriber, such as an open
// websocket, is attached.
func (s *Storefront) Watched() bool {
	return s.notifications.Len() > 0
}

// Prune deletes the stored snapshots of empty stores.
func (s *Storefront) Prune(ctx context.Context) {
	cartPruned := s.cart.Prune(ctx)
	wishlistPruned := s.wishlist.Prune(ctx)
	if cartPruned || wishlistPruned {
		s.logger.Debug("Pruned empty snapshots",
			zap.Bool("cart", cartPruned), zap.Bool("wishlist", wishlistPruned))
	}
}

// Close releases every subscriber. Stored snapshots are kept.
func (s *Storefront) Close() {
	s.cart.Close()
	s.wishlist.Close()
	s.notifications.Clear()
	s.logger.Debug("Storefront closed")
}

type contextKey struct{}

func WithContext(ctx context.Context, s *Storefront) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the scope stored by WithContext. A missing scope is a
// wiring bug and panics.
func FromContext(ctx context.Context) *Storefront {
	s, ok := Lookup(ctx)
	if !ok {
		panic("storefront: no storefront in context")
	}
	return s
}

func Lookup(ctx context.Context) (*Storefront, bool) {
	s, ok := ctx.Value(contextKey{}).(*Storefront)
	return s, ok && s != nil
}
