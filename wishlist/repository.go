package wishlist

import (
	"context"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/storage"
)

// StorageKey is the default key the wishlist snapshot is stored under.
const StorageKey = "cafe-aurora-wishlist"

var _ Repository = (*repository)(nil)

type Repository interface {
	// Load hydrates the wishlist, falling back to an empty one.
	Load(ctx context.Context) models.Wishlist
	Save(ctx context.Context, wishlist models.Wishlist)
	// Delete removes the stored snapshot and reports whether it succeeded.
	Delete(ctx context.Context) bool
}

type repository struct {
	snapshot *storage.Snapshot[models.Wishlist]
	logger   *zap.Logger
}

func NewRepository(store storage.Storage, key string, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = StorageKey
	}
	return &repository{
		snapshot: storage.NewSnapshot(store, key, func() models.Wishlist { return models.Wishlist{} }, logger),
		logger:   logger,
	}
}

func (r *repository) Load(ctx context.Context) models.Wishlist {
	stored, found := r.snapshot.Hydrate(ctx)
	if !found {
		return models.Wishlist{}
	}

	// First occurrence wins so the original addedAt survives.
	out := make(models.Wishlist, 0, len(stored))
	for _, entry := range stored {
		if entry.ProductSlug == "" || out.Contains(entry.ProductSlug) {
			r.logger.Warn("Dropping stored wishlist entry", zap.String("product_slug", entry.ProductSlug))
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (r *repository) Save(ctx context.Context, wishlist models.Wishlist) {
	r.snapshot.Save(ctx, wishlist)
}

func (r *repository) Delete(ctx context.Context) bool {
	return r.snapshot.Delete(ctx)
}
