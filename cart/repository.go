package cart

import (
	"context"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/storage"
)

// StorageKey is the default key the cart snapshot is stored under.
const StorageKey = "cafe-aurora-cart"

var _ Repository = (*repository)(nil)

type Repository interface {
	// Load hydrates the cart. It never fails: a missing or unreadable
	// snapshot yields an empty cart.
	Load(ctx context.Context) *models.Cart

	// Save overwrites the stored snapshot. It is a no-op until Load ran.
	Save(ctx context.Context, cart *models.Cart)

	// Delete removes the stored snapshot and reports whether it succeeded.
	Delete(ctx context.Context) bool
}

type repository struct {
	snapshot *storage.Snapshot[models.Cart]
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
		snapshot: storage.NewSnapshot(store, key, func() models.Cart { return *models.NewCart() }, logger),
		logger:   logger,
	}
}

func (r *repository) Load(ctx context.Context) *models.Cart {
	cart, found := r.snapshot.Hydrate(ctx)
	if !found {
		return &cart
	}

	// Totals are derived; never trust the stored ones. Lines sharing an id
	// are merged into the first one.
	items := make([]models.CartLine, 0, len(cart.Items))
	seen := make(map[string]int, len(cart.Items))
	for _, line := range cart.Items {
		if line.Quantity < 1 {
			r.logger.Warn("Dropping stored cart line with invalid quantity",
				zap.String("line_id", line.ID), zap.Int("quantity", line.Quantity))
			continue
		}
		line.ID = models.LineID(line.ProductSlug, line.Size)
		if idx, dup := seen[line.ID]; dup {
			r.logger.Warn("Merging duplicate stored cart line", zap.String("line_id", line.ID))
			items[idx].Quantity += line.Quantity
			continue
		}
		seen[line.ID] = len(items)
		items = append(items, line)
	}
	cart.Items = items
	cart.Recalculate()

	r.logger.Debug("Hydrated cart", zap.Int("lines", len(cart.Items)), zap.Int("total_items", cart.TotalItems))
	return &cart
}

func (r *repository) Save(ctx context.Context, cart *models.Cart) {
	r.snapshot.Save(ctx, *cart)
}

func (r *repository) Delete(ctx context.Context) bool {
	return r.snapshot.Delete(ctx)
}
