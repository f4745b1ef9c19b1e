package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/storage"
)

func albaLine(quantity int) Line {
	return Line{
		ProductSlug: "aurora-alba",
		Name:        "Aurora Alba",
		Image:       "/products/aurora-alba.png",
		Size:        "250g",
		Price:       14,
		Quantity:    quantity,
		Origin:      "Etiopía",
	}
}

func newTestService(t *testing.T, opts ...Option) (Service, *storage.Memory, *notify.Recorder) {
	t.Helper()
	mem := storage.NewMemory()
	rec := &notify.Recorder{}
	opts = append([]Option{WithNotifier(rec)}, opts...)
	svc := NewService(context.Background(), NewRepository(mem, StorageKey, nil), opts...)
	t.Cleanup(svc.Close)
	return svc, mem, rec
}

func TestService_AddMergeRemoveScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)

	require.NoError(t, svc.AddLine(ctx, albaLine(1)))
	snap := svc.Snapshot()
	assert.Equal(t, 1, snap.TotalItems)
	assert.InDelta(t, 14.00, snap.Subtotal, 1e-9)

	require.NoError(t, svc.AddLine(ctx, albaLine(2)))
	snap = svc.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.TotalItems)
	assert.InDelta(t, 42.00, snap.Subtotal, 1e-9)

	svc.RemoveLine(ctx, "aurora-alba-250g")
	snap = svc.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
	assert.InDelta(t, 0.00, snap.Subtotal, 1e-9)

	all := rec.All()
	require.Len(t, all, 3)
	assert.Equal(t, enum.NotificationKindCartItemAdded, all[0].Kind)
	assert.Equal(t, "Aurora Alba (250g) x1", all[0].Description)
	assert.Equal(t, enum.NotificationKindCartQuantityUpdated, all[1].Kind)
	assert.Equal(t, "Aurora Alba (250g) - Cantidad: 3", all[1].Description)
	assert.Equal(t, enum.NotificationKindCartItemRemoved, all[2].Kind)
	assert.Equal(t, enum.NotificationLevelInfo, all[2].Level)
}

func TestService_TotalsFollowLines(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.AddLine(ctx, albaLine(2)))
	require.NoError(t, svc.AddLine(ctx, Line{ProductSlug: "bruma", Name: "Bruma", Size: "1kg", Price: 42, Quantity: 1}))
	require.NoError(t, svc.AddLine(ctx, Line{ProductSlug: "medianoche", Name: "Medianoche", Size: "250g", Price: 0.1, Quantity: 3}))

	snap := svc.Snapshot()
	assert.Equal(t, 6, snap.TotalItems)
	assert.Equal(t, 70.3, snap.Subtotal)
	assert.Equal(t, []string{"aurora-alba-250g", "bruma-1kg", "medianoche-250g"},
		[]string{snap.Items[0].ID, snap.Items[1].ID, snap.Items[2].ID})

	require.NoError(t, svc.SetQuantity(ctx, "bruma-1kg", 4))
	snap = svc.Snapshot()
	assert.Equal(t, 9, snap.TotalItems)
	assert.Equal(t, 196.3, snap.Subtotal)

	svc.Clear(ctx)
	snap = svc.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, 0.0, snap.Subtotal)
}

func TestService_SetQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		quantity  int
		wantErr   error
		wantLines int
		wantQty   int
		wantKind  enum.NotificationKind
	}{
		{name: "zero removes", quantity: 0, wantLines: 0, wantKind: enum.NotificationKindCartItemRemoved},
		{name: "negative removes", quantity: -3, wantLines: 0, wantKind: enum.NotificationKindCartItemRemoved},
		{name: "lower bound", quantity: 1, wantLines: 1, wantQty: 1, wantKind: enum.NotificationKindCartItemAdded},
		{name: "upper bound", quantity: 10, wantLines: 1, wantQty: 10, wantKind: enum.NotificationKindCartItemAdded},
		{name: "above ceiling rejected", quantity: 11, wantErr: ErrQuantityLimit, wantLines: 1, wantQty: 2, wantKind: enum.NotificationKindCartQuantityLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, rec := newTestService(t)
			require.NoError(t, svc.AddLine(ctx, albaLine(2)))

			err := svc.SetQuantity(ctx, "aurora-alba-250g", tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			snap := svc.Snapshot()
			require.Len(t, snap.Items, tt.wantLines)
			if tt.wantLines > 0 {
				assert.Equal(t, tt.wantQty, snap.Items[0].Quantity)
				assert.Equal(t, tt.wantQty, snap.TotalItems)
			}

			last, ok := rec.Last()
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, last.Kind)
		})
	}
}

func TestService_QuantityLimitNotification(t *testing.T) {
	svc, _, rec := newTestService(t)
	require.NoError(t, svc.AddLine(context.Background(), albaLine(1)))

	err := svc.SetQuantity(context.Background(), "aurora-alba-250g", 11)
	require.ErrorIs(t, err, ErrQuantityLimit)

	last, _ := rec.Last()
	assert.Equal(t, enum.NotificationLevelError, last.Level)
	assert.Equal(t, "Cantidad máxima excedida", last.Title)
	assert.Equal(t, "Máximo 10 unidades por producto", last.Description)
}

func TestService_AddLineMergesToSum(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t)

	require.NoError(t, svc.AddLine(ctx, albaLine(1)))
	require.NoError(t, svc.AddLine(ctx, albaLine(10)))

	snap := svc.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 11, snap.TotalItems)
	assert.InDelta(t, 154.00, snap.Subtotal, 1e-9)

	last, _ := rec.Last()
	assert.Equal(t, enum.NotificationKindCartQuantityUpdated, last.Kind)
	assert.Equal(t, "Aurora Alba (250g) - Cantidad: 11", last.Description)

	require.NoError(t, svc.AddLine(ctx, Line{ProductSlug: "bruma", Name: "Bruma", Size: "1kg", Price: 42, Quantity: 12}))
	assert.Equal(t, 23, svc.Snapshot().TotalItems)

	assert.ErrorIs(t, svc.SetQuantity(ctx, "aurora-alba-250g", 11), ErrQuantityLimit)
	assert.Equal(t, 23, svc.Snapshot().TotalItems)
}

func TestService_AddLineWithMergeCeiling(t *testing.T) {
	ctx := context.Background()

	t.Run("merge above ceiling rejected", func(t *testing.T) {
		svc, _, rec := newTestService(t, WithMergeCeiling())
		require.NoError(t, svc.AddLine(ctx, albaLine(8)))

		err := svc.AddLine(ctx, albaLine(3))
		assert.ErrorIs(t, err, ErrQuantityLimit)
		assert.Equal(t, 8, svc.Snapshot().TotalItems)

		last, _ := rec.Last()
		assert.Equal(t, enum.NotificationKindCartQuantityLimit, last.Kind)
	})

	t.Run("new line above ceiling rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t, WithMergeCeiling())
		assert.ErrorIs(t, svc.AddLine(ctx, albaLine(11)), ErrQuantityLimit)
		assert.Empty(t, svc.Snapshot().Items)
	})

	t.Run("merge up to ceiling allowed", func(t *testing.T) {
		svc, _, _ := newTestService(t, WithMergeCeiling())
		require.NoError(t, svc.AddLine(ctx, albaLine(4)))
		require.NoError(t, svc.AddLine(ctx, albaLine(6)))
		assert.Equal(t, 10, svc.Snapshot().TotalItems)
	})

	t.Run("stored lines above ceiling are clamped", func(t *testing.T) {
		mem := storage.NewMemory()
		raw, err := json.Marshal(models.Cart{Items: []models.CartLine{
			{ID: "aurora-alba-250g", ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 15},
		}})
		require.NoError(t, err)
		require.NoError(t, mem.Set(ctx, StorageKey, raw))

		svc := NewService(ctx, NewRepository(mem, StorageKey, nil), WithMergeCeiling())
		defer svc.Close()

		snap := svc.Snapshot()
		assert.Equal(t, 10, snap.Items[0].Quantity)
		assert.Equal(t, 10, snap.TotalItems)
		assert.InDelta(t, 140.00, snap.Subtotal, 1e-9)
	})
}

func TestService_AddLineValidation(t *testing.T) {
	ctx := context.Background()
	svc, mem, rec := newTestService(t)

	bad := []Line{
		{Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 1},
		{ProductSlug: "aurora-alba", Name: "Aurora Alba", Price: 14, Quantity: 1},
		{ProductSlug: "aurora-alba", Size: "250g", Price: 14, Quantity: 1},
		{ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: -1, Quantity: 1},
		{ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 0},
	}
	for _, line := range bad {
		err := svc.AddLine(ctx, line)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	}

	assert.Empty(t, svc.Snapshot().Items)
	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, 0, mem.Len())
}

func TestService_RemoveAbsentIsSilent(t *testing.T) {
	svc, mem, rec := newTestService(t)

	svc.RemoveLine(context.Background(), "missing-250g")
	require.NoError(t, svc.SetQuantity(context.Background(), "missing-250g", 0))
	require.NoError(t, svc.SetQuantity(context.Background(), "missing-250g", 5))

	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, 0, mem.Len())
}

func TestService_Contains(t *testing.T) {
	svc, _, rec := newTestService(t)
	require.NoError(t, svc.AddLine(context.Background(), albaLine(1)))
	rec.Reset()

	assert.True(t, svc.Contains("aurora-alba", "250g"))
	assert.False(t, svc.Contains("aurora-alba", "1kg"))
	assert.False(t, svc.Contains("bruma", "250g"))
	assert.Equal(t, 0, rec.Len())
}

func TestService_PersistsSnapshotLayout(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)
	require.NoError(t, svc.AddLine(ctx, albaLine(2)))

	raw, err := mem.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"items": [{
			"id": "aurora-alba-250g",
			"productSlug": "aurora-alba",
			"name": "Aurora Alba",
			"image": "/products/aurora-alba.png",
			"size": "250g",
			"price": 14,
			"quantity": 2,
			"origin": "Etiopía"
		}],
		"totalItems": 2,
		"subtotal": 28
	}`, string(raw))

	restored := NewService(ctx, NewRepository(mem, StorageKey, nil))
	defer restored.Close()
	assert.Equal(t, svc.Snapshot(), restored.Snapshot())
}

func TestRepository_HydrationRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	stored := models.Cart{
		Items: []models.CartLine{
			{ID: "aurora-alba-250g", ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 2},
			{ID: "bruma-1kg", ProductSlug: "bruma", Name: "Bruma", Size: "1kg", Price: 42, Quantity: 0},
			{ProductSlug: "medianoche", Name: "Medianoche", Size: "1kg", Price: 38, Quantity: 1},
		},
		TotalItems: 99,
		Subtotal:   1,
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, StorageKey, raw))

	cart := NewRepository(mem, "", nil).Load(ctx)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "medianoche-1kg", cart.Items[1].ID)
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, 66.0, cart.Subtotal)
}

func TestRepository_HydrationMergesDuplicateLines(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	raw, err := json.Marshal(models.Cart{Items: []models.CartLine{
		{ID: "aurora-alba-250g", ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 15},
		{ID: "bruma-1kg", ProductSlug: "bruma", Name: "Bruma", Size: "1kg", Price: 42, Quantity: 1},
		{ID: "aurora-alba-250g", ProductSlug: "aurora-alba", Name: "Aurora Alba", Size: "250g", Price: 14, Quantity: 2},
	}})
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, StorageKey, raw))

	svc := NewService(ctx, NewRepository(mem, StorageKey, nil))
	defer svc.Close()

	snap := svc.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "aurora-alba-250g", snap.Items[0].ID)
	assert.Equal(t, 17, snap.Items[0].Quantity)
	assert.Equal(t, 18, snap.TotalItems)

	svc.RemoveLine(ctx, "aurora-alba-250g")
	assert.False(t, svc.Contains("aurora-alba", "250g"))
	assert.Equal(t, 1, svc.Snapshot().TotalItems)
}

func TestService_Prune(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newTestService(t)

	require.NoError(t, svc.AddLine(ctx, albaLine(1)))
	assert.False(t, svc.Prune(ctx))
	assert.Equal(t, 1, mem.Len())

	svc.Clear(ctx)
	assert.Equal(t, 1, mem.Len())
	assert.True(t, svc.Prune(ctx))
	assert.Equal(t, 0, mem.Len())
}

func TestRepository_CorruptSnapshotHydratesEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, StorageKey, []byte("{not json")))

	svc := NewService(ctx, NewRepository(mem, StorageKey, nil))
	defer svc.Close()

	snap := svc.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItems)
}

func TestService_SubscribeReceivesSnapshots(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	var seen []int
	unsubscribe := svc.Subscribe(func(c models.Cart) { seen = append(seen, c.TotalItems) })

	require.NoError(t, svc.AddLine(ctx, albaLine(1)))
	require.NoError(t, svc.AddLine(ctx, albaLine(2)))
	unsubscribe()
	svc.Clear(ctx)

	assert.Equal(t, []int{1, 3}, seen)
}

func TestService_SubscriberGetsCopy(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	var got models.Cart
	svc.Subscribe(func(c models.Cart) { got = c })
	require.NoError(t, svc.AddLine(ctx, albaLine(1)))

	got.Items[0].Quantity = 9
	assert.Equal(t, 1, svc.Snapshot().Items[0].Quantity)
}

func TestService_CloseDropsSubscribers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	calls := 0
	svc.Subscribe(func(models.Cart) { calls++ })
	svc.Close()

	require.NoError(t, svc.AddLine(ctx, albaLine(1)))
	assert.Equal(t, 0, calls)
}
