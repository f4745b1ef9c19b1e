package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// Snapshot persists a whole value of type T under one key as JSON.
//
// Hydrate must run before Save does anything: a Save issued earlier is
// dropped so an empty default can never overwrite a snapshot that has not
// been read yet. Read and write failures are logged, never returned.
type Snapshot[T any] struct {
	store    Storage
	key      string
	empty    func() T
	logger   *zap.Logger
	hydrated atomic.Bool
}

// NewSnapshot binds key in store. empty builds the default value used when no
// usable snapshot exists.
func NewSnapshot[T any](store Storage, key string, empty func() T, logger *zap.Logger) *Snapshot[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshot[T]{
		store:  store,
		key:    key,
		empty:  empty,
		logger: logger.With(zap.String("key", key)),
	}
}

// Hydrate loads the stored value. found is false when the default was used,
// whether because nothing was stored, storage failed or the data was corrupt.
func (s *Snapshot[T]) Hydrate(ctx context.Context) (value T, found bool) {
	defer s.hydrated.Store(true)

	if s.store == nil {
		return s.empty(), false
	}

	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return s.empty(), false
	}
	if err != nil {
		s.logger.Warn("Failed to read snapshot, starting empty", zap.Error(err))
		return s.empty(), false
	}

	value = s.empty()
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("Failed to parse snapshot, starting empty", zap.Error(err))
		return s.empty(), false
	}
	return value, true
}

// Save writes the full value, overwriting the previous snapshot. It reports
// whether the write went through.
func (s *Snapshot[T]) Save(ctx context.Context, value T) bool {
	if !s.hydrated.Load() {
		s.logger.Debug("Skipping snapshot write before hydration")
		return false
	}
	if s.store == nil {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode snapshot", zap.Error(err))
		return false
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		s.logger.Warn("Failed to persist snapshot", zap.Error(err))
		return false
	}
	return true
}

// Delete removes the stored snapshot. It reports whether the delete went
// through.
func (s *Snapshot[T]) Delete(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Warn("Failed to delete snapshot", zap.Error(err))
		return false
	}
	return true
}
