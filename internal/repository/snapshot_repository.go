package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"RegimeWatch/internal/domain/models"
	drepo "RegimeWatch/internal/domain/repository"
	"RegimeWatch/internal/service/cache"
)

// ErrSnapshotNotFound is returned before the first snapshot is saved or after it expired.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores the latest snapshot as JSON in a BytesCache.
type SnapshotRepository struct {
	cache cache.BytesCache
	key   string
	ttl   time.Duration
}

func NewSnapshotRepository(c cache.BytesCache, prefix, symbol string, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		cache: c,
		key:   SnapshotKey(prefix, symbol),
		ttl:   ttl,
	}
}

// SnapshotKey is "<prefix>:<symbol>:latest", symbol upper-cased.
func SnapshotKey(prefix, symbol string) string {
	return fmt.Sprintf("%s:%s:latest", prefix, strings.ToUpper(symbol))
}

func (r *SnapshotRepository) Save(ctx context.Context, snap models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.cache.SetBytes(ctx, r.key, b, r.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context) (models.Snapshot, error) {
	b, ok, err := r.cache.GetBytes(ctx, r.key)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return models.Snapshot{}, ErrSnapshotNotFound
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (r *SnapshotRepository) Close() error { return r.cache.Close() }

var _ drepo.SnapshotStore = (*SnapshotRepository)(nil)
