package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Snapshot stores one collection as a single JSON blob, keyed by collection
// name. This mirrors the per-collection snapshot persistence the stores
// expect: writes replace the whole blob, reads hand it back verbatim.
type Snapshot struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

// SnapshotRepository persists collection snapshots.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Get returns the stored blob for key. A missing key is not an error; the
// second return value reports presence.
func (r *SnapshotRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var snap Snapshot
	err := r.db.WithContext(ctx).First(&snap, "key = ?", key).Error
	switch {
	case err == nil:
		return snap.Value, true, nil
	case err == gorm.ErrRecordNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("load snapshot %q: %w", key, err)
	}
}

// Put replaces the blob stored under key.
func (r *SnapshotRepository) Put(ctx context.Context, key string, value []byte) error {
	db := r.db.WithContext(ctx)
	var snap Snapshot
	err := db.First(&snap, "key = ?", key).Error
	switch {
	case err == nil:
		snap.Value = value
		if err := db.Save(&snap).Error; err != nil {
			return fmt.Errorf("update snapshot %q: %w", key, err)
		}
		return nil
	case err == gorm.ErrRecordNotFound:
		snap = Snapshot{Key: key, Value: value}
		if err := db.Create(&snap).Error; err != nil {
			return fmt.Errorf("create snapshot %q: %w", key, err)
		}
		return nil
	default:
		return fmt.Errorf("find snapshot %q: %w", key, err)
	}
}

// Delete removes the blob stored under key, if any.
func (r *SnapshotRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&Snapshot{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}
