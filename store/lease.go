package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"streamlit-analytics/models"
)

// ErrLeaseHeld is returned when another process owns the writer lease.
var ErrLeaseHeld = errors.New("database is owned by another writer")

// AcquireLease takes or renews the writer lease for owner. Every Save
// replaces the whole snapshot, so two processes saving into one database
// would overwrite each other's counts.
func (r *Repository) AcquireLease(ctx context.Context, owner string, ttl time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var lease models.WriterLease
		err := tx.First(&lease, models.WriterLeaseID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			lease = models.WriterLease{ID: models.WriterLeaseID, Owner: owner, ExpiresAt: now.Add(ttl)}
			if err := tx.Create(&lease).Error; err != nil {
				return fmt.Errorf("create lease: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("load lease: %w", err)
		}

		if lease.Owner != owner && lease.ExpiresAt.After(now) {
			return fmt.Errorf("%w: %s until %s", ErrLeaseHeld, lease.Owner, lease.ExpiresAt.Format(time.RFC3339))
		}
		err = tx.Model(&lease).Updates(map[string]any{"owner": owner, "expires_at": now.Add(ttl)}).Error
		if err != nil {
			return fmt.Errorf("renew lease: %w", err)
		}
		return nil
	})
}

// ReleaseLease gives the lease up if owner still holds it.
func (r *Repository) ReleaseLease(ctx context.Context, owner string) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner = ?", models.WriterLeaseID, owner).
		Delete(&models.WriterLease{}).Error
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

// LeaseTTL outlives a few save intervals so a slow save does not lose the
// lease.
func LeaseTTL(saveEvery time.Duration) time.Duration {
	if ttl := 3 * saveEvery; ttl > time.Minute {
		return ttl
	}
	return time.Minute
}
