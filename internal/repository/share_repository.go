package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"location-service/internal/domain"
)

// ShareRepository defines data access for location share grants
type ShareRepository interface {
	Upsert(ctx context.Context, share *domain.LocationShare) (*domain.LocationShare, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.LocationShare, error)
	ListByUser(ctx context.Context, grantorID uuid.UUID) ([]domain.LocationShare, error)
	ListActive(ctx context.Context, grantorID uuid.UUID, now time.Time) ([]domain.LocationShare, error)
	Revoke(ctx context.Context, grantorID uuid.UUID, target *uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsVisible(ctx context.Context, grantorID, viewerID uuid.UUID, now time.Time) (bool, error)
	CountActive(ctx context.Context, grantorID uuid.UUID, now time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

type shareRepositoryImpl struct {
	db *gorm.DB
}

// NewShareRepository creates a new instance of ShareRepository
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepositoryImpl{db: db}
}

func targetScope(query *gorm.DB, target *uuid.UUID) *gorm.DB {
	if target == nil {
		return query.Where("shared_with_id IS NULL")
	}
	return query.Where("shared_with_id = ?", *target)
}

// Upsert creates a grant or replaces the existing grant for the same
// (grantor, target) pair, so at most one active grant exists per pair.
func (r *shareRepositoryImpl) Upsert(ctx context.Context, share *domain.LocationShare) (*domain.LocationShare, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.LocationShare
		query := targetScope(tx.Where("user_id = ?", share.UserID), share.SharedWithID)
		err := query.First(&existing).Error

		switch {
		case err == nil:
			existing.ExpiresAt = share.ExpiresAt
			existing.IsActive = true
			existing.UpdatedAt = time.Now().UTC()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*share = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if share.ID == uuid.Nil {
				share.ID = uuid.New()
			}
			share.IsActive = true
			share.CreatedAt = time.Now().UTC()
			share.UpdatedAt = share.CreatedAt
			return tx.Create(share).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// FindByID returns a grant by ID
func (r *shareRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.LocationShare, error) {
	var share domain.LocationShare
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShareNotFound
		}
		return nil, err
	}
	return &share, nil
}

// ListByUser returns all grants created by the user, newest first
func (r *shareRepositoryImpl) ListByUser(ctx context.Context, grantorID uuid.UUID) ([]domain.LocationShare, error) {
	var shares []domain.LocationShare
	err := r.db.WithContext(ctx).
		Where("user_id = ?", grantorID).
		Order("created_at DESC").
		Find(&shares).Error
	return shares, err
}

// ListActive returns the grantor's active, unexpired grants. Grants past
// expiry are excluded even when their active flag was never flipped.
func (r *shareRepositoryImpl) ListActive(ctx context.Context, grantorID uuid.UUID, now time.Time) ([]domain.LocationShare, error) {
	var shares []domain.LocationShare
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", grantorID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&shares).Error
	return shares, err
}

// Revoke deactivates the grant for the target (nil = public). Returns false
// without error when no matching grant exists.
func (r *shareRepositoryImpl) Revoke(ctx context.Context, grantorID uuid.UUID, target *uuid.UUID) (bool, error) {
	query := targetScope(
		r.db.WithContext(ctx).Model(&domain.LocationShare{}).Where("user_id = ? AND is_active = ?", grantorID, true),
		target,
	)
	res := query.Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a grant row
func (r *shareRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.LocationShare{}).Error
}

// IsVisible reports whether an active, unexpired grant lets the viewer see the
// grantor's location, either directly or via a public grant. Callers handle
// the self-visibility shortcut.
func (r *shareRepositoryImpl) IsVisible(ctx context.Context, grantorID, viewerID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LocationShare{}).
		Where("user_id = ? AND is_active = ?", grantorID, true).
		Where("shared_with_id = ? OR shared_with_id IS NULL", viewerID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count > 0, err
}

// CountActive counts the grantor's active, unexpired grants
func (r *shareRepositoryImpl) CountActive(ctx context.Context, grantorID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LocationShare{}).
		Where("user_id = ? AND is_active = ?", grantorID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count, err
}

// DeleteExpiredBefore removes one batch of grants whose expiry has passed.
// Lazy expiry keeps reads correct without this; the sweep only reclaims rows.
func (r *shareRepositoryImpl) DeleteExpiredBefore(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.LocationShare{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Limit(batchSize).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.LocationShare{})
	return res.RowsAffected, res.Error
}
