package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"location-service/internal/domain"
)

// GeofenceRepository defines data access for geofence areas and events
type GeofenceRepository interface {
	Create(ctx context.Context, fence *domain.GeofenceArea) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.GeofenceArea, error)
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.GeofenceArea, error)
	Update(ctx context.Context, fence *domain.GeofenceArea) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	CreateEvent(ctx context.Context, event *domain.GeofenceEvent) error
	ListEvents(ctx context.Context, userID uuid.UUID, fenceID *uuid.UUID, from, to *time.Time, limit int) ([]domain.GeofenceEvent, error)
	CountEventsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

type geofenceRepositoryImpl struct {
	db *gorm.DB
}

// NewGeofenceRepository creates a new instance of GeofenceRepository
func NewGeofenceRepository(db *gorm.DB) GeofenceRepository {
	return &geofenceRepositoryImpl{db: db}
}

// Create persists a new fence
func (r *geofenceRepositoryImpl) Create(ctx context.Context, fence *domain.GeofenceArea) error {
	if fence.ID == uuid.Nil {
		fence.ID = uuid.New()
	}
	now := time.Now().UTC()
	fence.CreatedAt = now
	fence.UpdatedAt = now
	return r.db.WithContext(ctx).Create(fence).Error
}

// FindByID returns a fence by ID
func (r *geofenceRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.GeofenceArea, error) {
	var fence domain.GeofenceArea
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&fence).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &fence, nil
}

// ListByUser returns the user's fences, newest first
func (r *geofenceRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.GeofenceArea, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var fences []domain.GeofenceArea
	err := query.Order("created_at DESC").Find(&fences).Error
	return fences, err
}

// Update saves fence edits
func (r *geofenceRepositoryImpl) Update(ctx context.Context, fence *domain.GeofenceArea) error {
	fence.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(fence).Error
}

// Delete hard-removes a fence. Events keep their geometry snapshot, so no
// dangling references result.
func (r *geofenceRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.GeofenceArea{}).Error
}

// CountByUser counts the user's fences
func (r *geofenceRepositoryImpl) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.GeofenceArea{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CreateEvent appends an immutable crossing event
func (r *geofenceRepositoryImpl) CreateEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEvents returns crossing events newest first, optionally scoped to one
// fence and a time range
func (r *geofenceRepositoryImpl) ListEvents(ctx context.Context, userID uuid.UUID, fenceID *uuid.UUID, from, to *time.Time, limit int) ([]domain.GeofenceEvent, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if fenceID != nil {
		query = query.Where("geofence_id = ?", *fenceID)
	}
	if from != nil {
		query = query.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("occurred_at <= ?", *to)
	}

	var events []domain.GeofenceEvent
	err := query.Order("occurred_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// CountEventsSince counts events that occurred at or after the given instant
func (r *geofenceRepositoryImpl) CountEventsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.GeofenceEvent{}).
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
