package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"location-service/internal/domain"
	"location-service/internal/geo"
)

// NearbyCandidate pairs a current location with its exact distance from the
// query point. Visibility filtering happens in the service layer, not here.
type NearbyCandidate struct {
	Location       domain.CurrentLocation
	DistanceMeters float64
}

// LocationRepository defines data access for current locations and history
type LocationRepository interface {
	SaveCurrent(ctx context.Context, loc *domain.CurrentLocation) error
	GetCurrent(ctx context.Context, userID uuid.UUID) (*domain.CurrentLocation, error)
	GetHistory(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit, offset int) ([]domain.LocationHistory, error)
	CountHistorySince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, excludeUserID uuid.UUID) ([]NearbyCandidate, error)
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

type locationRepositoryImpl struct {
	db *gorm.DB
}

// NewLocationRepository creates a new instance of LocationRepository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepositoryImpl{db: db}
}

// SaveCurrent overwrites the user's current location and appends a history row
// in one transaction. An update whose RecordedAt is not strictly newer than the
// stored row is rejected with domain.ErrStalePosition and leaves no trace.
func (r *locationRepositoryImpl) SaveCurrent(ctx context.Context, loc *domain.CurrentLocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.CurrentLocation
		err := tx.Where("user_id = ?", loc.UserID).First(&existing).Error

		switch {
		case err == nil:
			if !existing.RecordedAt.Before(loc.RecordedAt) {
				return domain.ErrStalePosition
			}
			// Conditional write guards the staleness race at the row level.
			res := tx.Model(&domain.CurrentLocation{}).
				Where("user_id = ? AND recorded_at < ?", loc.UserID, loc.RecordedAt).
				Updates(map[string]interface{}{
					"latitude":    loc.Latitude,
					"longitude":   loc.Longitude,
					"accuracy":    loc.Accuracy,
					"altitude":    loc.Altitude,
					"speed":       loc.Speed,
					"heading":     loc.Heading,
					"recorded_at": loc.RecordedAt,
					"updated_at":  time.Now().UTC(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrStalePosition
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			loc.UpdatedAt = time.Now().UTC()
			if err := tx.Create(loc).Error; err != nil {
				return err
			}
		default:
			return err
		}

		history := domain.LocationHistory{
			ID:         uuid.New(),
			UserID:     loc.UserID,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Accuracy:   loc.Accuracy,
			Altitude:   loc.Altitude,
			Speed:      loc.Speed,
			Heading:    loc.Heading,
			RecordedAt: loc.RecordedAt,
			CreatedAt:  time.Now().UTC(),
		}
		return tx.Create(&history).Error
	})
}

// GetCurrent returns the user's current location
func (r *locationRepositoryImpl) GetCurrent(ctx context.Context, userID uuid.UUID) (*domain.CurrentLocation, error) {
	var loc domain.CurrentLocation
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// GetHistory returns position history newest first, bounded by limit/offset
func (r *locationRepositoryImpl) GetHistory(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit, offset int) ([]domain.LocationHistory, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("recorded_at <= ?", *to)
	}

	var history []domain.LocationHistory
	err := query.
		Order("recorded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&history).Error
	return history, err
}

// CountHistorySince counts history rows recorded at or after the given instant
func (r *locationRepositoryImpl) CountHistorySince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LocationHistory{}).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// FindNearby scans current locations inside a bounding box around the query
// point, then filters by exact haversine distance. The box prefilter keeps the
// scan cheap; correctness comes from the exact check.
func (r *locationRepositoryImpl) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, excludeUserID uuid.UUID) ([]NearbyCandidate, error) {
	// ~111km per degree of latitude; longitude degrees shrink with cos(lat).
	latDelta := radiusMeters / 111000
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDelta := radiusMeters / (111000 * cosLat)

	var candidates []domain.CurrentLocation
	err := r.db.WithContext(ctx).
		Where("user_id != ?", excludeUserID).
		Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("longitude BETWEEN ? AND ?", lon-lonDelta, lon+lonDelta).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	results := make([]NearbyCandidate, 0, len(candidates))
	for _, c := range candidates {
		distance, err := geo.DistanceMeters(lat, lon, c.Latitude, c.Longitude)
		if err != nil {
			continue
		}
		if distance <= radiusMeters {
			results = append(results, NearbyCandidate{Location: c, DistanceMeters: distance})
		}
	}
	return results, nil
}

// DeleteHistoryBefore removes one batch of history rows older than the cutoff.
// Current locations are never touched, even when their underlying position
// would otherwise be past the horizon.
func (r *locationRepositoryImpl) DeleteHistoryBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.LocationHistory{}).
		Where("recorded_at < ?", cutoff).
		Limit(batchSize).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.LocationHistory{})
	return res.RowsAffected, res.Error
}
