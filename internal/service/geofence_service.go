package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"location-service/internal/config"
	"location-service/internal/domain"
	"location-service/internal/geo"
	"location-service/internal/repository"
)

// Crossing pairs a fence with the direction of the boundary transition
type Crossing struct {
	Fence     domain.GeofenceArea
	EventType domain.GeofenceEventType
}

// EvaluateCrossings computes entry/exit transitions for the user's active
// fences between the previous and new position. A nil previous position never
// produces events: the first-ever report gives no prior side of the boundary
// to compare against, even when it lands inside a fence.
func EvaluateCrossings(fences []domain.GeofenceArea, previous, current *domain.CurrentLocation) []Crossing {
	if current == nil {
		return nil
	}

	var crossings []Crossing
	for _, fence := range fences {
		if !fence.IsActive {
			continue
		}

		isInside, err := geo.IsWithin(current.Latitude, current.Longitude, fence.CenterLat, fence.CenterLon, fence.RadiusMeters)
		if err != nil {
			continue
		}

		wasInside := false
		if previous != nil {
			wasInside, err = geo.IsWithin(previous.Latitude, previous.Longitude, fence.CenterLat, fence.CenterLon, fence.RadiusMeters)
			if err != nil {
				continue
			}
		}

		switch {
		case previous == nil:
			// No transition can be inferred.
		case !wasInside && isInside && fence.NotifyOnEntry:
			crossings = append(crossings, Crossing{Fence: fence, EventType: domain.GeofenceEventEntry})
		case wasInside && !isInside && fence.NotifyOnExit:
			crossings = append(crossings, Crossing{Fence: fence, EventType: domain.GeofenceEventExit})
		}
	}
	return crossings
}

// GeofenceService handles fence CRUD and event queries, scoped to the owner.
type GeofenceService struct {
	repo   repository.GeofenceRepository
	cfg    config.LocationConfig
	logger *zap.Logger
}

// NewGeofenceService creates a new GeofenceService
func NewGeofenceService(repo repository.GeofenceRepository, cfg config.LocationConfig, logger *zap.Logger) *GeofenceService {
	return &GeofenceService{repo: repo, cfg: cfg, logger: logger}
}

func (s *GeofenceService) validateGeometry(centerLat, centerLon, radiusMeters float64) error {
	if !geo.ValidLatitude(centerLat) || !geo.ValidLongitude(centerLon) {
		return fmt.Errorf("%w: fence center out of range", domain.ErrInvalidCoordinate)
	}
	if radiusMeters < 1 {
		return fmt.Errorf("%w: radius must be at least 1 meter", domain.ErrInvalidPosition)
	}
	if s.cfg.MaxGeofenceRadiusMeters > 0 && radiusMeters > s.cfg.MaxGeofenceRadiusMeters {
		return fmt.Errorf("%w: radius %.0fm exceeds ceiling %.0fm",
			domain.ErrGeofenceAreaTooLarge, radiusMeters, s.cfg.MaxGeofenceRadiusMeters)
	}
	return nil
}

// Create adds a fence owned by the user
func (s *GeofenceService) Create(ctx context.Context, userID uuid.UUID, req domain.CreateGeofenceRequest) (*domain.GeofenceArea, error) {
	if err := s.validateGeometry(req.CenterLat, req.CenterLon, req.RadiusMeters); err != nil {
		return nil, err
	}

	fence := &domain.GeofenceArea{
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		CenterLat:     req.CenterLat,
		CenterLon:     req.CenterLon,
		RadiusMeters:  req.RadiusMeters,
		NotifyOnEntry: true,
		NotifyOnExit:  true,
		IsActive:      true,
	}
	if req.NotifyOnEntry != nil {
		fence.NotifyOnEntry = *req.NotifyOnEntry
	}
	if req.NotifyOnExit != nil {
		fence.NotifyOnExit = *req.NotifyOnExit
	}

	if err := s.repo.Create(ctx, fence); err != nil {
		return nil, err
	}

	s.logger.Info("geofence created",
		zap.String("user_id", userID.String()),
		zap.String("fence_id", fence.ID.String()),
		zap.Float64("radius_m", fence.RadiusMeters))
	return fence, nil
}

// List returns the user's fences
func (s *GeofenceService) List(ctx context.Context, userID uuid.UUID) ([]domain.GeofenceArea, error) {
	return s.repo.ListByUser(ctx, userID, false)
}

// Update edits a fence; only the owner may edit
func (s *GeofenceService) Update(ctx context.Context, userID, fenceID uuid.UUID, req domain.UpdateGeofenceRequest) (*domain.GeofenceArea, error) {
	fence, err := s.repo.FindByID(ctx, fenceID)
	if err != nil {
		return nil, err
	}
	if fence.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	if req.Name != nil {
		fence.Name = *req.Name
	}
	if req.Description != nil {
		fence.Description = req.Description
	}
	if req.CenterLat != nil {
		fence.CenterLat = *req.CenterLat
	}
	if req.CenterLon != nil {
		fence.CenterLon = *req.CenterLon
	}
	if req.RadiusMeters != nil {
		fence.RadiusMeters = *req.RadiusMeters
	}
	if req.NotifyOnEntry != nil {
		fence.NotifyOnEntry = *req.NotifyOnEntry
	}
	if req.NotifyOnExit != nil {
		fence.NotifyOnExit = *req.NotifyOnExit
	}
	if req.IsActive != nil {
		fence.IsActive = *req.IsActive
	}

	if err := s.validateGeometry(fence.CenterLat, fence.CenterLon, fence.RadiusMeters); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, fence); err != nil {
		return nil, err
	}
	return fence, nil
}

// Delete hard-removes a fence; only the owner may delete
func (s *GeofenceService) Delete(ctx context.Context, userID, fenceID uuid.UUID) error {
	fence, err := s.repo.FindByID(ctx, fenceID)
	if err != nil {
		return err
	}
	if fence.UserID != userID {
		return domain.ErrUnauthorized
	}
	return s.repo.Delete(ctx, fenceID)
}

// ListEvents returns the user's crossing events
func (s *GeofenceService) ListEvents(ctx context.Context, userID uuid.UUID, fenceID *uuid.UUID, from, to *time.Time, limit int) ([]domain.GeofenceEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repo.ListEvents(ctx, userID, fenceID, from, to, limit)
}
