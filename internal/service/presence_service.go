package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"location-service/internal/config"
	"location-service/internal/dispatch"
	"location-service/internal/domain"
	"location-service/internal/geo"
	"location-service/internal/metrics"
	"location-service/internal/repository"
)

// lowAccuracyThresholdMeters triggers a warning log on ingest; the update is
// still accepted.
const lowAccuracyThresholdMeters = 100

// PresenceService is the orchestrator of the location pipeline: it records
// positions, evaluates geofence crossings, and fans updates out to entitled
// viewers through the dispatcher.
type PresenceService struct {
	locationRepo repository.LocationRepository
	shareRepo    repository.ShareRepository
	geofenceRepo repository.GeofenceRepository
	dispatcher   dispatch.Dispatcher
	cfg          config.LocationConfig
	logger       *zap.Logger
	metrics      *metrics.Metrics

	// Per-user ingest serialization. Unrelated users proceed in parallel;
	// cross-user reads never take these locks.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewPresenceService creates a new PresenceService
func NewPresenceService(
	locationRepo repository.LocationRepository,
	shareRepo repository.ShareRepository,
	geofenceRepo repository.GeofenceRepository,
	dispatcher dispatch.Dispatcher,
	cfg config.LocationConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *PresenceService {
	return &PresenceService{
		locationRepo: locationRepo,
		shareRepo:    shareRepo,
		geofenceRepo: geofenceRepo,
		dispatcher:   dispatcher,
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *PresenceService) userLock(userID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *PresenceService) countIngest(result string) {
	if s.metrics != nil {
		s.metrics.IngestsTotal.WithLabelValues(result).Inc()
	}
}

func validatePosition(req domain.UpdateLocationRequest) error {
	if !geo.ValidLatitude(req.Latitude) || !geo.ValidLongitude(req.Longitude) {
		return fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidPosition)
	}
	if req.Accuracy != nil && *req.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy must be non-negative", domain.ErrInvalidPosition)
	}
	if req.Speed != nil && *req.Speed < 0 {
		return fmt.Errorf("%w: speed must be non-negative", domain.ErrInvalidPosition)
	}
	if req.Heading != nil && (*req.Heading < 0 || *req.Heading > 360) {
		return fmt.Errorf("%w: heading must be within [0, 360]", domain.ErrInvalidPosition)
	}
	return nil
}

// Ingest records a position update for the user. Stale updates are rejected
// before any geofence or share processing runs; dispatch is fire-and-forget.
func (s *PresenceService) Ingest(ctx context.Context, userID uuid.UUID, req domain.UpdateLocationRequest) (*domain.CurrentLocation, error) {
	if err := validatePosition(req); err != nil {
		s.countIngest("invalid")
		return nil, err
	}

	if req.Accuracy != nil && *req.Accuracy > lowAccuracyThresholdMeters {
		s.logger.Warn("low accuracy location update",
			zap.String("user_id", userID.String()),
			zap.Float64("accuracy_m", *req.Accuracy))
	}

	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	current := &domain.CurrentLocation{
		UserID:     userID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   req.Accuracy,
		Altitude:   req.Altitude,
		Speed:      req.Speed,
		Heading:    req.Heading,
		RecordedAt: recordedAt,
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	previous, err := s.locationRepo.GetCurrent(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.countIngest("error")
		return nil, err
	}

	if err := s.locationRepo.SaveCurrent(ctx, current); err != nil {
		if errors.Is(err, domain.ErrStalePosition) {
			s.countIngest("stale")
		} else {
			s.countIngest("error")
		}
		return nil, err
	}
	s.countIngest("ok")

	s.processGeofences(ctx, userID, previous, current)
	s.fanOut(ctx, userID, current)

	return current, nil
}

func (s *PresenceService) processGeofences(ctx context.Context, userID uuid.UUID, previous, current *domain.CurrentLocation) {
	fences, err := s.geofenceRepo.ListByUser(ctx, userID, true)
	if err != nil {
		s.logger.Error("failed to load geofences for crossing evaluation",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	for _, crossing := range EvaluateCrossings(fences, previous, current) {
		event := &domain.GeofenceEvent{
			UserID:       userID,
			GeofenceID:   crossing.Fence.ID,
			FenceName:    crossing.Fence.Name,
			CenterLat:    crossing.Fence.CenterLat,
			CenterLon:    crossing.Fence.CenterLon,
			RadiusMeters: crossing.Fence.RadiusMeters,
			EventType:    crossing.EventType,
			Latitude:     current.Latitude,
			Longitude:    current.Longitude,
			Accuracy:     current.Accuracy,
			OccurredAt:   current.RecordedAt,
		}

		if err := s.geofenceRepo.CreateEvent(ctx, event); err != nil {
			s.logger.Error("failed to persist geofence event",
				zap.String("user_id", userID.String()),
				zap.String("fence_id", crossing.Fence.ID.String()),
				zap.Error(err))
			continue
		}

		if s.metrics != nil {
			s.metrics.GeofenceEventsTotal.WithLabelValues(string(crossing.EventType)).Inc()
		}
		s.logger.Info("geofence crossing",
			zap.String("user_id", userID.String()),
			zap.String("fence_name", crossing.Fence.Name),
			zap.String("event_type", string(crossing.EventType)))

		s.dispatcher.Enqueue(dispatch.Event{
			Type:      dispatch.EventGeofence,
			Recipient: userID,
			Payload: dispatch.GeofencePayload{
				UserID:     userID,
				FenceID:    crossing.Fence.ID,
				FenceName:  crossing.Fence.Name,
				EventType:  crossing.EventType,
				Latitude:   current.Latitude,
				Longitude:  current.Longitude,
				OccurredAt: current.RecordedAt,
			},
		})
	}
}

func (s *PresenceService) fanOut(ctx context.Context, userID uuid.UUID, current *domain.CurrentLocation) {
	shares, err := s.shareRepo.ListActive(ctx, userID, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to load active shares for fan-out",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	payload := dispatch.SharedLocationPayload{
		UserID:     userID,
		Latitude:   current.Latitude,
		Longitude:  current.Longitude,
		Accuracy:   current.Accuracy,
		RecordedAt: current.RecordedAt,
	}

	for _, share := range shares {
		event := dispatch.Event{
			Type:    dispatch.EventSharedLocationUpdate,
			Payload: payload,
		}
		if share.IsPublic() {
			event.Broadcast = true
		} else {
			event.Recipient = *share.SharedWithID
		}
		s.dispatcher.Enqueue(event)
	}
}

// FindNearbyVisible returns other users near the requester's current location,
// restricted to users whose location is visible to the requester, sorted by
// ascending distance with ties broken by user ID for determinism.
func (s *PresenceService) FindNearbyVisible(ctx context.Context, requesterID uuid.UUID, radiusMeters float64, limit int) ([]domain.NearbyUser, error) {
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.NearbyDefaultRadius
	}
	if s.cfg.NearbyMaxRadius > 0 && radiusMeters > s.cfg.NearbyMaxRadius {
		radiusMeters = s.cfg.NearbyMaxRadius
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	if s.metrics != nil {
		s.metrics.NearbyQueriesTotal.Inc()
	}

	center, err := s.locationRepo.GetCurrent(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.locationRepo.FindNearby(ctx, center.Latitude, center.Longitude, radiusMeters, requesterID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	visible := make([]domain.NearbyUser, 0, len(candidates))
	for _, c := range candidates {
		ok, err := s.shareRepo.IsVisible(ctx, c.Location.UserID, requesterID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		visible = append(visible, domain.NearbyUser{
			UserID:         c.Location.UserID,
			Latitude:       c.Location.Latitude,
			Longitude:      c.Location.Longitude,
			DistanceMeters: c.DistanceMeters,
			RecordedAt:     c.Location.RecordedAt,
		})
	}

	sort.Slice(visible, func(i, j int) bool {
		if visible[i].DistanceMeters != visible[j].DistanceMeters {
			return visible[i].DistanceMeters < visible[j].DistanceMeters
		}
		return visible[i].UserID.String() < visible[j].UserID.String()
	})

	if len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

// GetVisibleCurrent returns the owner's current location when the requester is
// the owner or holds a valid grant. Invisible locations report ErrNotFound so
// existence is not leaked.
func (s *PresenceService) GetVisibleCurrent(ctx context.Context, ownerID, requesterID uuid.UUID) (*domain.CurrentLocation, error) {
	if ownerID != requesterID {
		visible, err := s.shareRepo.IsVisible(ctx, ownerID, requesterID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, domain.ErrNotFound
		}
	}
	return s.locationRepo.GetCurrent(ctx, ownerID)
}

// GetVisibleHistory returns the owner's position history under the same
// visibility rules as GetVisibleCurrent.
func (s *PresenceService) GetVisibleHistory(ctx context.Context, ownerID, requesterID uuid.UUID, from, to *time.Time, limit, offset int) ([]domain.LocationHistory, error) {
	if ownerID != requesterID {
		visible, err := s.shareRepo.IsVisible(ctx, ownerID, requesterID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, domain.ErrNotFound
		}
	}

	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.locationRepo.GetHistory(ctx, ownerID, from, to, limit, offset)
}

// Stats summarizes the user's location activity over the last N days.
func (s *PresenceService) Stats(ctx context.Context, userID uuid.UUID, days int) (*domain.LocationStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -days)

	locations, err := s.locationRepo.CountHistorySince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	shares, err := s.shareRepo.CountActive(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	fences, err := s.geofenceRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	events, err := s.geofenceRepo.CountEventsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	return &domain.LocationStats{
		TotalLocations: locations,
		ActiveShares:   shares,
		GeofenceAreas:  fences,
		GeofenceEvents: events,
		DaysTracked:    days,
	}, nil
}
