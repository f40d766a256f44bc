package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"location-service/internal/dispatch"
	"location-service/internal/domain"
	"location-service/internal/repository"
)

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	SaveCurrentFunc         func(ctx context.Context, loc *domain.CurrentLocation) error
	GetCurrentFunc          func(ctx context.Context, userID uuid.UUID) (*domain.CurrentLocation, error)
	GetHistoryFunc          func(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit, offset int) ([]domain.LocationHistory, error)
	CountHistorySinceFunc   func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	FindNearbyFunc          func(ctx context.Context, lat, lon, radiusMeters float64, excludeUserID uuid.UUID) ([]repository.NearbyCandidate, error)
	DeleteHistoryBeforeFunc func(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

func (m *MockLocationRepository) SaveCurrent(ctx context.Context, loc *domain.CurrentLocation) error {
	if m.SaveCurrentFunc != nil {
		return m.SaveCurrentFunc(ctx, loc)
	}
	return nil
}

func (m *MockLocationRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*domain.CurrentLocation, error) {
	if m.GetCurrentFunc != nil {
		return m.GetCurrentFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockLocationRepository) GetHistory(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit, offset int) ([]domain.LocationHistory, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, userID, from, to, limit, offset)
	}
	return nil, nil
}

func (m *MockLocationRepository) CountHistorySince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	if m.CountHistorySinceFunc != nil {
		return m.CountHistorySinceFunc(ctx, userID, since)
	}
	return 0, nil
}

func (m *MockLocationRepository) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, excludeUserID uuid.UUID) ([]repository.NearbyCandidate, error) {
	if m.FindNearbyFunc != nil {
		return m.FindNearbyFunc(ctx, lat, lon, radiusMeters, excludeUserID)
	}
	return nil, nil
}

func (m *MockLocationRepository) DeleteHistoryBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if m.DeleteHistoryBeforeFunc != nil {
		return m.DeleteHistoryBeforeFunc(ctx, cutoff, batchSize)
	}
	return 0, nil
}

// MockShareRepository is a mock implementation of ShareRepository
type MockShareRepository struct {
	UpsertFunc              func(ctx context.Context, share *domain.LocationShare) (*domain.LocationShare, error)
	FindByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.LocationShare, error)
	ListByUserFunc          func(ctx context.Context, grantorID uuid.UUID) ([]domain.LocationShare, error)
	ListActiveFunc          func(ctx context.Context, grantorID uuid.UUID, now time.Time) ([]domain.LocationShare, error)
	RevokeFunc              func(ctx context.Context, grantorID uuid.UUID, target *uuid.UUID) (bool, error)
	DeleteFunc              func(ctx context.Context, id uuid.UUID) error
	IsVisibleFunc           func(ctx context.Context, grantorID, viewerID uuid.UUID, now time.Time) (bool, error)
	CountActiveFunc         func(ctx context.Context, grantorID uuid.UUID, now time.Time) (int64, error)
	DeleteExpiredBeforeFunc func(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

func (m *MockShareRepository) Upsert(ctx context.Context, share *domain.LocationShare) (*domain.LocationShare, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, share)
	}
	return share, nil
}

func (m *MockShareRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.LocationShare, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrShareNotFound
}

func (m *MockShareRepository) ListByUser(ctx context.Context, grantorID uuid.UUID) ([]domain.LocationShare, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, grantorID)
	}
	return nil, nil
}

func (m *MockShareRepository) ListActive(ctx context.Context, grantorID uuid.UUID, now time.Time) ([]domain.LocationShare, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, grantorID, now)
	}
	return nil, nil
}

func (m *MockShareRepository) Revoke(ctx context.Context, grantorID uuid.UUID, target *uuid.UUID) (bool, error) {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, grantorID, target)
	}
	return false, nil
}

func (m *MockShareRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockShareRepository) IsVisible(ctx context.Context, grantorID, viewerID uuid.UUID, now time.Time) (bool, error) {
	if m.IsVisibleFunc != nil {
		return m.IsVisibleFunc(ctx, grantorID, viewerID, now)
	}
	return false, nil
}

func (m *MockShareRepository) CountActive(ctx context.Context, grantorID uuid.UUID, now time.Time) (int64, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx, grantorID, now)
	}
	return 0, nil
}

func (m *MockShareRepository) DeleteExpiredBefore(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	if m.DeleteExpiredBeforeFunc != nil {
		return m.DeleteExpiredBeforeFunc(ctx, now, batchSize)
	}
	return 0, nil
}

// MockGeofenceRepository is a mock implementation of GeofenceRepository
type MockGeofenceRepository struct {
	CreateFunc           func(ctx context.Context, fence *domain.GeofenceArea) error
	FindByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.GeofenceArea, error)
	ListByUserFunc       func(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.GeofenceArea, error)
	UpdateFunc           func(ctx context.Context, fence *domain.GeofenceArea) error
	DeleteFunc           func(ctx context.Context, id uuid.UUID) error
	CountByUserFunc      func(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateEventFunc      func(ctx context.Context, event *domain.GeofenceEvent) error
	ListEventsFunc       func(ctx context.Context, userID uuid.UUID, fenceID *uuid.UUID, from, to *time.Time, limit int) ([]domain.GeofenceEvent, error)
	CountEventsSinceFunc func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

func (m *MockGeofenceRepository) Create(ctx context.Context, fence *domain.GeofenceArea) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, fence)
	}
	return nil
}

func (m *MockGeofenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GeofenceArea, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockGeofenceRepository) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.GeofenceArea, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, activeOnly)
	}
	return nil, nil
}

func (m *MockGeofenceRepository) Update(ctx context.Context, fence *domain.GeofenceArea) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, fence)
	}
	return nil
}

func (m *MockGeofenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockGeofenceRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockGeofenceRepository) CreateEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	if m.CreateEventFunc != nil {
		return m.CreateEventFunc(ctx, event)
	}
	return nil
}

func (m *MockGeofenceRepository) ListEvents(ctx context.Context, userID uuid.UUID, fenceID *uuid.UUID, from, to *time.Time, limit int) ([]domain.GeofenceEvent, error) {
	if m.ListEventsFunc != nil {
		return m.ListEventsFunc(ctx, userID, fenceID, from, to, limit)
	}
	return nil, nil
}

func (m *MockGeofenceRepository) CountEventsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	if m.CountEventsSinceFunc != nil {
		return m.CountEventsSinceFunc(ctx, userID, since)
	}
	return 0, nil
}

// MockDispatcher records enqueued events for assertions
type MockDispatcher struct {
	mu     sync.Mutex
	events []dispatch.Event
}

func (m *MockDispatcher) Enqueue(event dispatch.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockDispatcher) Events() []dispatch.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dispatch.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockDispatcher) EventsOfType(t dispatch.EventType) []dispatch.Event {
	var out []dispatch.Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
