package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"location-service/internal/dispatch"
	"location-service/internal/domain"
	"location-service/internal/repository"
)

// ShareService manages location share grants.
type ShareService struct {
	repo       repository.ShareRepository
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
}

// NewShareService creates a new ShareService
func NewShareService(repo repository.ShareRepository, dispatcher dispatch.Dispatcher, logger *zap.Logger) *ShareService {
	return &ShareService{repo: repo, dispatcher: dispatcher, logger: logger}
}

// Grant creates or replaces the share grant for the target (nil = public).
// A targeted grant notifies the target user that sharing started.
func (s *ShareService) Grant(ctx context.Context, grantorID uuid.UUID, req domain.CreateShareRequest) (*domain.LocationShare, error) {
	var expiresAt *time.Time
	if req.DurationMinutes != nil {
		t := time.Now().UTC().Add(time.Duration(*req.DurationMinutes) * time.Minute)
		expiresAt = &t
	}

	share := &domain.LocationShare{
		UserID:       grantorID,
		SharedWithID: req.SharedWithID,
		ExpiresAt:    expiresAt,
	}

	share, err := s.repo.Upsert(ctx, share)
	if err != nil {
		return nil, err
	}

	s.logger.Info("location share granted",
		zap.String("grantor_id", grantorID.String()),
		zap.Bool("public", share.IsPublic()))

	if req.SharedWithID != nil {
		s.dispatcher.Enqueue(dispatch.Event{
			Type:      dispatch.EventShareCreated,
			Recipient: *req.SharedWithID,
			Payload:   dispatch.SharePayload{SharerID: grantorID},
		})
	}

	return share, nil
}

// Revoke deactivates the grant for the target (nil = public). Revoking a
// grant that does not exist is a no-op, not an error.
func (s *ShareService) Revoke(ctx context.Context, grantorID uuid.UUID, target *uuid.UUID) error {
	revoked, err := s.repo.Revoke(ctx, grantorID, target)
	if err != nil {
		return err
	}

	if revoked && target != nil {
		s.dispatcher.Enqueue(dispatch.Event{
			Type:      dispatch.EventShareEnded,
			Recipient: *target,
			Payload:   dispatch.SharePayload{SharerID: grantorID},
		})
	}
	return nil
}

// List returns the user's grants, active or not
func (s *ShareService) List(ctx context.Context, userID uuid.UUID) ([]domain.LocationShare, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a grant row by ID; only the grantor may delete
func (s *ShareService) Delete(ctx context.Context, userID, shareID uuid.UUID) error {
	share, err := s.repo.FindByID(ctx, shareID)
	if err != nil {
		return err
	}
	if share.UserID != userID {
		return domain.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, shareID); err != nil {
		return err
	}

	if share.SharedWithID != nil {
		s.dispatcher.Enqueue(dispatch.Event{
			Type:      dispatch.EventShareEnded,
			Recipient: *share.SharedWithID,
			Payload:   dispatch.SharePayload{SharerID: userID},
		})
	}
	return nil
}
