package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"location-service/internal/dispatch"
	"location-service/internal/domain"
)

func TestShareService_Grant_DurationToExpiry(t *testing.T) {
	var saved *domain.LocationShare
	repo := &MockShareRepository{
		UpsertFunc: func(ctx context.Context, share *domain.LocationShare) (*domain.LocationShare, error) {
			saved = share
			return share, nil
		},
	}
	dispatcher := &MockDispatcher{}
	svc := NewShareService(repo, dispatcher, zap.NewNop())

	grantor := uuid.New()
	target := uuid.New()
	before := time.Now().UTC()

	_, err := svc.Grant(context.Background(), grantor, domain.CreateShareRequest{
		SharedWithID:    &target,
		DurationMinutes: ptr(60),
	})
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if saved.ExpiresAt == nil {
		t.Fatal("duration not converted to expiry")
	}
	delta := saved.ExpiresAt.Sub(before.Add(time.Hour))
	if delta < 0 {
		delta = -delta
	}
	if delta > time.Minute {
		t.Errorf("expiry off by %v", delta)
	}

	created := dispatcher.EventsOfType(dispatch.EventShareCreated)
	if len(created) != 1 || created[0].Recipient != target {
		t.Errorf("share-created notification missing or misaddressed: %+v", created)
	}
}

func TestShareService_Grant_PublicNoExpiryNoNotification(t *testing.T) {
	repo := &MockShareRepository{}
	dispatcher := &MockDispatcher{}
	svc := NewShareService(repo, dispatcher, zap.NewNop())

	share, err := svc.Grant(context.Background(), uuid.New(), domain.CreateShareRequest{})
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if share.ExpiresAt != nil {
		t.Errorf("open-ended grant has expiry: %v", share.ExpiresAt)
	}
	if !share.IsPublic() {
		t.Error("grant without target is not public")
	}
	// A public grant has no single recipient to notify
	if len(dispatcher.Events()) != 0 {
		t.Errorf("public grant dispatched %d events, want 0", len(dispatcher.Events()))
	}
}

func TestShareService_Revoke(t *testing.T) {
	grantor := uuid.New()
	target := uuid.New()

	revoked := true
	repo := &MockShareRepository{
		RevokeFunc: func(ctx context.Context, grantorID uuid.UUID, tgt *uuid.UUID) (bool, error) {
			return revoked, nil
		},
	}
	dispatcher := &MockDispatcher{}
	svc := NewShareService(repo, dispatcher, zap.NewNop())
	ctx := context.Background()

	if err := svc.Revoke(ctx, grantor, &target); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	ended := dispatcher.EventsOfType(dispatch.EventShareEnded)
	if len(ended) != 1 || ended[0].Recipient != target {
		t.Errorf("share-ended notification missing or misaddressed: %+v", ended)
	}

	// No-op revoke does not notify
	revoked = false
	if err := svc.Revoke(ctx, grantor, &target); err != nil {
		t.Fatalf("Revoke(no-op) error = %v", err)
	}
	if len(dispatcher.EventsOfType(dispatch.EventShareEnded)) != 1 {
		t.Error("no-op revoke dispatched a notification")
	}
}

func TestShareService_Delete_OwnerOnly(t *testing.T) {
	owner := uuid.New()
	target := uuid.New()
	shareID := uuid.New()

	deleted := false
	repo := &MockShareRepository{
		FindByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.LocationShare, error) {
			return &domain.LocationShare{ID: shareID, UserID: owner, SharedWithID: &target, IsActive: true}, nil
		},
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	dispatcher := &MockDispatcher{}
	svc := NewShareService(repo, dispatcher, zap.NewNop())
	ctx := context.Background()

	if err := svc.Delete(ctx, uuid.New(), shareID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Delete(non-owner) error = %v, want ErrUnauthorized", err)
	}
	if deleted {
		t.Fatal("share deleted by non-owner")
	}

	if err := svc.Delete(ctx, owner, shareID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("share not deleted by owner")
	}
	ended := dispatcher.EventsOfType(dispatch.EventShareEnded)
	if len(ended) != 1 || ended[0].Recipient != target {
		t.Errorf("share-ended notification missing: %+v", ended)
	}
}

func TestShareService_Delete_Missing(t *testing.T) {
	svc := NewShareService(&MockShareRepository{}, &MockDispatcher{}, zap.NewNop())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, domain.ErrShareNotFound) {
		t.Fatalf("Delete(missing) error = %v, want ErrShareNotFound", err)
	}
}
