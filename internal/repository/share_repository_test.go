package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"location-service/internal/domain"
)

func TestShareRepository_Upsert_ReplacesExistingGrant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()

	grantor := uuid.New()
	viewer := uuid.New()

	first, err := repo.Upsert(ctx, &domain.LocationShare{
		UserID:       grantor,
		SharedWithID: &viewer,
		ExpiresAt:    ptr(time.Now().UTC().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	second, err := repo.Upsert(ctx, &domain.LocationShare{
		UserID:       grantor,
		SharedWithID: &viewer,
		ExpiresAt:    nil,
	})
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("upsert created a second row: %v != %v", first.ID, second.ID)
	}
	if second.ExpiresAt != nil {
		t.Errorf("expiry not replaced: %v", second.ExpiresAt)
	}

	var count int64
	db.Model(&domain.LocationShare{}).Where("user_id = ?", grantor).Count(&count)
	if count != 1 {
		t.Errorf("share rows = %d, want 1", count)
	}
}

func TestShareRepository_Upsert_SeparateGrantsPerTarget(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()

	grantor := uuid.New()
	viewer := uuid.New()

	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &viewer}); err != nil {
		t.Fatalf("Upsert(direct) error = %v", err)
	}
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor}); err != nil {
		t.Fatalf("Upsert(public) error = %v", err)
	}

	shares, err := repo.ListByUser(ctx, grantor)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(shares) != 2 {
		t.Errorf("len(shares) = %d, want 2", len(shares))
	}
}

func TestShareRepository_IsVisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	grantor := uuid.New()
	viewer := uuid.New()
	stranger := uuid.New()

	// No grant yet
	visible, err := repo.IsVisible(ctx, grantor, viewer, now)
	if err != nil {
		t.Fatalf("IsVisible() error = %v", err)
	}
	if visible {
		t.Error("visible without grant")
	}

	// Direct grant
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &viewer}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if v, _ := repo.IsVisible(ctx, grantor, viewer, now); !v {
		t.Error("direct grant not visible")
	}
	if v, _ := repo.IsVisible(ctx, grantor, stranger, now); v {
		t.Error("direct grant leaked to stranger")
	}

	// Public grant opens visibility to everyone
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor}); err != nil {
		t.Fatalf("Upsert(public) error = %v", err)
	}
	if v, _ := repo.IsVisible(ctx, grantor, stranger, now); !v {
		t.Error("public grant not visible to stranger")
	}
}

func TestShareRepository_IsVisible_ExpiredGrant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()

	grantor := uuid.New()
	viewer := uuid.New()

	share, err := repo.Upsert(ctx, &domain.LocationShare{
		UserID:       grantor,
		SharedWithID: &viewer,
		ExpiresAt:    ptr(time.Now().UTC().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	before := share.ExpiresAt.Add(-time.Minute)
	after := share.ExpiresAt.Add(time.Minute)

	if v, _ := repo.IsVisible(ctx, grantor, viewer, before); !v {
		t.Error("grant not visible before expiry")
	}
	// Lazy expiry: the row still exists, comparison at read time hides it
	if v, _ := repo.IsVisible(ctx, grantor, viewer, after); v {
		t.Error("expired grant still visible")
	}
}

func TestShareRepository_Revoke(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	grantor := uuid.New()
	viewer := uuid.New()

	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &viewer}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	revoked, err := repo.Revoke(ctx, grantor, &viewer)
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if !revoked {
		t.Error("Revoke() = false, want true")
	}
	if v, _ := repo.IsVisible(ctx, grantor, viewer, now); v {
		t.Error("revoked grant still visible")
	}

	// Revoking again is a no-op, not an error
	revoked, err = repo.Revoke(ctx, grantor, &viewer)
	if err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
	if revoked {
		t.Error("second Revoke() = true, want false")
	}
}

func TestShareRepository_ListActive_ExcludesExpiredAndRevoked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	grantor := uuid.New()
	active := uuid.New()
	expired := uuid.New()
	revoked := uuid.New()

	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &active}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &expired, ExpiresAt: ptr(now.Add(-time.Minute))}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &revoked}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := repo.Revoke(ctx, grantor, &revoked); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	shares, err := repo.ListActive(ctx, grantor, now)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("len(shares) = %d, want 1", len(shares))
	}
	if shares[0].SharedWithID == nil || *shares[0].SharedWithID != active {
		t.Errorf("unexpected active share target: %v", shares[0].SharedWithID)
	}

	count, err := repo.CountActive(ctx, grantor, now)
	if err != nil {
		t.Fatalf("CountActive() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountActive() = %d, want 1", count)
	}
}

func TestShareRepository_DeleteExpiredBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShareRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	grantor := uuid.New()
	expiredTarget := uuid.New()
	openEnded := uuid.New()

	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &expiredTarget, ExpiresAt: ptr(now.Add(-time.Hour))}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := repo.Upsert(ctx, &domain.LocationShare{UserID: grantor, SharedWithID: &openEnded}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	deleted, err := repo.DeleteExpiredBefore(ctx, now, 100)
	if err != nil {
		t.Fatalf("DeleteExpiredBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	// Open-ended grant survives the sweep
	shares, _ := repo.ListByUser(ctx, grantor)
	if len(shares) != 1 {
		t.Fatalf("len(shares) = %d, want 1", len(shares))
	}
	if shares[0].SharedWithID == nil || *shares[0].SharedWithID != openEnded {
		t.Errorf("wrong survivor: %v", shares[0].SharedWithID)
	}
}
