package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationShare grants visibility of one user's location to a target user, or
// to everyone when SharedWithID is nil. At most one active grant exists per
// (grantor, target) pair; creating a duplicate replaces the prior one.
//
// Expiry is lazy: a grant past ExpiresAt is inert for all reads regardless of
// IsActive. The cleanup job reclaims expired rows but correctness does not
// depend on it.
type LocationShare struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	SharedWithID *uuid.UUID `gorm:"type:uuid;index" json:"sharedWithId,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	IsActive     bool       `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updatedAt"`
}

func (LocationShare) TableName() string {
	return "location_shares"
}

// IsExpired returns true if the grant is past its expiry at the given instant.
func (s *LocationShare) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// IsPublic returns true when the grant targets everyone.
func (s *LocationShare) IsPublic() bool {
	return s.SharedWithID == nil
}

// CreateShareRequest creates or replaces a location share.
type CreateShareRequest struct {
	SharedWithID    *uuid.UUID `json:"sharedWithId,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty" binding:"omitempty,min=1"`
}

// RevokeShareRequest deactivates the grant for the given target (nil = public).
type RevokeShareRequest struct {
	SharedWithID *uuid.UUID `json:"sharedWithId,omitempty"`
}
