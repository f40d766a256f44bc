package domain

import (
	"time"

	"github.com/google/uuid"
)

// CurrentLocation is the most recent position per user. Overwritten atomically
// on each ingest; last-write-wins by RecordedAt. Exempt from retention pruning.
type CurrentLocation struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	RecordedAt time.Time `gorm:"not null;index" json:"recordedAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}

func (CurrentLocation) TableName() string {
	return "current_locations"
}

// LocationHistory is an immutable position record appended on each ingest.
// Rows older than the retention horizon are pruned by the cleanup job.
type LocationHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_history_user_recorded" json:"userId"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	RecordedAt time.Time `gorm:"not null;index:idx_history_user_recorded" json:"recordedAt"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

func (LocationHistory) TableName() string {
	return "location_history"
}

// UpdateLocationRequest is the ingest payload.
type UpdateLocationRequest struct {
	Latitude   float64    `json:"latitude" binding:"min=-90,max=90"`
	Longitude  float64    `json:"longitude" binding:"min=-180,max=180"`
	Accuracy   *float64   `json:"accuracy,omitempty"`
	Altitude   *float64   `json:"altitude,omitempty"`
	Speed      *float64   `json:"speed,omitempty"`
	Heading    *float64   `json:"heading,omitempty"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// NearbyUser is a single result of a nearby query, ranked by distance.
type NearbyUser struct {
	UserID         uuid.UUID `json:"userId"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distanceMeters"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// LocationStats summarizes a user's location activity over a window.
type LocationStats struct {
	TotalLocations int64 `json:"totalLocations"`
	ActiveShares   int64 `json:"activeShares"`
	GeofenceAreas  int64 `json:"geofenceAreas"`
	GeofenceEvents int64 `json:"geofenceEvents"`
	DaysTracked    int   `json:"daysTracked"`
}
