package domain

import (
	"time"

	"github.com/google/uuid"
)

// GeofenceEventType defines the direction of a boundary crossing
type GeofenceEventType string

const (
	GeofenceEventEntry GeofenceEventType = "entry"
	GeofenceEventExit  GeofenceEventType = "exit"
)

// GeofenceArea is a named circular region owned by a user. The owner may edit
// geometry and flags; deletion is a hard removal.
type GeofenceArea struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	CenterLat     float64   `gorm:"not null" json:"centerLatitude"`
	CenterLon     float64   `gorm:"not null" json:"centerLongitude"`
	RadiusMeters  float64   `gorm:"not null" json:"radiusMeters"`
	NotifyOnEntry bool      `gorm:"not null" json:"notifyOnEntry"`
	NotifyOnExit  bool      `gorm:"not null" json:"notifyOnExit"`
	IsActive      bool      `gorm:"not null" json:"isActive"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

func (GeofenceArea) TableName() string {
	return "geofence_areas"
}

// GeofenceEvent is an immutable boundary-crossing record produced by the
// presence engine. The fence geometry is snapshotted at event time so events
// stay self-contained after the fence is deleted.
type GeofenceEvent struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_geofence_event_user_time" json:"userId"`
	GeofenceID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"geofenceId"`
	FenceName    string            `gorm:"type:varchar(100);not null" json:"fenceName"`
	CenterLat    float64           `gorm:"not null" json:"centerLatitude"`
	CenterLon    float64           `gorm:"not null" json:"centerLongitude"`
	RadiusMeters float64           `gorm:"not null" json:"radiusMeters"`
	EventType    GeofenceEventType `gorm:"type:varchar(10);not null" json:"eventType"`
	Latitude     float64           `gorm:"not null" json:"latitude"`
	Longitude    float64           `gorm:"not null" json:"longitude"`
	Accuracy     *float64          `json:"accuracy,omitempty"`
	OccurredAt   time.Time         `gorm:"not null;index:idx_geofence_event_user_time" json:"occurredAt"`
	CreatedAt    time.Time         `gorm:"not null" json:"createdAt"`
}

func (GeofenceEvent) TableName() string {
	return "geofence_events"
}

// CreateGeofenceRequest creates a new fence.
type CreateGeofenceRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Description   *string  `json:"description,omitempty"`
	CenterLat     float64  `json:"centerLatitude" binding:"min=-90,max=90"`
	CenterLon     float64  `json:"centerLongitude" binding:"min=-180,max=180"`
	RadiusMeters  float64  `json:"radiusMeters" binding:"required,min=1"`
	NotifyOnEntry *bool    `json:"notifyOnEntry,omitempty"`
	NotifyOnExit  *bool    `json:"notifyOnExit,omitempty"`
}

// UpdateGeofenceRequest edits an existing fence; nil fields are left unchanged.
type UpdateGeofenceRequest struct {
	Name          *string  `json:"name,omitempty" binding:"omitempty,max=100"`
	Description   *string  `json:"description,omitempty"`
	CenterLat     *float64 `json:"centerLatitude,omitempty" binding:"omitempty,min=-90,max=90"`
	CenterLon     *float64 `json:"centerLongitude,omitempty" binding:"omitempty,min=-180,max=180"`
	RadiusMeters  *float64 `json:"radiusMeters,omitempty" binding:"omitempty,min=1"`
	NotifyOnEntry *bool    `json:"notifyOnEntry,omitempty"`
	NotifyOnExit  *bool    `json:"notifyOnExit,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}
