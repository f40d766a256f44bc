package domain

import "errors"

// Sentinel errors returned by repositories and services. Handlers map these to
// HTTP status codes in internal/response.
var (
	// ErrInvalidCoordinate is returned for latitude/longitude outside valid ranges.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrInvalidPosition is returned when an ingested position fails validation.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrStalePosition is returned when an incoming position is not newer than
	// the stored current location. The update is discarded, no state changes.
	ErrStalePosition = errors.New("stale position update")

	// ErrGeofenceAreaTooLarge is returned when a fence radius exceeds the
	// configured ceiling.
	ErrGeofenceAreaTooLarge = errors.New("geofence area too large")

	// ErrNotFound is returned for unknown users, fences or locations, and for
	// locations the requester is not allowed to see.
	ErrNotFound = errors.New("not found")

	// ErrShareNotFound is returned when a share lookup by ID finds nothing.
	ErrShareNotFound = errors.New("location share not found")

	// ErrUnauthorized is returned when acting on another user's fence or share.
	ErrUnauthorized = errors.New("not authorized")
)
