package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"location-service/internal/dispatch"
	"location-service/internal/domain"
)

// NotificationSink forwards dispatch events to the notification service for
// offline delivery. Shared-location pushes are session-only traffic and are
// not forwarded; connected recipients are skipped since the websocket hub
// already reached them.
type NotificationSink struct {
	client    NotificationClient
	connected func(uuid.UUID) bool
}

// NewNotificationSink creates a new NotificationSink. connected may be nil,
// in which case every event is forwarded.
func NewNotificationSink(client NotificationClient, connected func(uuid.UUID) bool) *NotificationSink {
	return &NotificationSink{client: client, connected: connected}
}

func (s *NotificationSink) Name() string {
	return "notification"
}

func (s *NotificationSink) Deliver(ctx context.Context, event dispatch.Event) error {
	if event.Broadcast {
		return nil
	}
	if s.connected != nil && s.connected(event.Recipient) {
		return nil
	}

	switch event.Type {
	case dispatch.EventGeofence:
		payload, ok := event.Payload.(dispatch.GeofencePayload)
		if !ok {
			return nil
		}
		notifType := NotificationGeofenceEntry
		verb := "entered"
		if payload.EventType == domain.GeofenceEventExit {
			notifType = NotificationGeofenceExit
			verb = "left"
		}
		return s.client.SendNotification(ctx, NotificationEvent{
			Type:         notifType,
			TargetUserID: event.Recipient,
			Title:        "Geofence alert",
			Body:         fmt.Sprintf("You have %s %s", verb, payload.FenceName),
			Metadata: map[string]interface{}{
				"fenceId":   payload.FenceID.String(),
				"fenceName": payload.FenceName,
				"eventType": string(payload.EventType),
			},
			OccurredAt: payload.OccurredAt.UTC().Format(time.RFC3339),
		})

	case dispatch.EventShareCreated:
		payload, ok := event.Payload.(dispatch.SharePayload)
		if !ok {
			return nil
		}
		return s.client.SendNotification(ctx, NotificationEvent{
			Type:         NotificationShareCreated,
			TargetUserID: event.Recipient,
			Title:        "Location share",
			Body:         "Someone is sharing their location with you",
			Metadata:     map[string]interface{}{"sharerId": payload.SharerID.String()},
		})

	case dispatch.EventShareEnded:
		payload, ok := event.Payload.(dispatch.SharePayload)
		if !ok {
			return nil
		}
		return s.client.SendNotification(ctx, NotificationEvent{
			Type:         NotificationShareEnded,
			TargetUserID: event.Recipient,
			Title:        "Location share ended",
			Body:         "A location share with you has ended",
			Metadata:     map[string]interface{}{"sharerId": payload.SharerID.String()},
		})
	}

	return nil
}
