package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationGeofenceEntry NotificationType = "GEOFENCE_ENTRY"
	NotificationGeofenceExit  NotificationType = "GEOFENCE_EXIT"
	NotificationShareCreated  NotificationType = "LOCATION_SHARE_CREATED"
	NotificationShareEnded    NotificationType = "LOCATION_SHARE_ENDED"
)

// NotificationEvent represents a notification to be sent
type NotificationEvent struct {
	Type         NotificationType       `json:"type"`
	TargetUserID uuid.UUID              `json:"targetUserId"`
	Title        string                 `json:"title"`
	Body         string                 `json:"body"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   string                 `json:"occurredAt,omitempty"`
}

// NotificationClient defines the interface for notification service communication
type NotificationClient interface {
	SendNotification(ctx context.Context, event NotificationEvent) error
}

type notificationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotificationClient creates a new notification service client
func NewNotificationClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) NotificationClient {
	return &notificationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SendNotification sends a single notification to the notification service
func (c *notificationClient) SendNotification(ctx context.Context, event NotificationEvent) error {
	url := fmt.Sprintf("%s/api/internal/notifications", c.baseURL)

	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	jsonBody, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("Failed to marshal notification event", zap.Error(err))
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Failed to send notification",
			zap.String("type", string(event.Type)),
			zap.String("target_user_id", event.TargetUserID.String()),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("Notification service returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("type", string(event.Type)))
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	return nil
}
