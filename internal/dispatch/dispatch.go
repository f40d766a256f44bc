// Package dispatch decouples the presence engine from outbound delivery. The
// engine enqueues events and returns immediately; a slow or failed downstream
// sink never delays or fails the ingest path.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"location-service/internal/domain"
	"location-service/internal/metrics"
)

// EventType identifies an outbound event
type EventType string

const (
	EventSharedLocationUpdate EventType = "shared_location_update"
	EventGeofence             EventType = "geofence_event"
	EventShareCreated         EventType = "location_share_created"
	EventShareEnded           EventType = "location_share_ended"
)

// Event is a single outbound delivery. Broadcast events go to every live
// session; otherwise delivery targets Recipient.
type Event struct {
	Type      EventType   `json:"type"`
	Recipient uuid.UUID   `json:"-"`
	Broadcast bool        `json:"-"`
	Payload   interface{} `json:"payload"`
}

// SharedLocationPayload carries a position push to entitled viewers.
type SharedLocationPayload struct {
	UserID     uuid.UUID `json:"userId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// GeofencePayload carries a boundary-crossing notification.
type GeofencePayload struct {
	UserID     uuid.UUID                `json:"userId"`
	FenceID    uuid.UUID                `json:"fenceId"`
	FenceName  string                   `json:"fenceName"`
	EventType  domain.GeofenceEventType `json:"eventType"`
	Latitude   float64                  `json:"latitude"`
	Longitude  float64                  `json:"longitude"`
	OccurredAt time.Time                `json:"occurredAt"`
}

// SharePayload announces a share grant starting or ending.
type SharePayload struct {
	SharerID uuid.UUID `json:"sharerId"`
}

// Sink delivers events to one downstream (websocket hub, redis, notifications).
// Delivery is best-effort; errors are logged and swallowed by the dispatcher.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Dispatcher is the outbound boundary seen by the services
type Dispatcher interface {
	Enqueue(event Event)
}

// AsyncDispatcher queues events on a buffered channel drained by a single
// worker. A full queue drops the event rather than blocking the caller.
type AsyncDispatcher struct {
	queue   chan Event
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncDispatcher creates the dispatcher and starts its worker
func NewAsyncDispatcher(queueSize int, sinks []Sink, logger *zap.Logger, m *metrics.Metrics) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{
		queue:   make(chan Event, queueSize),
		sinks:   sinks,
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue hands an event to the worker without blocking. Events are dropped
// when the queue is full; ingest latency wins over delivery guarantees.
// Safe after Close: late events from still-open websocket sessions are
// discarded instead of sending on the closed queue.
func (d *AsyncDispatcher) Enqueue(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- event:
		if d.metrics != nil {
			d.metrics.DispatchQueueDepth.Inc()
			d.metrics.DispatchedTotal.WithLabelValues(string(event.Type)).Inc()
		}
	default:
		if d.metrics != nil {
			d.metrics.DispatchDropsTotal.Inc()
		}
		d.logger.Warn("dispatch queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("recipient", event.Recipient.String()))
	}
}

// Close stops the worker after draining queued events
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.queue)
		<-d.done
	})
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)

	for event := range d.queue {
		if d.metrics != nil {
			d.metrics.DispatchQueueDepth.Dec()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		for _, sink := range d.sinks {
			if err := sink.Deliver(ctx, event); err != nil {
				d.logger.Warn("sink delivery failed",
					zap.String("sink", sink.Name()),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
		cancel()
	}
}
