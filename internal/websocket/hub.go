package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"location-service/internal/dispatch"
	"location-service/internal/metrics"
)

// Hub tracks live websocket sessions keyed by user and fans events out to
// them. It doubles as a dispatch.Sink so the presence engine can push
// shared-location and geofence events to connected recipients.
type Hub struct {
	clients   map[uuid.UUID]map[*Client]bool
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHub creates the hub and starts its run loop
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		metrics:    m,
	}

	go h.run()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.clientsMu.Unlock()

			if h.metrics != nil {
				h.metrics.WSConnectionsActive.Inc()
			}
			h.logger.Info("ws session registered",
				zap.String("user_id", client.userID.String()))

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, ok := h.clients[client.userID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.clientsMu.Unlock()

			if h.metrics != nil {
				h.metrics.WSConnectionsActive.Dec()
			}
			h.logger.Info("ws session unregistered",
				zap.String("user_id", client.userID.String()))
		}
	}
}

// SendToUser delivers a payload to every session of one user. Sessions with a
// full send buffer are skipped; delivery is best-effort.
func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// Broadcast delivers a payload to every live session
func (h *Hub) Broadcast(payload []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}

// IsConnected reports whether the user has at least one live session
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Name implements dispatch.Sink
func (h *Hub) Name() string {
	return "websocket"
}

// Deliver implements dispatch.Sink
func (h *Hub) Deliver(_ context.Context, event dispatch.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if event.Broadcast {
		h.Broadcast(payload)
		return nil
	}
	h.SendToUser(event.Recipient, payload)
	return nil
}

// RunRedisBridge subscribes to the location pub/sub channels and relays events
// published by peer instances to locally connected sessions. Blocks until the
// context is cancelled; run it in its own goroutine.
func (h *Hub) RunRedisBridge(ctx context.Context, client *redis.Client) {
	pubsub := client.PSubscribe(ctx, dispatch.UserChannel("*"))
	defer pubsub.Close()

	broadcastSub := client.Subscribe(ctx, dispatch.BroadcastChannel())
	defer broadcastSub.Close()

	userCh := pubsub.Channel()
	broadcastCh := broadcastSub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-userCh:
			if !ok {
				return
			}
			parts := strings.Split(msg.Channel, ":")
			if len(parts) != 3 {
				continue
			}
			userID, err := uuid.Parse(parts[2])
			if err != nil {
				continue
			}
			h.SendToUser(userID, []byte(msg.Payload))
		case msg, ok := <-broadcastCh:
			if !ok {
				return
			}
			h.Broadcast([]byte(msg.Payload))
		}
	}
}
