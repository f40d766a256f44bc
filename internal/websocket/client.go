package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"location-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// LocationIngestor feeds transport-level position updates into the presence
// engine. Implemented by the presence service; declared here to keep the hub
// free of a service dependency.
type LocationIngestor interface {
	Ingest(ctx context.Context, userID uuid.UUID, req domain.UpdateLocationRequest) (*domain.CurrentLocation, error)
}

// InboundMessage is a client-to-server frame
type InboundMessage struct {
	Type     string                       `json:"type"`
	Location *domain.UpdateLocationRequest `json:"location,omitempty"`
}

// AckMessage is the server's reply to an inbound location update
type AckMessage struct {
	Type    string                  `json:"type"`
	OK      bool                    `json:"ok"`
	Error   string                  `json:"error,omitempty"`
	Current *domain.CurrentLocation `json:"current,omitempty"`
}

// Client is one websocket session
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   uuid.UUID
	ingestor LocationIngestor
	logger   *zap.Logger
}

// NewClient wraps an upgraded connection and registers it with the hub
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, ingestor LocationIngestor, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 64),
		userID:   userID,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Run registers the client and starts the read/write pumps. Blocks until the
// connection closes.
func (c *Client) Run() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read error",
					zap.String("user_id", c.userID.String()),
					zap.Error(err))
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(AckMessage{Type: "ack", OK: false, Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case "location_update":
			c.handleLocationUpdate(msg)
		case "ping":
			c.reply(AckMessage{Type: "pong", OK: true})
		default:
			c.reply(AckMessage{Type: "ack", OK: false, Error: "unknown message type"})
		}
	}
}

func (c *Client) handleLocationUpdate(msg InboundMessage) {
	if msg.Location == nil {
		c.reply(AckMessage{Type: "ack", OK: false, Error: "missing location"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	current, err := c.ingestor.Ingest(ctx, c.userID, *msg.Location)
	if err != nil {
		// Stale updates are normal under connection jitter; keep the session.
		if !errors.Is(err, domain.ErrStalePosition) {
			c.logger.Debug("ws ingest rejected",
				zap.String("user_id", c.userID.String()),
				zap.Error(err))
		}
		c.reply(AckMessage{Type: "ack", OK: false, Error: err.Error()})
		return
	}

	c.reply(AckMessage{Type: "ack", OK: true, Current: current})
}

func (c *Client) reply(msg AckMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
