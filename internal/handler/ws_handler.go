package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"location-service/internal/middleware"
	"location-service/internal/response"
	ws "location-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WSHandler struct {
	hub       *ws.Hub
	ingestor  ws.LocationIngestor
	validator middleware.TokenValidator
	logger    *zap.Logger
}

func NewWSHandler(hub *ws.Hub, ingestor ws.LocationIngestor, validator middleware.TokenValidator, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		ingestor:  ingestor,
		validator: validator,
		logger:    logger,
	}
}

// HandleWebSocket handles GET /ws. Browsers cannot set headers on WebSocket
// requests, so the token is passed as a query parameter.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Token required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		h.logger.Warn("WebSocket token rejected", zap.Error(err))
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, userID, h.ingestor, h.logger)
	client.Run()
}
