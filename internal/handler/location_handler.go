package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"location-service/internal/domain"
	"location-service/internal/middleware"
	"location-service/internal/response"
	"location-service/internal/service"
)

type LocationHandler struct {
	presenceService *service.PresenceService
}

func NewLocationHandler(presenceService *service.PresenceService) *LocationHandler {
	return &LocationHandler{presenceService: presenceService}
}

// UpdateLocation handles POST /update
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	var req domain.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	current, err := h.presenceService.Ingest(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, current)
}

// GetCurrent handles GET /current for the authenticated user
func (h *LocationHandler) GetCurrent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	current, err := h.presenceService.GetVisibleCurrent(c.Request.Context(), userID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, current)
}

// GetUserCurrent handles GET /current/:userId for another user's location
func (h *LocationHandler) GetUserCurrent(c *gin.Context) {
	requesterID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid user ID")
		return
	}

	current, err := h.presenceService.GetVisibleCurrent(c.Request.Context(), ownerID, requesterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, current)
}

// GetHistory handles GET /history for the authenticated user
func (h *LocationHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}
	h.history(c, userID, userID)
}

// GetUserHistory handles GET /history/:userId for another user's history
func (h *LocationHandler) GetUserHistory(c *gin.Context) {
	requesterID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	ownerID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid user ID")
		return
	}
	h.history(c, ownerID, requesterID)
}

func (h *LocationHandler) history(c *gin.Context, ownerID, requesterID uuid.UUID) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	entries, err := h.presenceService.GetVisibleHistory(c.Request.Context(), ownerID, requesterID, from, to, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{
		"userId":  ownerID.String(),
		"entries": entries,
		"count":   len(entries),
	})
}

// GetNearby handles GET /nearby
func (h *LocationHandler) GetNearby(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	radius := 0.0
	if raw := c.Query("radiusMeters"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid radius")
			return
		}
		radius = r
	}
	limit := parseIntQuery(c, "limit", 0)

	users, err := h.presenceService.FindNearbyVisible(c.Request.Context(), userID, radius, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetStats handles GET /stats
func (h *LocationHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	days := parseIntQuery(c, "days", 0)

	stats, err := h.presenceService.Stats(c.Request.Context(), userID, days)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, stats)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// parseTimeQuery reads an RFC3339 query parameter. Returns false after
// writing an error response if the value is present but malformed.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid "+name+" timestamp, expected RFC3339")
		return nil, false
	}
	return &t, true
}
