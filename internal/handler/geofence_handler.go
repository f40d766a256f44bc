package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"location-service/internal/domain"
	"location-service/internal/middleware"
	"location-service/internal/response"
	"location-service/internal/service"
)

type GeofenceHandler struct {
	geofenceService *service.GeofenceService
}

func NewGeofenceHandler(geofenceService *service.GeofenceService) *GeofenceHandler {
	return &GeofenceHandler{geofenceService: geofenceService}
}

// CreateGeofence handles POST /geofences
func (h *GeofenceHandler) CreateGeofence(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	var req domain.CreateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	fence, err := h.geofenceService.Create(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, fence)
}

// ListGeofences handles GET /geofences
func (h *GeofenceHandler) ListGeofences(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	fences, err := h.geofenceService.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{
		"geofences": fences,
		"count":     len(fences),
	})
}

// UpdateGeofence handles PUT /geofences/:fenceId
func (h *GeofenceHandler) UpdateGeofence(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	fenceID, err := uuid.Parse(c.Param("fenceId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid geofence ID")
		return
	}

	var req domain.UpdateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
		return
	}

	fence, err := h.geofenceService.Update(c.Request.Context(), userID, fenceID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, fence)
}

// DeleteGeofence handles DELETE /geofences/:fenceId
func (h *GeofenceHandler) DeleteGeofence(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	fenceID, err := uuid.Parse(c.Param("fenceId"))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid geofence ID")
		return
	}

	if err := h.geofenceService.Delete(c.Request.Context(), userID, fenceID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// ListGeofenceEvents handles GET /geofences/events
func (h *GeofenceHandler) ListGeofenceEvents(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return
	}

	var fenceID *uuid.UUID
	if raw := c.Query("fenceId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid geofence ID")
			return
		}
		fenceID = &id
	}

	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 100)

	events, err := h.geofenceService.ListEvents(c.Request.Context(), userID, fenceID, from, to, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
