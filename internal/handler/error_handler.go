package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"location-service/internal/domain"
	"location-service/internal/response"
)

// handleServiceError maps domain errors to HTTP responses
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrInvalidPosition):
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, err.Error())
	case errors.Is(err, domain.ErrStalePosition):
		response.SendError(c, http.StatusConflict, response.ErrCodeStalePosition, err.Error())
	case errors.Is(err, domain.ErrGeofenceAreaTooLarge):
		response.SendError(c, http.StatusBadRequest, response.ErrCodeAreaTooLarge, err.Error())
	case errors.Is(err, domain.ErrShareNotFound):
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Share not found")
	case errors.Is(err, domain.ErrNotFound):
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		response.SendError(c, http.StatusForbidden, response.ErrCodeForbidden, "Access denied")
	default:
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			response.SendError(c, http.StatusBadRequest, appErr.Code, appErr.Message)
			return
		}
		response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
	}
}
