package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nwesha/Zcoder/internal/service"
)

// handleServiceError translates service sentinels into HTTP responses. Every
// handler funnels its service errors through here so the mapping lives in
// one place.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrProblemNotFound),
		errors.Is(err, service.ErrBookmarkNotFound),
		errors.Is(err, service.ErrNotParticipant):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyBookmarked),
		errors.Is(err, service.ErrRegistrationFailed):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
