package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service sentinel to the HTTP status the API commits to.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrBadRequest),
		errors.Is(err, common.ErrInvalidVerificationCode),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrReissueTooEarly):
		return http.StatusConflict
	case errors.Is(err, common.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// never leak internals to the client
		msg = common.ErrInternal.Error()
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
