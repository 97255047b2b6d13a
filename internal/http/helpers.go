// README: JSON helpers mapping module errors onto HTTP status codes.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/account"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeRideError translates the engine's taxonomy. Callers only ever
// see the failure kind and a readable message.
func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrConflict), errors.Is(err, ride.ErrAlreadyTerminal):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrQuotaExceeded):
		writeError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ride.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput), errors.Is(err, account.ErrEmailTaken):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, account.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, account.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func parseID(c *gin.Context, name string) (types.ID, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return 0, false
	}
	return types.ID(n), true
}
