// README: Driver handlers: available rides, current ride, stats.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/stats"
)

type DriverHandler struct {
	rides *ride.Service
	stats *stats.Service
}

func NewDriverHandler(rides *ride.Service, statsSvc *stats.Service) *DriverHandler {
	return &DriverHandler{rides: rides, stats: statsSvc}
}

func (h *DriverHandler) Available(c *gin.Context) {
	p, _ := identity.FromContext(c)
	rides, err := h.rides.ListAvailable(c.Request.Context(), p)
	if err != nil {
		writeRideError(c, err)
		return
	}
	if rides == nil {
		rides = []*ride.Ride{}
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (h *DriverHandler) Current(c *gin.Context) {
	p, _ := identity.FromContext(c)
	r, err := h.rides.Current(c.Request.Context(), p)
	if err != nil {
		writeRideError(c, err)
		return
	}
	if r == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No current ride assigned", "ride": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r})
}

func (h *DriverHandler) Stats(c *gin.Context) {
	p, _ := identity.FromContext(c)
	out, err := h.stats.DriverStats(c.Request.Context(), p)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
