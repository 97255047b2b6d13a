// README: Ride handlers: request, accept, reject, status override, cancel, reads.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/pagination"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type requestRideReq struct {
	Pickup       string   `json:"pickup"`
	Destination  string   `json:"destination"`
	DistanceKm   *float64 `json:"distanceKm"`
	DurationMins *int     `json:"durationMins"`
	PriceNaira   *float64 `json:"priceNaira"`
}

func (h *RideHandler) Request(c *gin.Context) {
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, _ := identity.FromContext(c)
	r, err := h.rides.Request(c.Request.Context(), p, ride.RequestCommand{
		Pickup:       req.Pickup,
		Destination:  req.Destination,
		DistanceKm:   req.DistanceKm,
		DurationMins: req.DurationMins,
		PriceNaira:   req.PriceNaira,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Ride requested successfully", "ride": r})
}

type rideIDReq struct {
	RideID types.ID `json:"rideId"`
}

func (h *RideHandler) Accept(c *gin.Context) {
	var req rideIDReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RideID == 0 {
		writeError(c, http.StatusBadRequest, "rideId is required")
		return
	}
	p, _ := identity.FromContext(c)
	r, err := h.rides.Accept(c.Request.Context(), p, ride.AcceptCommand{RideID: req.RideID})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride accepted", "ride": r})
}

func (h *RideHandler) Reject(c *gin.Context) {
	var req rideIDReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RideID == 0 {
		writeError(c, http.StatusBadRequest, "rideId is required")
		return
	}
	p, _ := identity.FromContext(c)
	r, err := h.rides.Reject(c.Request.Context(), p, ride.RejectCommand{RideID: req.RideID})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride rejected, available for other drivers", "ride": r})
}

func (h *RideHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := h.rides.Get(c.Request.Context(), id)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type updateStatusReq struct {
	Status ride.Status `json:"status"`
}

func (h *RideHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, _ := identity.FromContext(c)
	r, err := h.rides.Override(c.Request.Context(), p, ride.OverrideCommand{RideID: id, Target: req.Status})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride status updated", "ride": r})
}

func (h *RideHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, _ := identity.FromContext(c)
	res, err := h.rides.Cancel(c.Request.Context(), p, ride.CancelCommand{RideID: id})
	if err != nil {
		writeRideError(c, err)
		return
	}
	body := gin.H{"message": "Ride cancelled", "ride": res.Ride}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

// History lists the calling student's rides, newest first, paginated.
func (h *RideHandler) History(c *gin.Context) {
	p, _ := identity.FromContext(c)
	page := pagination.Parse(c)
	rides, total, err := h.rides.History(c.Request.Context(), p, page.Limit, page.Offset())
	if err != nil {
		writeRideError(c, err)
		return
	}
	if rides == nil {
		rides = []*ride.Ride{}
	}
	c.JSON(http.StatusOK, pagination.Wrap(page, total, rides))
}
