// README: Admin read-only listings.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/account"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/pagination"
)

type AdminHandler struct {
	rides    *ride.Service
	accounts *account.Service
}

func NewAdminHandler(rides *ride.Service, accounts *account.Service) *AdminHandler {
	return &AdminHandler{rides: rides, accounts: accounts}
}

func (h *AdminHandler) Students(c *gin.Context) {
	p, _ := identity.FromContext(c)
	users, err := h.accounts.ListStudents(c.Request.Context(), p)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	if users == nil {
		users = []*account.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) Drivers(c *gin.Context) {
	p, _ := identity.FromContext(c)
	users, err := h.accounts.ListDrivers(c.Request.Context(), p)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	if users == nil {
		users = []*account.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) Rides(c *gin.Context) {
	p, _ := identity.FromContext(c)
	page := pagination.Parse(c)
	rides, total, err := h.rides.AllRides(c.Request.Context(), p, page.Limit, page.Offset())
	if err != nil {
		writeRideError(c, err)
		return
	}
	if rides == nil {
		rides = []*ride.Ride{}
	}
	c.JSON(http.StatusOK, pagination.Wrap(page, total, rides))
}
