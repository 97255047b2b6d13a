// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Web-dev-ENT-302/transport-backend/internal/http/middleware"
	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/account"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/stats"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

type ServerDeps struct {
	Rides    *ride.Service
	Stats    *stats.Service
	Accounts *account.Service
	Identity *identity.Manager
	Log      logrus.FieldLogger
}

type Server struct {
	rides    *ride.Service
	stats    *stats.Service
	accounts *account.Service
	identity *identity.Manager
	log      logrus.FieldLogger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		rides:    deps.Rides,
		stats:    deps.Stats,
		accounts: deps.Accounts,
		identity: deps.Identity,
		log:      log,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(s.log))

	rideHandler := NewRideHandler(s.rides)
	driverHandler := NewDriverHandler(s.rides, s.stats)
	adminHandler := NewAdminHandler(s.rides, s.accounts)
	accountHandler := NewAccountHandler(s.accounts)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.POST("/auth/register", accountHandler.Register)
	r.POST("/auth/login", accountHandler.Login)

	authed := r.Group("/", identity.Authenticate(s.identity))

	authed.GET("/users/me", accountHandler.Me)
	authed.PUT("/users/me", accountHandler.UpdateMe)

	rides := authed.Group("/rides")
	rides.POST("/request", identity.RequireRoles(types.RoleStudent), rideHandler.Request)
	rides.POST("/accept", identity.RequireRoles(types.RoleDriver), rideHandler.Accept)
	rides.POST("/reject", identity.RequireRoles(types.RoleDriver), rideHandler.Reject)
	rides.GET("", identity.RequireRoles(types.RoleStudent), rideHandler.History)
	rides.GET("/:id", rideHandler.Get)
	rides.PUT("/:id/status", rideHandler.UpdateStatus)
	rides.POST("/:id/cancel", identity.RequireRoles(types.RoleStudent), rideHandler.Cancel)

	driver := authed.Group("/driver", identity.RequireRoles(types.RoleDriver))
	driver.GET("/rides/available", driverHandler.Available)
	driver.GET("/rides/current", driverHandler.Current)
	driver.GET("/stats", driverHandler.Stats)

	admin := authed.Group("/admin", identity.RequireRoles(types.RoleAdmin))
	admin.GET("/students", adminHandler.Students)
	admin.GET("/drivers", adminHandler.Drivers)
	admin.GET("/rides", adminHandler.Rides)

	return r
}
