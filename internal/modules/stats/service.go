// README: Driver earnings/distance rollups over completed rides.
package stats

import (
	"context"
	"time"

	"github.com/Web-dev-ENT-302/transport-backend/internal/clock"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// RideReader is the slice of the ride store this module reads from.
type RideReader interface {
	CompletedSince(ctx context.Context, driverID types.ID, since time.Time) (ride.Aggregate, error)
}

// DriverStats mirrors the shape the mobile clients already consume.
type DriverStats struct {
	Today struct {
		Rides      int     `json:"rides"`
		Earning    float64 `json:"earning"`
		DistanceKm float64 `json:"distanceKm"`
	} `json:"today"`
	AllTime struct {
		CompletedRides  int     `json:"completedRides"`
		TotalDistanceKm float64 `json:"totalDistanceKm"`
	} `json:"allTime"`
	Week struct {
		TotalBalance float64 `json:"totalBalance"`
	} `json:"week"`
}

type Service struct {
	rides RideReader
	now   clock.Now
}

func NewService(rides RideReader) *Service {
	return &Service{rides: rides, now: time.Now}
}

func (s *Service) SetClock(now clock.Now) { s.now = now }

// DriverStats aggregates the calling driver's completed rides into
// today / this-week / all-time buckets. Zero rides means zeros, not an
// error. Pure read; snapshot staleness is fine.
func (s *Service) DriverStats(ctx context.Context, p types.Principal) (*DriverStats, error) {
	if !p.IsDriver() {
		return nil, ride.ErrForbidden
	}

	now := s.now()

	today, err := s.rides.CompletedSince(ctx, p.ID, clock.StartOfDay(now))
	if err != nil {
		return nil, ride.ErrUnavailable
	}
	week, err := s.rides.CompletedSince(ctx, p.ID, clock.StartOfWeek(now))
	if err != nil {
		return nil, ride.ErrUnavailable
	}
	allTime, err := s.rides.CompletedSince(ctx, p.ID, time.Time{})
	if err != nil {
		return nil, ride.ErrUnavailable
	}

	var out DriverStats
	out.Today.Rides = today.Rides
	out.Today.Earning = today.PriceNaira
	out.Today.DistanceKm = today.DistanceKm
	out.AllTime.CompletedRides = allTime.Rides
	out.AllTime.TotalDistanceKm = allTime.DistanceKm
	out.Week.TotalBalance = week.PriceNaira
	return &out, nil
}
