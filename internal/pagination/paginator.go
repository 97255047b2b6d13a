// README: Query-param pagination and the list response envelope.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Page holds the requested window.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// Parse reads `page` and `limit` query params with defaults 1 and 10.
// Invalid or non-positive values fall back to the defaults; limit is
// capped so a client cannot request the whole table.
func Parse(c *gin.Context) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Envelope is the history-style list response shape.
type Envelope struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalRides int `json:"totalRides"`
	Rides      any `json:"rides"`
}

// Wrap builds the envelope for a page of rides.
func Wrap(p Page, total int, rides any) Envelope {
	totalPages := (total + p.Limit - 1) / p.Limit
	return Envelope{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
		TotalRides: total,
		Rides:      rides,
	}
}
