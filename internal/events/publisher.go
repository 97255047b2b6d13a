// README: Publishes ride lifecycle events to the rides topic exchange.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Web-dev-ENT-302/transport-backend/internal/infra"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

// rideEvent is the wire shape consumed off the exchange.
type rideEvent struct {
	RideID    types.ID    `json:"rideId"`
	From      ride.Status `json:"from,omitempty"`
	To        ride.Status `json:"to"`
	ActorID   types.ID    `json:"actorId"`
	ActorRole types.Role  `json:"actorRole"`
	At        time.Time   `json:"at"`
}

// Publisher implements ride.EventPublisher over RabbitMQ. Routing keys
// follow ride.status.<status>, e.g. ride.status.accepted.
type Publisher struct {
	client *infra.RabbitClient
}

func NewPublisher(client *infra.RabbitClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, e ride.Event) error {
	body, err := json.Marshal(rideEvent{
		RideID:    e.RideID,
		From:      e.From,
		To:        e.To,
		ActorID:   e.ActorID,
		ActorRole: e.ActorRole,
		At:        e.CreatedAt,
	})
	if err != nil {
		return err
	}
	key := "ride.status." + strings.ToLower(string(e.To))
	return p.client.Publish(ctx, key, body)
}
