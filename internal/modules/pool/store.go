// README: Open-ride pool backed by a Redis set.
package pool

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

const openRidesKey = "rides:open"

// Store mirrors the set of PENDING ride ids in Redis so driver clients
// can poll cheaply. Postgres remains the source of truth; entries here
// may be momentarily stale, which callers already tolerate.
type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Add(ctx context.Context, id types.ID) error {
	return s.redis.SAdd(ctx, openRidesKey, strconv.FormatInt(int64(id), 10)).Err()
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.SRem(ctx, openRidesKey, strconv.FormatInt(int64(id), 10)).Err()
}

// IDs returns the ids currently marked open.
func (s *Store) IDs(ctx context.Context) ([]types.ID, error) {
	members, err := s.redis.SMembers(ctx, openRidesKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, 0, len(members))
	for _, m := range members {
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, types.ID(n))
	}
	return ids, nil
}
