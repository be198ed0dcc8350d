package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts in Redis as JSON documents keyed by owner: a user
// identifier for authenticated customers, a guest token otherwise. Writes for
// one owner are expected to be serialized by the caller; totals are always
// recomputed server-side from the stored items, never trusted from a client.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewStore constructs a cart store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl}
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func cartKey(owner string) string {
	return "cart:" + owner
}

// Load returns the stored cart for the owner, or ok=false when none exists.
func (s *Store) Load(ctx context.Context, owner string) (Cart, bool, error) {
	if s == nil || s.Client == nil {
		return Cart{}, false, errors.New("cart store not configured")
	}
	data, err := s.Client.Get(ctx, cartKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, false, nil
		}
		return Cart{}, false, fmt.Errorf("load cart %s: %w", owner, err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, false, fmt.Errorf("decode cart %s: %w", owner, err)
	}
	return c, true, nil
}

// Save stores the cart and refreshes its expiry.
func (s *Store) Save(ctx context.Context, owner string, c Cart) error {
	if s == nil || s.Client == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", owner, err)
	}
	if err := s.Client.Set(ctx, cartKey(owner), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", owner, err)
	}
	return nil
}

// Delete removes the stored cart for the owner.
func (s *Store) Delete(ctx context.Context, owner string) error {
	if s == nil || s.Client == nil {
		return errors.New("cart store not configured")
	}
	if err := s.Client.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", owner, err)
	}
	return nil
}
