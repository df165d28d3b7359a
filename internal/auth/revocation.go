package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore tracks revoked token IDs in Redis. Entries expire with the
// token itself, so the set never grows past one token lifetime.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore constructs a RevocationStore.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks a token ID as revoked until its natural expiry.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return errors.New("auth: token id required")
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}
	return s.client.Set(ctx, s.key(tokenID), "1", ttl).Err()
}

// IsRevoked reports whether the token ID was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	err := s.client.Get(ctx, s.key(tokenID)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *RevocationStore) key(tokenID string) string {
	return "revoked:" + tokenID
}
