package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetTokenTTL = 30 * time.Minute

var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// ResetTokenStore issues and redeems single-use password-reset tokens backed
// by redis with a TTL.
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Issue creates an opaque token mapped to the user id. Any previous token
// for the same user stays valid until it expires.
func (s *ResetTokenStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	key := resetKey(token)

	if err := s.client.Set(ctx, key, userID.String(), resetTokenTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem looks up the token, deletes it, and returns the user it belongs to.
// A token can only be redeemed once.
func (s *ResetTokenStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	key := resetKey(token)

	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrResetTokenInvalid
		}
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func resetKey(token string) string {
	return fmt.Sprintf("password_reset:%s", token)
}
