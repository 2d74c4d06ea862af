package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

type AuthTokenRepository interface {
	Save(ctx context.Context, token string, userId string, ttl time.Duration) error
	// Lookup returns "" for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type authTokenRepositoryRedis struct {
	c rueidis.Client
}

func NewAuthTokenRepository(c rueidis.Client) AuthTokenRepository {
	return &authTokenRepositoryRedis{c: c}
}

func (a *authTokenRepositoryRedis) key(token string) string {
	return fmt.Sprintf("auth:{%s}", token)
}

func (a *authTokenRepositoryRedis) Save(ctx context.Context, token string, userId string, ttl time.Duration) error {
	cmd := a.c.B().Set().Key(a.key(token)).Value(userId).ExSeconds(int64(ttl.Seconds())).Build()
	return a.c.Do(ctx, cmd).Error()
}

func (a *authTokenRepositoryRedis) Lookup(ctx context.Context, token string) (string, error) {
	userId, err := a.c.Do(ctx, a.c.B().Get().Key(a.key(token)).Build()).ToString()
	if rueidis.IsRedisNil(err) {
		return "", nil
	}
	return userId, err
}

func (a *authTokenRepositoryRedis) Revoke(ctx context.Context, token string) error {
	return a.c.Do(ctx, a.c.B().Del().Key(a.key(token)).Build()).Error()
}
