package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// AwardLedger remembers which session awards were already applied.
type AwardLedger interface {
	// Claim reports false when the session was claimed before.
	Claim(ctx context.Context, sessionId string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, sessionId string) error
}

type awardLedgerRedis struct {
	c rueidis.Client
}

func NewAwardLedger(c rueidis.Client) AwardLedger {
	return &awardLedgerRedis{c: c}
}

func (a *awardLedgerRedis) key(sessionId string) string {
	return fmt.Sprintf("award:{%s}", sessionId)
}

func (a *awardLedgerRedis) Claim(ctx context.Context, sessionId string, ttl time.Duration) (bool, error) {
	cmd := a.c.B().Set().Key(a.key(sessionId)).Value("1").Nx().ExSeconds(int64(ttl.Seconds())).Build()
	err := a.c.Do(ctx, cmd).Error()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *awardLedgerRedis) Release(ctx context.Context, sessionId string) error {
	return a.c.Do(ctx, a.c.B().Del().Key(a.key(sessionId)).Build()).Error()
}
