package repositories

import (
	"context"

	"github.com/redis/rueidis"
)

// UserXpRepository tracks lifetime XP on the total-XP leaderboard.
type UserXpRepository interface {
	IncrementXp(ctx context.Context, userId string, xp int) (int, error)
	GetXp(ctx context.Context, userId string) (int, error)
	GetManyUsersXp(ctx context.Context, userIds []string) (map[string]int, error)
}

type userXpRepositoryRedis struct {
	c rueidis.Client
}

func NewUserXpRepository(c rueidis.Client) UserXpRepository {
	return &userXpRepositoryRedis{c: c}
}

func (u *userXpRepositoryRedis) IncrementXp(ctx context.Context, userId string, xp int) (int, error) {
	cmd := u.c.B().Zincrby().Key(leaderboardKey(TotalXpBoard)).Increment(float64(xp)).Member(userId).Build()
	total, err := u.c.Do(ctx, cmd).AsFloat64()
	return int(total), err
}

func (u *userXpRepositoryRedis) GetXp(ctx context.Context, userId string) (int, error) {
	xp, err := u.c.Do(ctx, u.c.B().Zscore().Key(leaderboardKey(TotalXpBoard)).Member(userId).Build()).AsFloat64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}
	return int(xp), err
}

// GetManyUsersXp omits users that never earned XP.
func (u *userXpRepositoryRedis) GetManyUsersXp(ctx context.Context, userIds []string) (map[string]int, error) {
	xp := make(map[string]int, len(userIds))
	if len(userIds) == 0 {
		return xp, nil
	}
	cmd := u.c.B().Zmscore().Key(leaderboardKey(TotalXpBoard)).Member(userIds...).Build()
	scores, err := u.c.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, err
	}
	for i, s := range scores {
		if i >= len(userIds) {
			break
		}
		v, err := s.AsFloat64()
		if rueidis.IsRedisNil(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		xp[userIds[i]] = int(v)
	}
	return xp, nil
}
