package repositories

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"github.com/skif48/wellness-engine/entities"
)

// TotalXpBoard is the board ranking users by lifetime XP.
const TotalXpBoard = "xp"

type LeaderboardRepo interface {
	// SubmitScore keeps the user's best score on the board and returns it.
	SubmitScore(ctx context.Context, board string, userId string, score int) (int, error)
	GetLeaderboard(ctx context.Context, board string, size int) ([]*entities.LeaderboardScore, error)
	GetPosition(ctx context.Context, board string, userId string) (int, error)
	Purge(ctx context.Context, boards ...string) error
}

type LeaderboardRedisRepo struct {
	c rueidis.Client
}

func NewLeaderboardRepo(c rueidis.Client) LeaderboardRepo {
	return &LeaderboardRedisRepo{c: c}
}

func leaderboardKey(board string) string {
	return fmt.Sprintf("leaderboard:{%s}:data", board)
}

func (l *LeaderboardRedisRepo) SubmitScore(ctx context.Context, board string, userId string, score int) (int, error) {
	key := leaderboardKey(board)
	updateScoreCmd := l.c.B().Zadd().Key(key).Gt().ScoreMember().ScoreMember(float64(score), userId).Build()
	finalScoreCmd := l.c.B().Zscore().Key(key).Member(userId).Build()
	res := l.c.DoMulti(
		ctx,
		l.c.B().Multi().Build(),
		updateScoreCmd,
		finalScoreCmd,
		l.c.B().Exec().Build(),
	)
	for _, r := range res {
		if r.Error() != nil {
			return 0, r.Error()
		}
	}
	execResults, err := res[3].ToArray()
	if err != nil {
		return 0, err
	}
	if len(execResults) < 2 {
		return 0, fmt.Errorf("unexpected number of results from transaction")
	}
	best, err := execResults[1].AsFloat64()
	if err != nil {
		return 0, err
	}
	return int(best), nil
}

func (l *LeaderboardRedisRepo) GetLeaderboard(ctx context.Context, board string, size int) ([]*entities.LeaderboardScore, error) {
	if size <= 0 {
		return nil, nil
	}
	cmd := l.c.B().Zrevrange().Key(leaderboardKey(board)).Start(0).Stop(int64(size - 1)).Withscores().Build()
	scores, err := l.c.Do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, err
	}
	result := make([]*entities.LeaderboardScore, 0, len(scores))
	for i, s := range scores {
		result = append(result, &entities.LeaderboardScore{
			Board:    board,
			UserId:   s.Member,
			Score:    int(s.Score),
			Position: i + 1,
		})
	}
	return result, nil
}

// GetPosition returns the 1-based rank of the user, or 0 when unranked.
func (l *LeaderboardRedisRepo) GetPosition(ctx context.Context, board string, userId string) (int, error) {
	rank, err := l.c.Do(ctx, l.c.B().Zrevrank().Key(leaderboardKey(board)).Member(userId).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

func (l *LeaderboardRedisRepo) Purge(ctx context.Context, boards ...string) error {
	for _, board := range boards {
		if err := l.c.Do(ctx, l.c.B().Del().Key(leaderboardKey(board)).Build()).Error(); err != nil {
			return err
		}
	}
	return nil
}
