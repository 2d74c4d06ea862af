package services

import (
	"context"
	"errors"

	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/repositories"
)

var ErrUnknownLeaderboard = errors.New("unknown leaderboard")

type LeaderboardService struct {
	leaderboardRepo repositories.LeaderboardRepo
	userProfileRepo repositories.UserProfileRepository
	userXpRepo      repositories.UserXpRepository
	size            int
}

func NewLeaderboardService(
	ac *app_config.AppConfig,
	leaderboardRepo repositories.LeaderboardRepo,
	userProfileRepo repositories.UserProfileRepository,
	userXpRepo repositories.UserXpRepository,
) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		userProfileRepo: userProfileRepo,
		userXpRepo:      userXpRepo,
		size:            ac.LeaderboardSize,
	}
}

// Boards lists every leaderboard: one per game plus total XP.
func Boards() []string {
	boards := []string{repositories.TotalXpBoard}
	for _, k := range games.Kinds {
		boards = append(boards, string(k))
	}
	return boards
}

func (l *LeaderboardService) GetAllLeaderboards(ctx context.Context) (map[string][]*entities.LeaderboardScoreFull, error) {
	boards := Boards()
	leaderboardScores := make(map[string][]*entities.LeaderboardScoreFull, len(boards))
	for _, board := range boards {
		scores, err := l.GetLeaderboard(ctx, board)
		if err != nil {
			return nil, err
		}
		leaderboardScores[board] = scores
	}
	return leaderboardScores, nil
}

func validBoard(board string) error {
	if board == repositories.TotalXpBoard {
		return nil
	}
	if _, err := games.ParseKind(board); err != nil {
		return ErrUnknownLeaderboard
	}
	return nil
}

func (l *LeaderboardService) GetLeaderboard(ctx context.Context, board string) ([]*entities.LeaderboardScoreFull, error) {
	if err := validBoard(board); err != nil {
		return nil, err
	}
	leaderboard, err := l.leaderboardRepo.GetLeaderboard(ctx, board, l.size)
	if err != nil {
		return nil, err
	}
	userIds := make([]string, 0, len(leaderboard))
	for _, score := range leaderboard {
		userIds = append(userIds, score.UserId)
	}
	userProfiles, err := l.userProfileRepo.GetManyUserProfiles(ctx, userIds)
	if err != nil {
		return nil, err
	}

	userXps, err := l.userXpRepo.GetManyUsersXp(ctx, userIds)
	if err != nil {
		return nil, err
	}

	userIdToProfile := make(map[string]*entities.UserProfile, len(userProfiles))
	for _, profile := range userProfiles {
		userIdToProfile[profile.Id] = profile
	}

	fullScores := make([]*entities.LeaderboardScoreFull, 0, len(leaderboard))
	for _, score := range leaderboard {
		if profile, exists := userIdToProfile[score.UserId]; exists {
			fullScores = append(fullScores, &entities.LeaderboardScoreFull{
				LeaderboardScore: *score,
				Name:             profile.Name,
				Avatar:           profile.Avatar,
				Level:            profile.Level,
				TotalXp:          userXps[score.UserId],
			})
		}
	}
	return fullScores, nil
}

// GetStanding returns the user's 1-based position on the board, 0 when unranked.
func (l *LeaderboardService) GetStanding(ctx context.Context, board string, userId string) (*entities.Standing, error) {
	if err := validBoard(board); err != nil {
		return nil, err
	}
	position, err := l.leaderboardRepo.GetPosition(ctx, board, userId)
	if err != nil {
		return nil, err
	}
	totalXp, err := l.userXpRepo.GetXp(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &entities.Standing{Board: board, UserId: userId, Position: position, TotalXp: totalXp}, nil
}

func (l *LeaderboardService) Purge(ctx context.Context) error {
	return l.leaderboardRepo.Purge(ctx, Boards()...)
}
