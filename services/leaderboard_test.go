package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardJoinsProfiles(t *testing.T) {
	profiles := newFakeProfiles(
		&entities.UserProfile{Id: "user-1", Name: "Ada", Avatar: "a.svg", Level: 3},
		&entities.UserProfile{Id: "user-2", Name: "Bob", Avatar: "b.svg", Level: 1},
	)
	boards := &fakeLeaderboards{}
	ctx := context.Background()
	_, _ = boards.SubmitScore(ctx, "memory", "user-1", 90)
	_, _ = boards.SubmitScore(ctx, "memory", "user-2", 120)
	_, _ = boards.SubmitScore(ctx, "memory", "deleted-user", 500)
	_, _ = boards.SubmitScore(ctx, "memory", "user-1", 10)

	xp := &fakeXp{}
	_, _ = xp.IncrementXp(ctx, "user-1", 340)

	ls := NewLeaderboardService(&app_config.AppConfig{LeaderboardSize: 10}, boards, profiles, xp)
	got, err := ls.GetLeaderboard(ctx, "memory")
	require.NoError(t, err)

	want := []*entities.LeaderboardScoreFull{
		{LeaderboardScore: entities.LeaderboardScore{Board: "memory", UserId: "user-2", Score: 120, Position: 2}, Name: "Bob", Avatar: "b.svg", Level: 1},
		{LeaderboardScore: entities.LeaderboardScore{Board: "memory", UserId: "user-1", Score: 90, Position: 3}, Name: "Ada", Avatar: "a.svg", Level: 3, TotalXp: 340},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaderboard mismatch (-want +got):\n%s", diff)
	}
}

func TestLeaderboardUnknownBoard(t *testing.T) {
	ls := NewLeaderboardService(&app_config.AppConfig{LeaderboardSize: 10}, &fakeLeaderboards{}, newFakeProfiles(), &fakeXp{})

	_, err := ls.GetLeaderboard(context.Background(), "chess")
	require.ErrorIs(t, err, ErrUnknownLeaderboard)

	scores, err := ls.GetLeaderboard(context.Background(), "xp")
	require.NoError(t, err)
	require.Empty(t, scores)
}

func TestLeaderboardsCoverEveryGame(t *testing.T) {
	require.ElementsMatch(t, []string{"xp", "sequence", "memory", "emotions", "snake"}, Boards())
}

func TestLeaderboardStanding(t *testing.T) {
	ctx := context.Background()
	boards := &fakeLeaderboards{}
	_, _ = boards.SubmitScore(ctx, "snake", "user-1", 40)
	_, _ = boards.SubmitScore(ctx, "snake", "user-2", 70)
	xp := &fakeXp{}
	_, _ = xp.IncrementXp(ctx, "user-1", 125)
	ls := NewLeaderboardService(&app_config.AppConfig{LeaderboardSize: 10}, boards, newFakeProfiles(), xp)

	standing, err := ls.GetStanding(ctx, "snake", "user-1")
	require.NoError(t, err)
	require.Equal(t, &entities.Standing{Board: "snake", UserId: "user-1", Position: 2, TotalXp: 125}, standing)

	standing, err = ls.GetStanding(ctx, "snake", "user-3")
	require.NoError(t, err)
	require.Zero(t, standing.Position)

	_, err = ls.GetStanding(ctx, "chess", "user-1")
	require.ErrorIs(t, err, ErrUnknownLeaderboard)
}
