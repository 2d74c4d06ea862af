package games

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tick() time.Duration {
	return testConfig.Snake.Tick.Duration()
}

// free cells are enumerated row by row, so index n is (n%15, n/15) on an empty board
func TestSnakeEatsAndGrows(t *testing.T) {
	ctx := context.Background()
	// food at (9,7): index 7*15+9, minus the head cell at (7,7) that precedes it
	deps, clk, _ := testDeps(&scriptedRand{ints: []int{7*15 + 8}})
	g := NewSnakeGame(testConfig.Snake, deps)
	g.Start(ctx)

	board := g.Snapshot().Board.(SnakeBoard)
	require.Equal(t, Point{9, 7}, board.Food)
	require.Equal(t, []Point{{7, 7}}, board.Body)

	clk.Advance(2 * tick())
	snap := g.Snapshot()
	board = snap.Board.(SnakeBoard)
	assert.Equal(t, 10, snap.Score)
	assert.Equal(t, []Point{{9, 7}, {8, 7}}, board.Body)
	assert.Equal(t, StatusRunning, snap.Status)
}

func TestSnakeIgnoresReversal(t *testing.T) {
	ctx := context.Background()
	deps, clk, _ := testDeps(&scriptedRand{})
	g := NewSnakeGame(testConfig.Snake, deps)
	g.Start(ctx)

	require.NoError(t, g.Steer(ctx, Left))
	clk.Advance(tick())
	assert.Equal(t, []Point{{8, 7}}, g.Snapshot().Board.(SnakeBoard).Body)

	require.NoError(t, g.Steer(ctx, Up))
	// a second turn before the tick cannot fold back onto the body
	require.NoError(t, g.Steer(ctx, Left))
	clk.Advance(tick())
	assert.Equal(t, []Point{{8, 6}}, g.Snapshot().Board.(SnakeBoard).Body)

	require.ErrorIs(t, g.Steer(ctx, "sideways"), ErrInvalidMove)
}

func TestSnakeWallWithoutScoreGivesNoAward(t *testing.T) {
	ctx := context.Background()
	deps, clk, aw := testDeps(&scriptedRand{})
	g := NewSnakeGame(testConfig.Snake, deps)
	g.Start(ctx)

	clk.Advance(10 * tick())
	assert.Equal(t, StatusLost, g.Snapshot().Status)
	assert.Equal(t, 0, clk.Pending())
	assert.Empty(t, aw.calls())
	assert.ErrorIs(t, g.RetryAward(ctx), ErrNoAward)
}

func TestSnakeWallAfterScoringAwardsHalf(t *testing.T) {
	ctx := context.Background()
	deps, clk, aw := testDeps(&scriptedRand{ints: []int{7*15 + 8}})
	g := NewSnakeGame(testConfig.Snake, deps)
	g.Start(ctx)

	clk.Advance(time.Minute)
	snap := g.Snapshot()
	require.Equal(t, StatusLost, snap.Status)
	assert.Equal(t, 10, snap.Score)
	require.Len(t, aw.calls(), 1)
	assert.Equal(t, 5, aw.calls()[0].Xp)
}

func TestSnakePauseStopsTicks(t *testing.T) {
	ctx := context.Background()
	deps, clk, _ := testDeps(&scriptedRand{})
	g := NewSnakeGame(testConfig.Snake, deps)
	g.Start(ctx)

	require.NoError(t, g.Apply(ctx, Move{Action: "pause"}))
	clk.Advance(time.Minute)
	snap := g.Snapshot()
	assert.Equal(t, StatusPaused, snap.Status)
	assert.Equal(t, []Point{{7, 7}}, snap.Board.(SnakeBoard).Body)

	require.NoError(t, g.Apply(ctx, Move{Action: "resume"}))
	clk.Advance(tick())
	assert.Equal(t, []Point{{8, 7}}, g.Snapshot().Board.(SnakeBoard).Body)

	require.ErrorIs(t, g.Apply(ctx, Move{Action: "jump"}), ErrInvalidMove)
}
