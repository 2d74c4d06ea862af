package games

import (
	"context"
	"fmt"
	"slices"

	"github.com/skif48/wellness-engine/game_config"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

var deltas = map[Direction]Point{
	Up:    {0, -1},
	Down:  {0, 1},
	Left:  {-1, 0},
	Right: {1, 0},
}

var opposite = map[Direction]Direction{Up: Down, Down: Up, Left: Right, Right: Left}

// SnakeGame moves on a fixed tick. Eating food grows the snake; hitting a
// wall or its own body ends the game.
type SnakeGame struct {
	session
	cfg game_config.SnakeConfig

	body []Point // head first
	food Point
	// heading is the direction of the last step, next is the queued one.
	heading Direction
	next    Direction
}

type SnakeBoard struct {
	GridSize  int       `json:"grid_size"`
	Body      []Point   `json:"body"`
	Food      Point     `json:"food"`
	Direction Direction `json:"direction"`
}

func NewSnakeGame(cfg game_config.SnakeConfig, deps Deps) *SnakeGame {
	g := &SnakeGame{cfg: cfg}
	g.init(KindSnake, deps)
	return g
}

func (g *SnakeGame) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.markStarted() {
		return
	}
	mid := g.cfg.GridSize / 2
	g.body = []Point{{mid, mid}}
	g.heading, g.next = Right, Right
	g.food = g.spawn()
	g.status = StatusRunning
	g.schedule()
}

func (g *SnakeGame) schedule() {
	g.after(g.cfg.Tick.Duration(), g.step)
}

// spawn picks a uniformly random free cell. The board being full is reported
// as a point outside the grid.
func (g *SnakeGame) spawn() Point {
	free := make([]Point, 0, g.cfg.GridSize*g.cfg.GridSize-len(g.body))
	for y := 0; y < g.cfg.GridSize; y++ {
		for x := 0; x < g.cfg.GridSize; x++ {
			p := Point{x, y}
			if !slices.Contains(g.body, p) {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Point{-1, -1}
	}
	return free[g.deps.Rand.IntN(len(free))]
}

func (g *SnakeGame) step() {
	g.heading = g.next
	d := deltas[g.heading]
	head := Point{g.body[0].X + d.X, g.body[0].Y + d.Y}

	if head.X < 0 || head.X >= g.cfg.GridSize || head.Y < 0 || head.Y >= g.cfg.GridSize || slices.Contains(g.body, head) {
		g.gameOver(StatusLost)
		return
	}

	g.body = append([]Point{head}, g.body...)
	if head == g.food {
		g.score += g.cfg.FoodScore
		g.food = g.spawn()
		if g.food.X < 0 {
			g.gameOver(StatusWon)
			return
		}
	} else {
		g.body = g.body[:len(g.body)-1]
	}
	g.schedule()
}

// gameOver awards score/divisor XP, but only for a non-zero score.
func (g *SnakeGame) gameOver(status Status) {
	if g.score == 0 {
		g.end(status)
		return
	}
	g.finish(status, g.score/g.cfg.XpDivisor)
}

// Steer queues a direction for the next tick. Reversing onto the body is ignored.
func (g *SnakeGame) Steer(ctx context.Context, dir Direction) error {
	if _, ok := deltas[dir]; !ok {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidMove, dir)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if (g.status != StatusRunning && g.status != StatusPaused) || g.closed {
		return nil
	}
	if dir == opposite[g.heading] {
		return nil
	}
	g.next = dir
	return nil
}

func (g *SnakeGame) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != StatusRunning || g.closed {
		return
	}
	g.cancelTimers()
	g.status = StatusPaused
}

func (g *SnakeGame) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != StatusPaused || g.closed {
		return
	}
	g.status = StatusRunning
	g.schedule()
}

func (g *SnakeGame) Apply(ctx context.Context, m Move) error {
	switch m.Action {
	case "pause":
		g.Pause()
		return nil
	case "resume":
		g.Resume()
		return nil
	case "":
		return g.Steer(ctx, Direction(m.Direction))
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMove, m.Action)
	}
}

func (g *SnakeGame) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot(SnakeBoard{
		GridSize:  g.cfg.GridSize,
		Body:      slices.Clone(g.body),
		Food:      g.food,
		Direction: g.next,
	})
}
