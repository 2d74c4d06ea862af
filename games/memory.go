package games

import (
	"context"
	"fmt"

	"github.com/skif48/wellness-engine/game_config"
)

type Tile struct {
	Symbol   string `json:"-"`
	Revealed bool   `json:"revealed"`
	Matched  bool   `json:"matched"`
}

// MemoryGame is the pair-matching game on a shuffled board of duplicated symbols.
type MemoryGame struct {
	session
	cfg game_config.MemoryConfig

	tiles   []Tile
	faceUp  []int
	turns   int
	matches int
	bonus   int
}

type TileView struct {
	Symbol   string `json:"symbol,omitempty"`
	Revealed bool   `json:"revealed"`
	Matched  bool   `json:"matched"`
}

type MemoryBoard struct {
	Tiles   []TileView `json:"tiles"`
	Turns   int        `json:"turns"`
	Matches int        `json:"matches"`
	Pairs   int        `json:"pairs"`
	Bonus   int        `json:"bonus"`
}

func NewMemoryGame(cfg game_config.MemoryConfig, deps Deps) *MemoryGame {
	g := &MemoryGame{cfg: cfg}
	g.init(KindMemory, deps)
	return g
}

// MemoryBonus is the end-of-game bonus for finishing in the given number of turns.
func MemoryBonus(base, penalty, turns int) int {
	return max(0, base-turns*penalty)
}

// Start deals every symbol twice in a uniformly random order.
func (g *MemoryGame) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.markStarted() {
		return
	}
	g.tiles = make([]Tile, 0, 2*len(g.cfg.Symbols))
	for _, s := range g.cfg.Symbols {
		g.tiles = append(g.tiles, Tile{Symbol: s}, Tile{Symbol: s})
	}
	g.deps.Rand.Shuffle(len(g.tiles), func(i, j int) {
		g.tiles[i], g.tiles[j] = g.tiles[j], g.tiles[i]
	})
	g.status = StatusAwaitingInput
}

// Flip turns one tile face up. While two tiles wait to be resolved the board
// is locked and flips are ignored, as are flips of tiles already showing.
func (g *MemoryGame) Flip(ctx context.Context, idx int) error {
	defer g.deliver(ctx, false)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusNotStarted || g.closed {
		return nil
	}
	if idx < 0 || idx >= len(g.tiles) {
		return fmt.Errorf("%w: tile %d out of range", ErrInvalidMove, idx)
	}
	if g.status != StatusAwaitingInput || len(g.faceUp) >= 2 {
		return nil
	}
	t := &g.tiles[idx]
	if t.Revealed || t.Matched {
		return nil
	}

	t.Revealed = true
	g.faceUp = append(g.faceUp, idx)
	if len(g.faceUp) < 2 {
		return nil
	}

	g.turns++
	g.status = StatusResolving
	a, b := g.faceUp[0], g.faceUp[1]
	if g.tiles[a].Symbol == g.tiles[b].Symbol {
		g.after(g.cfg.MatchDelay.Duration(), func() { g.resolveMatch(a, b) })
	} else {
		g.after(g.cfg.MismatchDelay.Duration(), func() { g.resolveMismatch(a, b) })
	}
	return nil
}

func (g *MemoryGame) resolveMatch(a, b int) {
	g.tiles[a].Matched = true
	g.tiles[b].Matched = true
	g.faceUp = g.faceUp[:0]
	g.matches++
	g.score += g.cfg.MatchScore

	if g.matches < len(g.cfg.Symbols) {
		g.status = StatusAwaitingInput
		return
	}
	g.bonus = MemoryBonus(g.cfg.BonusBase, g.cfg.TurnPenalty, g.turns)
	g.score += g.bonus
	g.finish(StatusWon, g.score/g.cfg.XpDivisor)
}

func (g *MemoryGame) resolveMismatch(a, b int) {
	g.tiles[a].Revealed = false
	g.tiles[b].Revealed = false
	g.faceUp = g.faceUp[:0]
	g.status = StatusAwaitingInput
}

func (g *MemoryGame) Apply(ctx context.Context, m Move) error {
	if m.Tile == nil {
		return fmt.Errorf("%w: tile is required", ErrInvalidMove)
	}
	return g.Flip(ctx, *m.Tile)
}

func (g *MemoryGame) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	views := make([]TileView, len(g.tiles))
	for i, t := range g.tiles {
		views[i] = TileView{Revealed: t.Revealed, Matched: t.Matched}
		if t.Revealed || t.Matched {
			views[i].Symbol = t.Symbol
		}
	}
	return g.snapshot(MemoryBoard{
		Tiles:   views,
		Turns:   g.turns,
		Matches: g.matches,
		Pairs:   len(g.cfg.Symbols),
		Bonus:   g.bonus,
	})
}
