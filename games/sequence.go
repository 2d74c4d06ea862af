package games

import (
	"context"
	"fmt"
	"slices"

	"github.com/skif48/wellness-engine/game_config"
)

// SequenceGame is the colour-sequence recall game. The target grows by one
// random symbol per round and is replayed as timed pulses before the player
// may repeat it.
type SequenceGame struct {
	session
	cfg game_config.SequenceConfig

	sequence []string
	entered  int
	round    int
	lit      string
}

type SequenceBoard struct {
	Round    int      `json:"round"`
	Length   int      `json:"length"`
	Entered  int      `json:"entered"`
	Lit      string   `json:"lit,omitempty"`
	Alphabet []string `json:"alphabet"`
	// Sequence is only revealed once the game is over.
	Sequence []string `json:"sequence,omitempty"`
}

func NewSequenceGame(cfg game_config.SequenceConfig, deps Deps) *SequenceGame {
	g := &SequenceGame{cfg: cfg}
	g.init(KindSequence, deps)
	return g
}

func (g *SequenceGame) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.markStarted() {
		return
	}
	g.sequence = []string{g.draw()}
	g.round = 1
	g.present()
}

func (g *SequenceGame) draw() string {
	return g.cfg.Alphabet[g.deps.Rand.IntN(len(g.cfg.Alphabet))]
}

// present replays the whole sequence, one pause and one pulse per symbol.
func (g *SequenceGame) present() {
	g.status = StatusShowingPrompt
	g.entered = 0
	g.lit = ""
	g.showStep(0)
}

func (g *SequenceGame) showStep(i int) {
	if i == len(g.sequence) {
		g.status = StatusAwaitingInput
		return
	}
	g.after(g.cfg.StepPause.Duration(), func() {
		g.lit = g.sequence[i]
		g.after(g.cfg.Pulse.Duration(), func() {
			g.lit = ""
			g.showStep(i + 1)
		})
	})
}

// Press records one symbol of the player's answer. Presses outside the
// input phase are ignored.
func (g *SequenceGame) Press(ctx context.Context, symbol string) error {
	defer g.deliver(ctx, false)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !slices.Contains(g.cfg.Alphabet, symbol) {
		return fmt.Errorf("%w: unknown symbol %q", ErrInvalidMove, symbol)
	}
	if g.status != StatusAwaitingInput || g.closed {
		return nil
	}

	if g.sequence[g.entered] != symbol {
		g.finish(StatusLost, g.score/g.cfg.XpDivisor)
		return nil
	}
	g.entered++
	if g.entered < len(g.sequence) {
		return nil
	}

	g.status = StatusRoundComplete
	g.score += g.cfg.RoundScore
	g.after(g.cfg.NextRoundDelay.Duration(), g.nextRound)
	return nil
}

func (g *SequenceGame) nextRound() {
	g.sequence = append(g.sequence, g.draw())
	g.round++
	g.present()
}

func (g *SequenceGame) Apply(ctx context.Context, m Move) error {
	return g.Press(ctx, m.Symbol)
}

func (g *SequenceGame) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	board := SequenceBoard{
		Round:    g.round,
		Length:   len(g.sequence),
		Entered:  g.entered,
		Lit:      g.lit,
		Alphabet: g.cfg.Alphabet,
	}
	if g.status.Terminal() {
		board.Sequence = slices.Clone(g.sequence)
	}
	return g.snapshot(board)
}
