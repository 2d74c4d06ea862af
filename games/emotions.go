package games

import (
	"context"
	"fmt"
	"slices"

	"github.com/skif48/wellness-engine/game_config"
)

// EmotionsGame shows one emotion's face per round and asks the player to pick
// its name among a few distractors. Wrong answers cost a life.
type EmotionsGame struct {
	session
	cfg game_config.EmotionsConfig

	round   int
	lives   int
	target  game_config.Emotion
	options []string
	// set while the round's feedback is shown
	lastCorrect *bool
}

type EmotionsBoard struct {
	Round       int      `json:"round"`
	Lives       int      `json:"lives"`
	// Prompt is the emoji to name, never the name itself.
	Prompt      string   `json:"prompt,omitempty"`
	Options     []string `json:"options"`
	LastCorrect *bool    `json:"last_correct,omitempty"`
	// Answer is revealed after a wrong choice.
	Answer string `json:"answer,omitempty"`
}

func NewEmotionsGame(cfg game_config.EmotionsConfig, deps Deps) *EmotionsGame {
	g := &EmotionsGame{cfg: cfg}
	g.init(KindEmotions, deps)
	return g
}

func (g *EmotionsGame) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.markStarted() {
		return
	}
	g.lives = g.cfg.Lives
	g.round = 1
	g.newRound()
}

// newRound draws the target uniformly, then distinct distractors from the
// remaining names, then shuffles the options shown.
func (g *EmotionsGame) newRound() {
	emotions := g.cfg.Emotions
	g.target = emotions[g.deps.Rand.IntN(len(emotions))]

	others := make([]string, 0, len(emotions)-1)
	for _, e := range emotions {
		if e.Name != g.target.Name {
			others = append(others, e.Name)
		}
	}
	g.deps.Rand.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	n := min(g.cfg.Distractors, len(others))

	g.options = append([]string{g.target.Name}, others[:n]...)
	g.deps.Rand.Shuffle(len(g.options), func(i, j int) {
		g.options[i], g.options[j] = g.options[j], g.options[i]
	})
	g.lastCorrect = nil
	g.status = StatusAwaitingInput
}

// Choose answers the current round. Choices outside the answer phase are ignored.
func (g *EmotionsGame) Choose(ctx context.Context, label string) error {
	defer g.deliver(ctx, false)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusAwaitingInput || g.closed {
		return nil
	}
	if !slices.Contains(g.options, label) {
		return fmt.Errorf("%w: %q is not an option", ErrInvalidMove, label)
	}

	correct := label == g.target.Name
	g.lastCorrect = &correct
	if correct {
		g.score += g.cfg.CorrectScore
		g.status = StatusFeedback
		g.after(g.cfg.CorrectDelay.Duration(), g.advance)
		return nil
	}

	g.lives--
	if g.lives <= 0 {
		g.finish(StatusLost, g.score/g.cfg.XpDivisor)
		return nil
	}
	g.status = StatusFeedback
	g.after(g.cfg.IncorrectDelay.Duration(), g.advance)
	return nil
}

func (g *EmotionsGame) advance() {
	g.round++
	g.newRound()
}

func (g *EmotionsGame) Apply(ctx context.Context, m Move) error {
	return g.Choose(ctx, m.Label)
}

func (g *EmotionsGame) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	board := EmotionsBoard{
		Round:       g.round,
		Lives:       g.lives,
		Prompt:      g.target.Emoji,
		Options:     slices.Clone(g.options),
		LastCorrect: g.lastCorrect,
	}
	if g.lastCorrect != nil && !*g.lastCorrect {
		board.Answer = g.target.Name
	}
	return g.snapshot(board)
}
