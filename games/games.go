// Package games holds the mini-game state machines.
//
// Every game is a session: one play-through from Start to a terminal state.
// Sessions serialize their own transitions, schedule delays through an
// injected clock and report exactly one Award when they end.
package games

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/skif48/wellness-engine/clock"
)

type Kind string

const (
	KindSequence Kind = "sequence"
	KindMemory   Kind = "memory"
	KindEmotions Kind = "emotions"
	KindSnake    Kind = "snake"
)

var Kinds = []Kind{KindSequence, KindMemory, KindEmotions, KindSnake}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

type Status string

const (
	StatusNotStarted    Status = "not_started"
	StatusShowingPrompt Status = "showing_prompt"
	StatusAwaitingInput Status = "awaiting_input"
	StatusRoundComplete Status = "round_complete"
	StatusResolving     Status = "resolving"
	StatusFeedback      Status = "feedback"
	StatusRunning       Status = "running"
	StatusPaused        Status = "paused"
	StatusWon           Status = "won"
	StatusLost          Status = "lost"
)

func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

var (
	ErrUnknownGame = errors.New("unknown game")
	ErrInvalidMove = errors.New("invalid move")
	ErrNoAward     = errors.New("session has no award to deliver")
)

// Rand is the random source a session draws from. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Award is the XP a finished session grants its player.
type Award struct {
	SessionId  string    `json:"session_id"`
	UserId     string    `json:"user_id"`
	Game       Kind      `json:"game"`
	Status     Status    `json:"status"`
	Score      int       `json:"score"`
	Xp         int       `json:"xp"`
	FinishedAt time.Time `json:"finished_at"`
}

// Awarder receives terminal awards. It is never called while a session lock is held.
type Awarder interface {
	Award(ctx context.Context, award Award) error
}

type AwarderFunc func(ctx context.Context, award Award) error

func (f AwarderFunc) Award(ctx context.Context, award Award) error {
	return f(ctx, award)
}

// Move is a player input. Each game reads the field it understands.
type Move struct {
	Symbol    string `json:"symbol,omitempty"`
	Tile      *int   `json:"tile,omitempty"`
	Label     string `json:"label,omitempty"`
	Direction string `json:"direction,omitempty"`
	Action    string `json:"action,omitempty"`
}

type Snapshot struct {
	SessionId      string `json:"session_id"`
	Game           Kind   `json:"game"`
	Status         Status `json:"status"`
	Score          int    `json:"score"`
	Closed         bool   `json:"closed"`
	XpAwarded      int    `json:"xp_awarded"`
	AwardDelivered bool   `json:"award_delivered"`
	AwardError     string `json:"award_error,omitempty"`
	Board          any    `json:"board"`
}

// Session is what the session manager and the HTTP layer drive.
type Session interface {
	Id() string
	Kind() Kind
	Start(ctx context.Context)
	Apply(ctx context.Context, m Move) error
	Snapshot() Snapshot
	RetryAward(ctx context.Context) error
	Close()
}

type Deps struct {
	SessionId    string
	UserId       string
	Clock        clock.Clock
	Rand         Rand
	Awarder      Awarder
	// AwardTimeout bounds each delivery attempt. Zero means no bound.
	AwardTimeout time.Duration
}

// payout guards the terminal award: computed once, delivered until it succeeds.
type payout struct {
	award     *Award
	sending   bool
	delivered bool
	err       error
}

// session carries what every game shares. Fields are guarded by mu.
type session struct {
	mu   sync.Mutex
	kind Kind
	deps Deps

	status Status
	score  int
	closed bool

	gen    int
	timers map[clock.Timer]struct{}
	pay    payout
}

func (s *session) init(kind Kind, deps Deps) {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	s.kind = kind
	s.deps = deps
	s.status = StatusNotStarted
	s.timers = make(map[clock.Timer]struct{})
}

func (s *session) Id() string {
	return s.deps.SessionId
}

func (s *session) Kind() Kind {
	return s.kind
}

// after schedules f under the session lock. Callbacks from a cancelled
// generation, or after Close, do nothing.
func (s *session) after(d time.Duration, f func()) {
	gen := s.gen
	var t clock.Timer
	t = s.deps.Clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, t)
		if gen != s.gen || s.closed {
			s.mu.Unlock()
			return
		}
		f()
		s.mu.Unlock()
		s.deliver(context.Background(), false)
	})
	s.timers[t] = struct{}{}
}

func (s *session) cancelTimers() {
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
	s.gen++
}

func (s *session) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// finish moves the session to a terminal status and records its award.
// Later calls are ignored, so a session never awards twice. A closed
// session is discarded and never awards.
func (s *session) finish(status Status, xp int) {
	if s.pay.award != nil || s.status.Terminal() || s.closed {
		return
	}
	s.status = status
	s.cancelTimers()
	s.pay.award = &Award{
		SessionId:  s.deps.SessionId,
		UserId:     s.deps.UserId,
		Game:       s.kind,
		Status:     status,
		Score:      s.score,
		Xp:         xp,
		FinishedAt: s.deps.Clock.Now(),
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`games_finished_total{game=%q,status=%q}`, s.kind, status)).Inc()
	metrics.GetOrCreateCounter(fmt.Sprintf(`games_xp_awarded_total{game=%q}`, s.kind)).Add(xp)
}

// end moves to a terminal status without an award.
func (s *session) end(status Status) {
	if s.status.Terminal() || s.closed {
		return
	}
	s.status = status
	s.cancelTimers()
	metrics.GetOrCreateCounter(fmt.Sprintf(`games_finished_total{game=%q,status=%q}`, s.kind, status)).Inc()
}

// deliver hands a pending award to the awarder. Without retry, an award whose
// last attempt failed is left alone until RetryAward.
func (s *session) deliver(ctx context.Context, retry bool) error {
	s.mu.Lock()
	p := &s.pay
	if p.award == nil {
		s.mu.Unlock()
		return ErrNoAward
	}
	if p.delivered || p.sending || (p.err != nil && !retry) {
		err := p.err
		s.mu.Unlock()
		return err
	}
	if s.deps.Awarder == nil {
		p.delivered = true
		s.mu.Unlock()
		return nil
	}
	p.sending = true
	award := *p.award
	s.mu.Unlock()

	if s.deps.AwardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.AwardTimeout)
		defer cancel()
	}
	err := s.deps.Awarder.Award(ctx, award)

	s.mu.Lock()
	defer s.mu.Unlock()
	p.sending = false
	p.err = err
	p.delivered = err == nil
	return err
}

func (s *session) RetryAward(ctx context.Context) error {
	return s.deliver(ctx, true)
}

func (s *session) markStarted() bool {
	if s.status != StatusNotStarted || s.closed {
		return false
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`games_started_total{game=%q}`, s.kind)).Inc()
	return true
}

func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelTimers()
}

func (s *session) snapshot(board any) Snapshot {
	snap := Snapshot{
		SessionId: s.deps.SessionId,
		Game:      s.kind,
		Status:    s.status,
		Score:     s.score,
		Closed:    s.closed,
		Board:     board,
	}
	if s.pay.award != nil {
		snap.XpAwarded = s.pay.award.Xp
		snap.AwardDelivered = s.pay.delivered
		if s.pay.err != nil {
			snap.AwardError = s.pay.err.Error()
		}
	}
	return snap
}
