package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/clock"
	"github.com/skif48/wellness-engine/game_config"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/graceful_shutdown"
)

var ErrNoSession = errors.New("no active game session")

// SessionManager keeps at most one live game session per user.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]games.Session

	gc           *game_config.GameConfig
	awarder      games.Awarder
	awardTimeout time.Duration
	clock        clock.Clock
	newRand      func() games.Rand
	newId        func() string
}

func NewSessionManager(ac *app_config.AppConfig, gc *game_config.GameConfig, awarder games.Awarder) *SessionManager {
	m := &SessionManager{
		sessions:     make(map[string]games.Session),
		gc:           gc,
		awarder:      awarder,
		awardTimeout: ac.AwardTimeout,
		clock:        clock.Real{},
		newRand: func() games.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		newId: uuid.NewString,
	}
	graceful_shutdown.AddInputShutdownFunc(m.CloseAll)
	return m
}

func (m *SessionManager) newSession(userId string, kind games.Kind) (games.Session, error) {
	deps := games.Deps{
		SessionId:    m.newId(),
		UserId:       userId,
		Clock:        m.clock,
		Rand:         m.newRand(),
		Awarder:      m.awarder,
		AwardTimeout: m.awardTimeout,
	}
	switch kind {
	case games.KindSequence:
		return games.NewSequenceGame(m.gc.Sequence, deps), nil
	case games.KindMemory:
		return games.NewMemoryGame(m.gc.Memory, deps), nil
	case games.KindEmotions:
		return games.NewEmotionsGame(m.gc.Emotions, deps), nil
	case games.KindSnake:
		return games.NewSnakeGame(m.gc.Snake, deps), nil
	}
	return nil, fmt.Errorf("%w: %q", games.ErrUnknownGame, kind)
}

// Start begins a fresh play-through, closing whatever the user was playing.
func (m *SessionManager) Start(ctx context.Context, userId string, kind games.Kind) (games.Snapshot, error) {
	s, err := m.newSession(userId, kind)
	if err != nil {
		return games.Snapshot{}, err
	}

	m.mu.Lock()
	old := m.sessions[userId]
	m.sessions[userId] = s
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.Start(ctx)
	slog.With("user_id", userId, "game", kind, "session_id", s.Id()).Debug("Game session started")
	return s.Snapshot(), nil
}

func (m *SessionManager) get(userId string, kind games.Kind) (games.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userId]
	if !ok || s.Kind() != kind {
		return nil, ErrNoSession
	}
	return s, nil
}

func (m *SessionManager) Apply(ctx context.Context, userId string, kind games.Kind, move games.Move) (games.Snapshot, error) {
	s, err := m.get(userId, kind)
	if err != nil {
		return games.Snapshot{}, err
	}
	if err := s.Apply(ctx, move); err != nil {
		return games.Snapshot{}, err
	}
	// The session may have been replaced or ended while the move was in flight.
	snap := s.Snapshot()
	if snap.Closed {
		return games.Snapshot{}, ErrNoSession
	}
	return snap, nil
}

func (m *SessionManager) Snapshot(userId string, kind games.Kind) (games.Snapshot, error) {
	s, err := m.get(userId, kind)
	if err != nil {
		return games.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// RetryAward re-sends an award whose delivery failed. The snapshot is
// returned alongside any delivery error.
func (m *SessionManager) RetryAward(ctx context.Context, userId string, kind games.Kind) (games.Snapshot, error) {
	s, err := m.get(userId, kind)
	if err != nil {
		return games.Snapshot{}, err
	}
	err = s.RetryAward(ctx)
	return s.Snapshot(), err
}

func (m *SessionManager) End(userId string, kind games.Kind) error {
	m.mu.Lock()
	s, ok := m.sessions[userId]
	if !ok || s.Kind() != kind {
		m.mu.Unlock()
		return ErrNoSession
	}
	delete(m.sessions, userId)
	m.mu.Unlock()

	s.Close()
	return nil
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]games.Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	slog.With("sessions", len(sessions)).Info("Closed game sessions")
}
