package games

import (
	"context"
	"sync"
	"time"

	"github.com/skif48/wellness-engine/clock"
	"github.com/skif48/wellness-engine/game_config"
)

var testConfig = game_config.NewGameConfig()

// scriptedRand returns queued values from IntN and never reorders on Shuffle.
type scriptedRand struct {
	ints []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Shuffle(int, func(i, j int)) {}

type recordingAwarder struct {
	mu     sync.Mutex
	awards []Award
	err    error
}

func (a *recordingAwarder) Award(_ context.Context, award Award) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.awards = append(a.awards, award)
	return a.err
}

func (a *recordingAwarder) calls() []Award {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Award(nil), a.awards...)
}

func (a *recordingAwarder) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func testDeps(rnd Rand) (Deps, *clock.Manual, *recordingAwarder) {
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	aw := &recordingAwarder{}
	return Deps{
		SessionId: "session-1",
		UserId:    "user-1",
		Clock:     clk,
		Rand:      rnd,
		Awarder:   aw,
	}, clk, aw
}
