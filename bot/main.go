// Command bot registers synthetic users and keeps them playing games through
// the public HTTP API, to put load on the award pipeline.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/games"
)

type Config struct {
	BaseURL      string        `env:"BOT_BASE_URL, default=http://localhost:3000"`
	UserCount    int           `env:"BOT_USER_COUNT, default=1"`
	PollInterval time.Duration `env:"BOT_POLL_INTERVAL, default=250ms"`
	GamePause    time.Duration `env:"BOT_GAME_PAUSE, default=1s"`
	PostEvery    int           `env:"BOT_POST_EVERY, default=5"`
}

type BotUser struct {
	Id       string
	Nickname string
	Token    string
}

type snapshot struct {
	games.Snapshot
	Board json.RawMessage `json:"board"`
}

var errUnexpectedStatus = errors.New("unexpected status")

var httpClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: 10 * time.Second,
	},
	Timeout: 30 * time.Second,
}

var (
	adjectives = []string{"Happy", "Clever", "Bright", "Swift", "Kind", "Gentle", "Brave", "Calm", "Cheerful", "Wise"}
	nouns      = []string{"Explorer", "Builder", "Dreamer", "Seeker", "Wanderer", "Guardian", "Sage", "Runner", "Dancer", "Ranger"}
)

func nickname() string {
	return fmt.Sprintf("%s%s%d", adjectives[rand.IntN(len(adjectives))], nouns[rand.IntN(len(nouns))], rand.IntN(10000))
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := Config{}
	if err := envconfig.Process(ctx, &config); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Configuration loaded",
		"base_url", config.BaseURL,
		"user_count", config.UserCount,
		"poll_interval", config.PollInterval.String())

	c := &client{baseURL: config.BaseURL}
	var wg sync.WaitGroup
	for i := 0; i < config.UserCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := c.register(ctx)
			if err != nil {
				slog.Error("Failed to register user", "error", err)
				return
			}
			slog.Info("Registered user", "nickname", user.Nickname, "user_id", user.Id)
			(&bot{c: c, user: user, cfg: config}).run(ctx)
		}()
	}
	wg.Wait()
}

type client struct {
	baseURL string
}

func (c *client) do(ctx context.Context, method, path, token string, in any, out any, okStatus ...int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	accepted := resp.StatusCode == http.StatusOK
	for _, s := range okStatus {
		accepted = accepted || resp.StatusCode == s
	}
	if !accepted {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w %d on %s %s: %s", errUnexpectedStatus, resp.StatusCode, method, path, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *client) register(ctx context.Context) (*BotUser, error) {
	name := nickname()
	signUp := &entities.SignUpRequest{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@bots.local", name, time.Now().UnixNano()),
		Password: "bot-password",
	}
	profile := &entities.UserProfile{}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/sign-up", "", signUp, profile, http.StatusCreated); err != nil {
		return nil, err
	}
	signIn := &entities.SignInResponse{}
	req := &entities.SignInRequest{Email: signUp.Email, Password: signUp.Password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/sign-in", "", req, signIn); err != nil {
		return nil, err
	}
	return &BotUser{Id: profile.Id, Nickname: name, Token: signIn.Token}, nil
}

type bot struct {
	c    *client
	user *BotUser
	cfg  Config

	played int
}

func (b *bot) run(ctx context.Context) {
	for ctx.Err() == nil {
		kind := games.KindEmotions
		if b.played%2 == 1 {
			kind = games.KindMemory
		}
		snap, err := b.play(ctx, kind)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Game failed", "user_id", b.user.Id, "game", kind, "error", err)
			}
		} else {
			b.played++
			slog.Info("Game finished",
				"user_id", b.user.Id,
				"game", kind,
				"status", snap.Status,
				"score", snap.Score,
				"xp", snap.XpAwarded)
			if b.cfg.PostEvery > 0 && b.played%b.cfg.PostEvery == 0 {
				b.post(ctx, snap)
			}
		}
		select {
		case <-ctx.Done():
		case <-time.After(b.cfg.GamePause):
		}
	}
}

func (b *bot) play(ctx context.Context, kind games.Kind) (*snapshot, error) {
	snap := &snapshot{}
	if err := b.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/games/%s/start", kind), b.user.Token, nil, snap, http.StatusCreated); err != nil {
		return nil, err
	}
	switch kind {
	case games.KindEmotions:
		return b.playEmotions(ctx, snap)
	case games.KindMemory:
		return b.playMemory(ctx, snap)
	}
	return nil, fmt.Errorf("bot can not play %s", kind)
}

func (b *bot) move(ctx context.Context, kind games.Kind, m games.Move) (*snapshot, error) {
	snap := &snapshot{}
	err := b.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/games/%s/moves", kind), b.user.Token, m, snap)
	return snap, err
}

// waitFor polls until the session leaves the transient statuses.
func (b *bot) waitFor(ctx context.Context, kind games.Kind, snap *snapshot, transient ...games.Status) (*snapshot, error) {
	for {
		busy := false
		for _, s := range transient {
			busy = busy || snap.Status == s
		}
		if !busy {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.cfg.PollInterval):
		}
		next := &snapshot{}
		if err := b.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/games/%s", kind), b.user.Token, nil, next); err != nil {
			return nil, err
		}
		snap = next
	}
}

// playEmotions guesses uniformly until the lives run out.
func (b *bot) playEmotions(ctx context.Context, snap *snapshot) (*snapshot, error) {
	var err error
	for !snap.Status.Terminal() {
		board := games.EmotionsBoard{}
		if err := json.Unmarshal(snap.Board, &board); err != nil {
			return nil, err
		}
		if len(board.Options) == 0 {
			return nil, errors.New("emotions round without options")
		}
		snap, err = b.move(ctx, games.KindEmotions, games.Move{Label: board.Options[rand.IntN(len(board.Options))]})
		if err != nil {
			return nil, err
		}
		snap, err = b.waitFor(ctx, games.KindEmotions, snap, games.StatusFeedback)
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// playMemory remembers every symbol it has seen and flips known pairs first.
func (b *bot) playMemory(ctx context.Context, snap *snapshot) (*snapshot, error) {
	seen := make(map[int]string)
	var err error
	for !snap.Status.Terminal() {
		board := games.MemoryBoard{}
		if err := json.Unmarshal(snap.Board, &board); err != nil {
			return nil, err
		}
		first, second := choosePair(board.Tiles, seen)
		if first < 0 {
			return nil, errors.New("memory board has nothing left to flip")
		}
		for _, idx := range []int{first, second} {
			if idx < 0 {
				continue
			}
			tile := idx
			snap, err = b.move(ctx, games.KindMemory, games.Move{Tile: &tile})
			if err != nil {
				return nil, err
			}
			if err := remember(snap, seen); err != nil {
				return nil, err
			}
			// the second flip can be informed by what the first revealed
			if idx == first && second < 0 {
				second = partnerOf(first, seen, board.Tiles)
			}
		}
		snap, err = b.waitFor(ctx, games.KindMemory, snap, games.StatusResolving)
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func remember(snap *snapshot, seen map[int]string) error {
	board := games.MemoryBoard{}
	if err := json.Unmarshal(snap.Board, &board); err != nil {
		return err
	}
	for i, t := range board.Tiles {
		if t.Symbol != "" {
			seen[i] = t.Symbol
		}
	}
	return nil
}

// choosePair returns a known pair, or an unknown tile and -1.
func choosePair(tiles []games.TileView, seen map[int]string) (int, int) {
	bySymbol := make(map[string]int)
	for i, t := range tiles {
		sym, ok := seen[i]
		if t.Matched || !ok {
			continue
		}
		if j, ok := bySymbol[sym]; ok {
			return j, i
		}
		bySymbol[sym] = i
	}
	for i, t := range tiles {
		if _, ok := seen[i]; !ok && !t.Matched {
			return i, -1
		}
	}
	return -1, -1
}

func partnerOf(first int, seen map[int]string, tiles []games.TileView) int {
	for i, t := range tiles {
		if i != first && !t.Matched && seen[i] == seen[first] {
			return i
		}
	}
	for i, t := range tiles {
		if _, ok := seen[i]; !ok && i != first && !t.Matched {
			return i
		}
	}
	return -1
}

func (b *bot) post(ctx context.Context, snap *snapshot) {
	req := &entities.CreatePostRequest{
		Title:    fmt.Sprintf("Finished %s with %d points", snap.Game, snap.Score),
		Content:  fmt.Sprintf("%s just earned %d XP.", b.user.Nickname, snap.XpAwarded),
		Category: "games",
	}
	if err := b.c.do(ctx, http.MethodPost, "/api/v1/posts", b.user.Token, req, nil, http.StatusCreated); err != nil {
		slog.Error("Failed to create post", "user_id", b.user.Id, "error", err)
	}
}
