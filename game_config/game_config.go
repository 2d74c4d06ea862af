package game_config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"
)

// Millis is a duration encoded as integer milliseconds in game_config.json.
type Millis int

func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

type SequenceConfig struct {
	Alphabet       []string `json:"alphabet"`
	RoundScore     int      `json:"round_score"`
	XpDivisor      int      `json:"xp_divisor"`
	StepPause      Millis   `json:"step_pause_ms"`
	Pulse          Millis   `json:"pulse_ms"`
	NextRoundDelay Millis   `json:"next_round_delay_ms"`
}

type MemoryConfig struct {
	Symbols       []string `json:"symbols"`
	MatchScore    int      `json:"match_score"`
	BonusBase     int      `json:"bonus_base"`
	TurnPenalty   int      `json:"turn_penalty"`
	XpDivisor     int      `json:"xp_divisor"`
	MatchDelay    Millis   `json:"match_delay_ms"`
	MismatchDelay Millis   `json:"mismatch_delay_ms"`
}

// Emotion pairs the face shown to the player with the name they answer with.
type Emotion struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type EmotionsConfig struct {
	Emotions       []Emotion `json:"emotions"`
	Distractors    int       `json:"distractors"`
	Lives          int       `json:"lives"`
	CorrectScore   int       `json:"correct_score"`
	XpDivisor      int       `json:"xp_divisor"`
	CorrectDelay   Millis    `json:"correct_delay_ms"`
	IncorrectDelay Millis    `json:"incorrect_delay_ms"`
}

// Names lists the answerable emotion names in config order.
func (ec EmotionsConfig) Names() []string {
	names := make([]string, len(ec.Emotions))
	for i, e := range ec.Emotions {
		names[i] = e.Name
	}
	return names
}

func (ec EmotionsConfig) validate() error {
	if len(ec.Emotions) < 2 {
		return fmt.Errorf("emotions: need at least two emotions")
	}
	names := make(map[string]bool, len(ec.Emotions))
	emojis := make(map[string]bool, len(ec.Emotions))
	for _, e := range ec.Emotions {
		if e.Name == "" || e.Emoji == "" {
			return fmt.Errorf("emotions: every emotion needs a name and an emoji")
		}
		if names[e.Name] || emojis[e.Emoji] {
			return fmt.Errorf("emotions: duplicate emotion %q", e.Name)
		}
		names[e.Name], emojis[e.Emoji] = true, true
	}
	return nil
}

type SnakeConfig struct {
	GridSize  int    `json:"grid_size"`
	FoodScore int    `json:"food_score"`
	XpDivisor int    `json:"xp_divisor"`
	Tick      Millis `json:"tick_ms"`
}

type GameConfig struct {
	Sequence SequenceConfig `json:"sequence"`
	Memory   MemoryConfig   `json:"memory"`
	Emotions EmotionsConfig `json:"emotions"`
	Snake    SnakeConfig    `json:"snake"`
}

//go:embed game_config.json
var gameConfigBytes []byte

func NewGameConfig() *GameConfig {
	gameConfig, err := Parse(gameConfigBytes)
	if err != nil {
		panic(err)
	}
	return gameConfig
}

func Parse(b []byte) (*GameConfig, error) {
	gameConfig := &GameConfig{}
	if err := json.Unmarshal(b, gameConfig); err != nil {
		return nil, err
	}
	if err := gameConfig.validate(); err != nil {
		return nil, err
	}
	return gameConfig, nil
}

func (gc *GameConfig) validate() error {
	switch {
	case len(gc.Sequence.Alphabet) == 0:
		return fmt.Errorf("sequence: empty alphabet")
	case len(gc.Memory.Symbols) == 0:
		return fmt.Errorf("memory: no symbols")
	case gc.Emotions.Lives < 1:
		return fmt.Errorf("emotions: lives must be positive")
	case gc.Snake.GridSize < 3:
		return fmt.Errorf("snake: grid too small")
	}
	if err := gc.Emotions.validate(); err != nil {
		return err
	}
	for name, d := range map[string]int{
		"sequence": gc.Sequence.XpDivisor,
		"memory":   gc.Memory.XpDivisor,
		"emotions": gc.Emotions.XpDivisor,
		"snake":    gc.Snake.XpDivisor,
	} {
		if d <= 0 {
			return fmt.Errorf("%s: xp_divisor must be positive", name)
		}
	}
	return nil
}
