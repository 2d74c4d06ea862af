package game_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedConfigDefaults(t *testing.T) {
	gc := NewGameConfig()

	assert.Len(t, gc.Sequence.Alphabet, 4)
	assert.Equal(t, 2, gc.Sequence.XpDivisor)
	assert.Equal(t, 700*time.Millisecond, gc.Sequence.StepPause.Duration())

	assert.Len(t, gc.Memory.Symbols, 8)
	assert.Equal(t, 100, gc.Memory.BonusBase)
	assert.Equal(t, 2, gc.Memory.TurnPenalty)
	assert.Equal(t, 4, gc.Memory.XpDivisor)

	assert.Equal(t, 3, gc.Emotions.Lives)
	assert.Equal(t, 3, gc.Emotions.Distractors)
	assert.Equal(t, 3, gc.Emotions.XpDivisor)
	assert.Equal(t, []string{"happy", "sad", "angry", "afraid", "surprised", "calm"}, gc.Emotions.Names())
	for _, e := range gc.Emotions.Emotions {
		assert.NotEqual(t, e.Name, e.Emoji)
	}

	assert.Equal(t, 15, gc.Snake.GridSize)
}

func TestParseRejectsZeroDivisor(t *testing.T) {
	gc := NewGameConfig()
	gc.Memory.XpDivisor = 0
	require.Error(t, gc.validate())
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"sequence":`))
	require.Error(t, err)
}

func TestParseRejectsAmbiguousEmotions(t *testing.T) {
	gc := NewGameConfig()
	gc.Emotions.Emotions = []Emotion{{Name: "happy", Emoji: "😊"}, {Name: "glad", Emoji: "😊"}}
	require.Error(t, gc.validate())

	gc.Emotions.Emotions = []Emotion{{Name: "happy", Emoji: "😊"}, {Name: "sad"}}
	require.Error(t, gc.validate())
}
