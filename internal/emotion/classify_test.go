package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPartition(t *testing.T) {
	positive := []string{"happy", "surprised", "excited", "content"}
	negative := []string{"sad", "angry", "disgusted", "disgust", "fearful", "fear"}
	neutral := []string{"neutral", "calm"}

	for _, label := range positive {
		assert.Equal(t, ValencePositive, Classify(label).Valence, label)
	}
	for _, label := range negative {
		assert.Equal(t, ValenceNegative, Classify(label).Valence, label)
	}
	for _, label := range neutral {
		assert.Equal(t, ValenceNeutral, Classify(label).Valence, label)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, Classify("happy"), Classify("HAPPY"))
	assert.Equal(t, Classify("fear"), Classify("Fear"))
	assert.Equal(t, Classify("disgust"), Classify("  Disgust "))
}

func TestClassifyTotal(t *testing.T) {
	// Unknown labels resolve to the neutral affordance, never an error:
	// the recognizer's vocabulary may grow without a client update.
	for _, label := range []string{"", "bored", "confused", "😀", "HAPPY!", "saddened"} {
		c := Classify(label)
		assert.Equal(t, ValenceNeutral, c.Valence, label)
		assert.Equal(t, "#808080", c.ColorToken, label)
		assert.NotEmpty(t, c.Glyph, label)
	}
}

func TestClassifyDisplayTokens(t *testing.T) {
	assert.Equal(t, "#FFD700", Classify("happy").ColorToken)
	assert.Equal(t, "#4169E1", Classify("sad").ColorToken)
	assert.Equal(t, "#FF4500", Classify("angry").ColorToken)
	assert.Equal(t, "#800080", Classify("fear").ColorToken)
	assert.Equal(t, "#228B22", Classify("disgust").ColorToken)

	// The two spellings of each recognizer label share one affordance.
	assert.Equal(t, Classify("fear"), Classify("fearful"))
	assert.Equal(t, Classify("disgust"), Classify("disgusted"))
}
