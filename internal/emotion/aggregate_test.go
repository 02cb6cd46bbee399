package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	require.NotNil(t, agg.Timeline)
	require.NotNil(t, agg.Summary)
	assert.Empty(t, agg.Timeline)
	assert.Empty(t, agg.Summary)

	agg = Aggregate([]SessionData{})
	assert.Empty(t, agg.Timeline)
	assert.Empty(t, agg.Summary)
}

func TestAggregateIdentity(t *testing.T) {
	s := SessionData{
		ID:       1,
		Timeline: Timeline{0: "happy", 1: "sad", 5: "calm"},
		Summary:  Summary{"happy": 1, "sad": 1, "calm": 1},
	}

	agg := Aggregate([]SessionData{s})

	assert.Equal(t, s.Timeline, agg.Timeline)
	assert.Equal(t, s.Summary, agg.Summary)

	// The aggregate owns fresh maps: mutating it must not reach back into
	// the source session.
	agg.Timeline[99] = "angry"
	agg.Summary["angry"] = 1
	assert.NotContains(t, s.Timeline, 99)
	assert.NotContains(t, s.Summary, "angry")
}

func TestAggregateSumsSummaries(t *testing.T) {
	sessions := []SessionData{
		{ID: 1, Summary: Summary{"happy": 3, "sad": 1}},
		{ID: 2, Summary: Summary{"happy": 2, "neutral": 4}},
	}

	agg := Aggregate(sessions)

	assert.Equal(t, Summary{"happy": 5, "sad": 1, "neutral": 4}, agg.Summary)
}

func TestAggregateTimelineCollisionLastWriteWins(t *testing.T) {
	sessions := []SessionData{
		{ID: 1, Timeline: Timeline{0: "happy", 1: "sad"}},
		{ID: 2, Timeline: Timeline{1: "angry", 2: "calm"}},
	}

	agg := Aggregate(sessions)

	assert.Equal(t, Timeline{0: "happy", 1: "angry", 2: "calm"}, agg.Timeline)
}

func TestAggregateDisjointTimelines(t *testing.T) {
	sessions := []SessionData{
		{ID: 1, Timeline: Timeline{0: "happy"}, Summary: Summary{"happy": 1}},
		{ID: 2, Timeline: Timeline{10: "sad"}, Summary: Summary{"sad": 1}},
		{ID: 3, Timeline: Timeline{20: "calm"}, Summary: Summary{"calm": 1}},
	}

	agg := Aggregate(sessions)

	assert.Equal(t, Timeline{0: "happy", 10: "sad", 20: "calm"}, agg.Timeline)
	assert.Equal(t, Summary{"happy": 1, "sad": 1, "calm": 1}, agg.Summary)
}
