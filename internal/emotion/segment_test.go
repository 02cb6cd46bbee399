package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTimelineGapBreaksRun(t *testing.T) {
	tl := Timeline{0: "happy", 1: "happy", 2: "sad", 4: "happy"}

	got := SegmentTimeline(tl)

	assert.Equal(t, []Segment{
		{Emotion: "happy", StartSecond: 0, EndSecond: 1},
		{Emotion: "sad", StartSecond: 2, EndSecond: 2},
		{Emotion: "happy", StartSecond: 4, EndSecond: 4},
	}, got)
}

func TestSegmentTimelineEmpty(t *testing.T) {
	got := SegmentTimeline(Timeline{})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSegmentTimelineSingleSecond(t *testing.T) {
	got := SegmentTimeline(Timeline{3: "calm"})
	assert.Equal(t, []Segment{{Emotion: "calm", StartSecond: 3, EndSecond: 3}}, got)
}

func TestSegmentTimelineSameEmotionAcrossGap(t *testing.T) {
	// Two non-adjacent runs of the same emotion are never merged.
	got := SegmentTimeline(Timeline{0: "calm", 2: "calm"})
	assert.Equal(t, []Segment{
		{Emotion: "calm", StartSecond: 0, EndSecond: 0},
		{Emotion: "calm", StartSecond: 2, EndSecond: 2},
	}, got)
}

func TestSegmentTimelineRoundTrip(t *testing.T) {
	timelines := []Timeline{
		{0: "happy", 1: "happy", 2: "sad", 4: "happy"},
		{10: "angry", 11: "angry", 12: "angry"},
		{0: "neutral", 5: "calm", 6: "calm", 8: "calm", 9: "fear"},
		{7: "sad"},
	}
	for _, tl := range timelines {
		segments := SegmentTimeline(tl)

		expanded := Timeline{}
		for _, seg := range segments {
			require.LessOrEqual(t, seg.StartSecond, seg.EndSecond)
			for sec := seg.StartSecond; sec <= seg.EndSecond; sec++ {
				_, seen := expanded[sec]
				require.False(t, seen, "second %d covered twice", sec)
				expanded[sec] = seg.Emotion
			}
		}
		assert.Equal(t, tl, expanded)
	}
}
