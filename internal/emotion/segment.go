package emotion

import "sort"

// Segment is a maximal run of consecutive seconds carrying the same
// emotion.  A single-second run has StartSecond == EndSecond.
type Segment struct {
	Emotion     string `json:"emotion"`
	StartSecond int    `json:"start_second"`
	EndSecond   int    `json:"end_second"`
}

// SegmentTimeline collapses a per-second timeline into contiguous runs,
// ordered by start second.  A gap (missing second) always closes the
// current run, even when the same emotion resumes afterward.  The map's
// iteration order is irrelevant: seconds are sorted before grouping.
func SegmentTimeline(t Timeline) []Segment {
	if len(t) == 0 {
		return []Segment{}
	}

	seconds := make([]int, 0, len(t))
	for sec := range t {
		seconds = append(seconds, sec)
	}
	sort.Ints(seconds)

	segments := []Segment{}
	current := Segment{Emotion: t[seconds[0]], StartSecond: seconds[0], EndSecond: seconds[0]}
	for _, sec := range seconds[1:] {
		if sec == current.EndSecond+1 && t[sec] == current.Emotion {
			current.EndSecond = sec
			continue
		}
		segments = append(segments, current)
		current = Segment{Emotion: t[sec], StartSecond: sec, EndSecond: sec}
	}
	return append(segments, current)
}
