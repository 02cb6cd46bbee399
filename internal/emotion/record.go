package emotion

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Timeline maps a non-negative second offset from session start to the
// dominant emotion detected during that second.  Missing seconds mean "no
// detection" and are not an emotion of their own.
type Timeline map[int]string

// Summary holds per-emotion occurrence counts for one session.
type Summary map[string]int

// Record is the canonical form of a session's stored results blob.  OK is
// false when the blob could not be decoded even after repair; in that case
// both containers are empty, never nil.
type Record struct {
	Timeline Timeline `json:"timeline"`
	Summary  Summary  `json:"emotion_summary"`
	OK       bool     `json:"ok"`
}

// rawRecord mirrors the stored wire shape: timeline keys are stringified
// second offsets and counts may arrive as JSON numbers of either kind.
type rawRecord struct {
	Timeline map[string]string  `json:"timeline"`
	Summary  map[string]float64 `json:"emotion_summary"`
}

// ParseRecord turns a session's stored results field into a canonical
// Record.  The pipeline that writes these blobs sometimes emits
// single-quoted pseudo-JSON, so a quote-repair pass is attempted before
// giving up.  ParseRecord never fails hard: malformed input yields empty
// containers with OK false, and a decodable object missing either sub-key
// yields an empty container for that sub-key.
//
// When the timeline is present the summary is recomputed from it instead
// of trusting the stored counts, which are known to drift out of sync with
// the timeline in older records.
func ParseRecord(raw string) Record {
	rec := Record{Timeline: Timeline{}, Summary: Summary{}}

	var decoded rawRecord
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		repaired := strings.ReplaceAll(raw, "'", `"`)
		if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
			return rec
		}
	}
	rec.OK = true

	for key, label := range decoded.Timeline {
		second, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || second < 0 {
			continue
		}
		rec.Timeline[second] = label
	}

	if len(rec.Timeline) > 0 {
		rec.Summary = rec.Timeline.Counts()
		return rec
	}
	for label, count := range decoded.Summary {
		if count < 0 {
			continue
		}
		// Counts are occurrence totals; a fractional stored value is
		// rounded rather than truncated.
		rec.Summary[label] = int(math.Round(count))
	}
	return rec
}

// Counts tallies how many populated seconds carry each emotion label.
func (t Timeline) Counts() Summary {
	s := Summary{}
	for _, label := range t {
		s[label]++
	}
	return s
}
