package emotion

// SessionData is one session's contribution to an aggregate: its id and
// the canonical record produced by ParseRecord.
type SessionData struct {
	ID       int      `json:"id"`
	Timeline Timeline `json:"timeline"`
	Summary  Summary  `json:"emotion_summary"`
}

// Aggregated is the combined view over a set of sessions.  It is derived
// and ephemeral: recomputed whenever the selection changes, never stored.
type Aggregated struct {
	Timeline Timeline `json:"timeline"`
	Summary  Summary  `json:"emotion_summary"`
}

// Aggregate merges the timelines and summaries of the given sessions.
// Summary counts are summed per label.  Timelines are merged by absolute
// second key; when two sessions populate the same second, the later
// session in input order wins.  Cross-session second alignment carries no
// meaning in the aggregate view, so the collision policy only has to be
// deterministic, not lossless.
//
// Zero sessions yield empty containers and a single session yields a copy
// of its own data unchanged.
func Aggregate(sessions []SessionData) Aggregated {
	agg := Aggregated{Timeline: Timeline{}, Summary: Summary{}}
	for _, s := range sessions {
		for sec, label := range s.Timeline {
			agg.Timeline[sec] = label
		}
		for label, count := range s.Summary {
			agg.Summary[label] += count
		}
	}
	return agg
}
