package core

import (
	"context"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"therapy-agent/internal/emotion"
	"therapy-agent/pkg"
)

// SessionStore lists a patient's therapy sessions with their raw results
// blobs.  *db.Repository satisfies it.
type SessionStore interface {
	ListSessions(ctx context.Context, patientID int) ([]pkg.Session, error)
}

// RecordSource fetches a patient's sessions and parses their results into
// canonical emotion records.  Parsed records are cached by session id: a
// session's emotion data is immutable once analyzed, so the cache can only
// go stale by expiry, never by update.
//
// Parsing is fail-soft per session.  A malformed blob degrades to empty
// containers and is logged; it never aborts the rest of the batch.
type RecordSource struct {
	store SessionStore
	cache *cache.Cache
	log   *zap.Logger
}

// NewRecordSource constructs a RecordSource with the given cache TTL.
func NewRecordSource(store SessionStore, ttl time.Duration, log *zap.Logger) *RecordSource {
	return &RecordSource{
		store: store,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// PatientSessions returns the parsed emotion data for every session of a
// patient, in the store's order (ascending by date).
func (s *RecordSource) PatientSessions(ctx context.Context, patientID int) ([]emotion.SessionData, error) {
	sessions, err := s.store.ListSessions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	data := make([]emotion.SessionData, 0, len(sessions))
	for _, sess := range sessions {
		rec := s.record(sess)
		data = append(data, emotion.SessionData{
			ID:       sess.ID,
			Timeline: rec.Timeline,
			Summary:  rec.Summary,
		})
	}
	return data, nil
}

func (s *RecordSource) record(sess pkg.Session) emotion.Record {
	key := strconv.Itoa(sess.ID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(emotion.Record)
	}
	rec := emotion.ParseRecord(sess.Results)
	if !rec.OK {
		s.log.Warn("unparsable session results",
			zap.Int("session_id", sess.ID),
			zap.Int("patient_id", sess.PatientID),
		)
	}
	s.cache.Set(key, rec, cache.DefaultExpiration)
	return rec
}
