package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"therapy-agent/internal/emotion"
	"therapy-agent/pkg"
)

type fakeStore struct {
	sessions []pkg.Session
	err      error
}

func (f *fakeStore) ListSessions(ctx context.Context, patientID int) ([]pkg.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

func TestRecordSourceParsesAndOrders(t *testing.T) {
	store := &fakeStore{sessions: []pkg.Session{
		{ID: 1, PatientID: 5, Results: `{"timeline": {"0": "happy"}}`},
		{ID: 2, PatientID: 5, Results: `{'timeline': {'0': 'sad', '1': 'sad'}}`},
	}}
	source := NewRecordSource(store, time.Minute, zap.NewNop())

	data, err := source.PatientSessions(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, 1, data[0].ID)
	assert.Equal(t, emotion.Summary{"happy": 1}, data[0].Summary)
	assert.Equal(t, 2, data[1].ID)
	assert.Equal(t, emotion.Summary{"sad": 2}, data[1].Summary)
}

func TestRecordSourceFailSoftPerSession(t *testing.T) {
	// One rotten blob must not abort the rest of the batch.
	store := &fakeStore{sessions: []pkg.Session{
		{ID: 1, PatientID: 5, Results: `{{{not json`},
		{ID: 2, PatientID: 5, Results: `{"timeline": {"3": "calm"}}`},
	}}
	source := NewRecordSource(store, time.Minute, zap.NewNop())

	data, err := source.PatientSessions(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Empty(t, data[0].Timeline)
	assert.Empty(t, data[0].Summary)
	assert.Equal(t, emotion.Timeline{3: "calm"}, data[1].Timeline)
}

func TestRecordSourceCachesParsedRecords(t *testing.T) {
	store := &fakeStore{sessions: []pkg.Session{
		{ID: 1, PatientID: 5, Results: `{"timeline": {"0": "happy"}}`},
	}}
	source := NewRecordSource(store, time.Minute, zap.NewNop())

	first, err := source.PatientSessions(context.Background(), 5)
	require.NoError(t, err)

	// A session's emotion data is immutable once analyzed, so the cache
	// may keep serving the first parse even if the stored blob changed.
	store.sessions[0].Results = `{"timeline": {"0": "sad"}}`
	second, err := source.PatientSessions(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecordSourceStoreError(t *testing.T) {
	source := NewRecordSource(&fakeStore{err: errors.New("db down")}, time.Minute, zap.NewNop())

	_, err := source.PatientSessions(context.Background(), 5)

	assert.Error(t, err)
}
