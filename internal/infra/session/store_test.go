package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	id := s.Create()

	results, err := s.Results(id)
	require.NoError(t, err)
	assert.Empty(t, results)

	first := []analysis.Result{{FileName: "a.txt"}, {FileName: "b.txt"}}
	require.NoError(t, s.Replace(id, first))

	results, err = s.Results(id)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.txt", results[0].FileName)

	// replace is wholesale, not a merge
	require.NoError(t, s.Replace(id, []analysis.Result{{FileName: "c.txt"}}))
	results, err = s.Results(id)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c.txt", results[0].FileName)
}

func TestStoreUnknownSession(t *testing.T) {
	s := NewStore()

	_, err := s.Results("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Replace("nope", nil), ErrNotFound)
	assert.ErrorIs(t, s.Begin("nope"), ErrNotFound)
}

func TestStoreBusyFlag(t *testing.T) {
	s := NewStore()
	id := s.Create()

	require.NoError(t, s.Begin(id))
	assert.ErrorIs(t, s.Begin(id), ErrBusy)

	s.End(id)
	assert.NoError(t, s.Begin(id))
}

func TestResultsReturnsCopy(t *testing.T) {
	s := NewStore()
	id := s.Create()
	require.NoError(t, s.Replace(id, []analysis.Result{{FileName: "a.txt"}}))

	snapshot, err := s.Results(id)
	require.NoError(t, err)
	snapshot[0].FileName = "mutated"

	fresh, err := s.Results(id)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", fresh[0].FileName)
}
