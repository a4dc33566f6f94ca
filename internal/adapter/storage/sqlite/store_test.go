package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonearm-player/tonearm/internal/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(logger.NewTestLogger(), filepath.Join(t.TempDir(), "tonearm.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestIncrementPlayCount(t *testing.T) {
	store := openTestStore(t)

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.IncrementPlayCount("t1", now))
	require.NoError(t, store.IncrementPlayCount("t1", now.Add(5*time.Minute)))
	require.NoError(t, store.IncrementPlayCount("t2", now))

	counts, err := store.PlayCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t1": 2, "t2": 1}, counts)
}

func TestPlayCountsEmptyDatabase(t *testing.T) {
	store := openTestStore(t)

	counts, err := store.PlayCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSetLastPlayed(t *testing.T) {
	store := openTestStore(t)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetLastPlayed("t1", at))

	got, ok, err := store.LastPlayed("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	// Overwrites with the newer stamp.
	later := at.Add(time.Hour)
	require.NoError(t, store.SetLastPlayed("t1", later))
	got, ok, err = store.LastPlayed("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(later))
}

func TestSetLastPlayedDoesNotTouchPlayCount(t *testing.T) {
	store := openTestStore(t)

	now := time.Now()
	require.NoError(t, store.IncrementPlayCount("t1", now))
	require.NoError(t, store.SetLastPlayed("t1", now))

	counts, err := store.PlayCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["t1"])
}

func TestLastPlayedUnknownTrack(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.LastPlayed("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tonearm.db")

	store, err := Open(logger.NewTestLogger(), path)
	require.NoError(t, err)
	require.NoError(t, store.IncrementPlayCount("t1", time.Now()))
	require.NoError(t, store.Close())

	reopened, err := Open(logger.NewTestLogger(), path)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()

	counts, err := reopened.PlayCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["t1"])
}
