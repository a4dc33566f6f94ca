package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/logger"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return New(logger.NewTestLogger())
}

func track(id, path, title string) domain.Track {
	return domain.Track{ID: id, FilePath: path, Title: title}
}

func TestReplaceTracksAndLookup(t *testing.T) {
	c := newTestCatalog(t)

	c.ReplaceTracks([]domain.Track{
		track("t1", "/music/a.mp3", "Alpha"),
		track("t2", "/music/b.mp3", "Beta"),
	})

	all := c.Tracks()
	require.Len(t, all, 2)

	got, ok := c.TrackByID("t1")
	require.True(t, ok)
	assert.Equal(t, "Alpha", got.Title)

	got, ok = c.TrackByRef("/music/b.mp3")
	require.True(t, ok)
	assert.Equal(t, "t2", got.ID)

	_, ok = c.TrackByID("missing")
	assert.False(t, ok)
}

func TestReplaceTracksPreservesListeningHistory(t *testing.T) {
	c := newTestCatalog(t)

	added := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	played := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	first := track("t1", "/music/a.mp3", "Alpha")
	first.PlayCount = 7
	first.LastPlayed = played
	first.DateAdded = added
	c.ReplaceTracks([]domain.Track{first})

	// Rescan assigns a fresh ID to the same file.
	c.ReplaceTracks([]domain.Track{track("t1-new", "/music/a.mp3", "Alpha")})

	got, ok := c.TrackByRef("/music/a.mp3")
	require.True(t, ok)
	assert.Equal(t, 7, got.PlayCount)
	assert.Equal(t, played, got.LastPlayed)
	assert.Equal(t, added, got.DateAdded)
}

func TestSeedAndBumpPlayCounts(t *testing.T) {
	c := newTestCatalog(t)
	c.ReplaceTracks([]domain.Track{track("t1", "/music/a.mp3", "Alpha")})

	c.SeedPlayCounts(map[string]int{"t1": 3, "unknown": 9})

	got, _ := c.TrackByID("t1")
	assert.Equal(t, 3, got.PlayCount)

	c.BumpPlayCount("t1")
	got, _ = c.TrackByID("t1")
	assert.Equal(t, 4, got.PlayCount)

	// Unknown IDs are ignored.
	c.BumpPlayCount("unknown")
}

func TestViewStateDefaultsAndMutation(t *testing.T) {
	c := newTestCatalog(t)

	libView := c.ViewState(domain.SourceLibrary)
	assert.Equal(t, domain.SortArtist, libView.SortField)
	assert.False(t, libView.SortDescending)

	plView := c.ViewState(domain.SourcePlaylist)
	assert.Equal(t, domain.SortNatural, plView.SortField)

	c.SetSort(domain.SourceLibrary, domain.SortPlayCount, true)
	c.SetFilter(domain.SourceLibrary, "beatles")

	libView = c.ViewState(domain.SourceLibrary)
	assert.Equal(t, domain.SortPlayCount, libView.SortField)
	assert.True(t, libView.SortDescending)
	assert.Equal(t, "beatles", libView.FilterText)
}

func TestPlaylistLifecycle(t *testing.T) {
	c := newTestCatalog(t)
	c.ReplaceTracks([]domain.Track{
		track("t1", "/music/a.mp3", "Alpha"),
		track("t2", "/music/b.mp3", "Beta"),
	})

	p := c.CreatePlaylist("Road Trip", []string{"t2", "t1", "ghost"})
	require.NotEmpty(t, p.ID)
	// Unknown members are dropped, order of the rest is preserved.
	assert.Equal(t, []string{"t2", "t1"}, p.TrackIDs)

	got, ok := c.Playlist(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Road Trip", got.Name)

	require.NoError(t, c.UpdatePlaylist(p.ID, "Short Trip", []string{"t1"}))
	got, _ = c.Playlist(p.ID)
	assert.Equal(t, "Short Trip", got.Name)
	assert.Equal(t, []string{"t1"}, got.TrackIDs)

	assert.ErrorIs(t, c.UpdatePlaylist("missing", "x", nil), domain.ErrPlaylistNotFound)

	require.NoError(t, c.DeletePlaylist(p.ID))
	_, ok = c.Playlist(p.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, c.DeletePlaylist(p.ID), domain.ErrPlaylistNotFound)
}

func TestPlaylistsSortedByName(t *testing.T) {
	c := newTestCatalog(t)
	c.ReplaceTracks([]domain.Track{track("t1", "/music/a.mp3", "Alpha")})

	c.CreatePlaylist("zebra", []string{"t1"})
	c.CreatePlaylist("Apple", []string{"t1"})

	lists := c.Playlists()
	require.Len(t, lists, 2)
	assert.Equal(t, "Apple", lists[0].Name)
	assert.Equal(t, "zebra", lists[1].Name)
}
