// Package memory provides an in-memory catalog: the track collection,
// playlists, and per-source view state served to the scheduler.
package memory

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

// Catalog holds the library in memory. The scanner replaces the track set
// wholesale after each scan; the UI mutates view state and playlists; the
// scheduler only reads.
//
// Thread-safety: This implementation is thread-safe.
type Catalog struct {
	// Dependencies
	logger *slog.Logger

	mu        sync.RWMutex
	tracks    map[string]domain.Track // keyed by track ID
	byRef     map[string]string       // file path -> track ID
	playlists map[string]domain.Playlist
	views     map[domain.SourceKind]domain.ViewState

	// now is injected for deterministic tests
	now func() time.Time
}

// New creates an empty catalog with default view states: the library sorts by
// artist, playlists keep their member order.
func New(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger:    logger,
		tracks:    make(map[string]domain.Track),
		byRef:     make(map[string]string),
		playlists: make(map[string]domain.Playlist),
		views: map[domain.SourceKind]domain.ViewState{
			domain.SourceLibrary:  {SortField: domain.SortArtist},
			domain.SourcePlaylist: {SortField: domain.SortNatural},
		},
		now: time.Now,
	}
}

// Tracks returns all library tracks in unspecified order.
func (c *Catalog) Tracks() []domain.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		out = append(out, t)
	}
	// Deterministic iteration keeps scheduling reproducible.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TrackByID looks up a track by its identifier.
func (c *Catalog) TrackByID(id string) (domain.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tracks[id]
	return t, ok
}

// TrackByRef looks up a track by its file path.
func (c *Catalog) TrackByRef(ref string) (domain.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byRef[ref]
	if !ok {
		return domain.Track{}, false
	}
	t, ok := c.tracks[id]
	return t, ok
}

// Playlist looks up a playlist by ID.
func (c *Catalog) Playlist(id string) (domain.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.playlists[id]
	return p, ok
}

// Playlists returns all playlists sorted by name.
func (c *Catalog) Playlists() []domain.Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Playlist, 0, len(c.playlists))
	for _, p := range c.playlists {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// ViewState returns the current filter/sort state for a source kind.
func (c *Catalog) ViewState(kind domain.SourceKind) domain.ViewState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.views[kind]
}

// SetSort updates the sort key and direction for a source kind.
func (c *Catalog) SetSort(kind domain.SourceKind, field domain.SortField, descending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.views[kind]
	view.SortField = field
	view.SortDescending = descending
	c.views[kind] = view
}

// SetFilter updates the filter text for a source kind.
func (c *Catalog) SetFilter(kind domain.SourceKind, filter string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.views[kind]
	view.FilterText = filter
	c.views[kind] = view
}

// ReplaceTracks swaps the track set for the scanner's result. Play counts and
// last-played stamps carry over for tracks whose file paths survive the scan,
// so a rescan never zeroes listening history.
func (c *Catalog) ReplaceTracks(tracks []domain.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevByRef := make(map[string]domain.Track, len(c.tracks))
	for _, t := range c.tracks {
		prevByRef[t.FilePath] = t
	}

	c.tracks = make(map[string]domain.Track, len(tracks))
	c.byRef = make(map[string]string, len(tracks))
	for _, t := range tracks {
		if prev, ok := prevByRef[t.FilePath]; ok {
			t.PlayCount = prev.PlayCount
			t.LastPlayed = prev.LastPlayed
			t.DateAdded = prev.DateAdded
		}
		c.tracks[t.ID] = t
		c.byRef[t.FilePath] = t.ID
	}
}

// SeedPlayCounts overlays persisted play counts onto the current track set.
// Called once at startup after the store is opened.
func (c *Catalog) SeedPlayCounts(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, count := range counts {
		if t, ok := c.tracks[id]; ok {
			t.PlayCount = count
			c.tracks[id] = t
		}
	}
}

// BumpPlayCount increments the in-memory play count for a track.
// Driven by the play-counted event so sorted views stay current.
func (c *Catalog) BumpPlayCount(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tracks[id]; ok {
		t.PlayCount++
		c.tracks[id] = t
	}
}

// SetLastPlayed stamps the track's last-played time in memory.
func (c *Catalog) SetLastPlayed(id string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tracks[id]; ok {
		t.LastPlayed = at
		c.tracks[id] = t
	}
}

// CreatePlaylist creates a named playlist over the given member tracks.
// Unknown track IDs are dropped with a warning.
func (c *Catalog) CreatePlaylist(name string, trackIDs []string) domain.Playlist {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		if _, ok := c.tracks[id]; ok {
			members = append(members, id)
		} else if c.logger != nil {
			c.logger.Warn("dropping unknown track from playlist", slog.String("track_id", id))
		}
	}

	now := c.now()
	p := domain.Playlist{
		ID:        uuid.NewString(),
		Name:      name,
		TrackIDs:  members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.playlists[p.ID] = p
	return p
}

// UpdatePlaylist replaces a playlist's name and membership.
func (c *Catalog) UpdatePlaylist(id, name string, trackIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}

	members := make([]string, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		if _, exists := c.tracks[trackID]; exists {
			members = append(members, trackID)
		}
	}

	p.Name = name
	p.TrackIDs = members
	p.UpdatedAt = c.now()
	c.playlists[id] = p
	return nil
}

// DeletePlaylist removes a playlist.
func (c *Catalog) DeletePlaylist(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.playlists[id]; !ok {
		return domain.ErrPlaylistNotFound
	}
	delete(c.playlists, id)
	return nil
}

// Verify that Catalog implements the catalog contracts
var (
	_ ports.Catalog       = (*Catalog)(nil)
	_ ports.LibraryWriter = (*Catalog)(nil)
)
