// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Tonearm music player.
package domain

import (
	"time"
)

// Track represents a single audio track with the metadata the scheduler cares about.
// Tracks are owned by the catalog and immutable from the scheduler's perspective.
type Track struct {
	// ID is a unique identifier for the track (UUID)
	ID string

	// FilePath is the absolute path to the audio file. It doubles as the
	// reference handed to the audio engine queue.
	FilePath string

	// Title is the song title (from metadata or filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// AlbumArtist is the album-level artist, used ahead of Artist for sorting
	AlbumArtist string

	// Album is the album name
	Album string

	// Genre is the music genre
	Genre string

	// Duration is the total length of the track
	Duration time.Duration

	// TrackNumber is the track number on the album (0 when unknown;
	// unknown numbers sort first)
	TrackNumber int

	// PlayCount is the number of qualified listens recorded for this track
	PlayCount int

	// DateAdded is when the track entered the library
	DateAdded time.Time

	// LastPlayed is when the track was last selected for playback
	LastPlayed time.Time
}

// Playlist represents a named, ordered collection of track IDs.
type Playlist struct {
	// ID is a unique identifier for the playlist (UUID)
	ID string

	// Name is the playlist name
	Name string

	// TrackIDs is the ordered list of member track IDs
	TrackIDs []string

	// CreatedAt is when the playlist was created
	CreatedAt time.Time

	// UpdatedAt is when the playlist was last modified
	UpdatedAt time.Time
}

// SourceKind identifies which ordered sequence the catalog resolves.
type SourceKind int

const (
	// SourceLibrary plays from the full track collection
	SourceLibrary SourceKind = iota

	// SourcePlaylist plays from a single playlist's member tracks
	SourcePlaylist
)

// String returns a human-readable representation of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceLibrary:
		return "library"
	case SourcePlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// PlaybackSource selects the sequence tracks are scheduled from.
type PlaybackSource struct {
	Kind SourceKind

	// PlaylistID is set only when Kind is SourcePlaylist
	PlaylistID string
}

// LibrarySource returns a source covering the whole library.
func LibrarySource() PlaybackSource {
	return PlaybackSource{Kind: SourceLibrary}
}

// PlaylistSource returns a source covering a single playlist.
func PlaylistSource(playlistID string) PlaybackSource {
	return PlaybackSource{Kind: SourcePlaylist, PlaylistID: playlistID}
}

// RepeatMode controls what happens when the current track or sequence ends.
type RepeatMode int

const (
	// RepeatOff stops at the end of the sequence
	RepeatOff RepeatMode = iota

	// RepeatTrack restarts the current track indefinitely
	RepeatTrack

	// RepeatAll wraps from the end of the sequence back to the start
	RepeatAll
)

// Next returns the mode following this one in the Off -> Track -> All cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatTrack:
		return "track"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// SortField identifies the single sort key applied during order resolution.
type SortField string

const (
	// SortNatural keeps the source's own order (playlist member order)
	SortNatural SortField = "natural"

	SortTitle     SortField = "title"
	SortArtist    SortField = "artist"
	SortAlbum     SortField = "album"
	SortGenre     SortField = "genre"
	SortDuration  SortField = "duration"
	SortPlayCount SortField = "playCount"
	SortDateAdded SortField = "dateAdded"
)

// ViewState is the UI-owned filter/sort state for one source kind.
// The scheduler reads the latest snapshot at resolution time and never mutates it.
type ViewState struct {
	// SortField is the active sort key
	SortField SortField

	// SortDescending reverses the primary key comparison only; tie-break
	// chains keep their natural direction
	SortDescending bool

	// FilterText is a case-insensitive substring filter across
	// title/artist/album/genre (empty means no filtering)
	FilterText string
}

// PlayerState is a point-in-time snapshot of the scheduler's aggregate state.
type PlayerState struct {
	// CurrentTrack is the currently scheduled track (nil if none)
	CurrentTrack *Track

	// Paused indicates whether playback is paused
	Paused bool

	// Position is the current playback position within the track
	Position time.Duration

	// Duration is the current track's total length
	Duration time.Duration

	// Volume is the current volume level (0.0 to 1.0)
	Volume float64

	// Source is the active playback source
	Source PlaybackSource

	// Repeat is the active repeat mode
	Repeat RepeatMode

	// Shuffle indicates whether shuffle mode is enabled
	Shuffle bool

	// HistoryLen is the number of tracks currently in the shuffle history
	HistoryLen int
}

// ScanProgress represents the progress of a music library scan operation.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan (may be -1 if unknown)
	TotalFiles int

	// TracksFound is the number of valid music tracks found
	TracksFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
