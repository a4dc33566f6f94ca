// Package order implements track order resolution: filtering, sorting with
// multi-key tie-break chains, and next/previous lookup over the resolved
// sequence. Everything here is pure; callers own all state.
package order

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/tonearm-player/tonearm/internal/domain"
)

// Resolve produces the ordered sequence for a view over the given tracks.
// The input slice is not mutated.
//
// Filtering is a case-insensitive substring match across title, artist,
// album, and genre; an empty filter keeps everything. Sorting applies exactly
// one key with fixed tie-break chains:
//
//   - artist: album-artist (falling back to artist), case-folded with a
//     leading "the " stripped; then album; then track number (unknown first)
//   - album: album; then track number (unknown first)
//   - everything else: single-key, stable otherwise
//
// SortDescending reverses the primary comparison only. Tie-break chains keep
// their natural direction even under descending sort; the UI depends on this
// exact behavior.
func Resolve(tracks []domain.Track, view domain.ViewState) []domain.Track {
	out := make([]domain.Track, 0, len(tracks))
	filter := strings.ToLower(strings.TrimSpace(view.FilterText))
	for _, t := range tracks {
		if filter == "" || matchesFilter(t, filter) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], view)
	})

	return out
}

// IndexOf returns the position of the track with the given ID, or -1.
func IndexOf(seq []domain.Track, id string) int {
	for i, t := range seq {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindNext resolves the track that plays after the current one.
//
// Under shuffle, positional adjacency is ignored: a uniformly random index
// different from the current one is chosen whenever the sequence holds more
// than one track. Otherwise the successor in the sequence is returned, with
// RepeatAll wrapping from the end back to index 0. The boolean is false when
// no next track exists (end of sequence without RepeatAll).
func FindNext(seq []domain.Track, currentID string, repeat domain.RepeatMode, shuffle bool, rng *rand.Rand) (domain.Track, bool) {
	if len(seq) == 0 {
		return domain.Track{}, false
	}

	idx := IndexOf(seq, currentID)

	if shuffle && len(seq) > 1 {
		if idx < 0 {
			// Current track no longer in the sequence: every element is a
			// fair pick.
			return seq[rng.Intn(len(seq))], true
		}
		pick := rng.Intn(len(seq) - 1)
		if pick >= idx {
			pick++
		}
		return seq[pick], true
	}

	// Current track no longer in the sequence (filter or sort changed
	// underneath us): start over from the top of the current view.
	if idx < 0 {
		return seq[0], true
	}

	if idx < len(seq)-1 {
		return seq[idx+1], true
	}

	if repeat == domain.RepeatAll {
		return seq[0], true
	}

	return domain.Track{}, false
}

// FindPrevious resolves the catalog-order predecessor of the current track.
// Shuffle retracing is the scheduler's job (via its history); this function
// only ever walks the resolved sequence. The boolean is false when the
// current track is first in the sequence or absent from it.
func FindPrevious(seq []domain.Track, currentID string) (domain.Track, bool) {
	idx := IndexOf(seq, currentID)
	if idx <= 0 {
		return domain.Track{}, false
	}
	return seq[idx-1], true
}

// matchesFilter reports whether the track matches a lowercased substring filter.
func matchesFilter(t domain.Track, filter string) bool {
	return strings.Contains(strings.ToLower(t.Title), filter) ||
		strings.Contains(strings.ToLower(t.Artist), filter) ||
		strings.Contains(strings.ToLower(t.Album), filter) ||
		strings.Contains(strings.ToLower(t.Genre), filter)
}

// less orders two tracks under the view's sort key and direction.
func less(a, b domain.Track, view domain.ViewState) bool {
	cmp := primaryCompare(a, b, view.SortField)
	if view.SortDescending {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}

	// Tie-break chains run in their natural direction regardless of the
	// descending flag.
	switch view.SortField {
	case domain.SortArtist:
		if c := strings.Compare(foldCase(a.Album), foldCase(b.Album)); c != 0 {
			return c < 0
		}
		return a.TrackNumber < b.TrackNumber
	case domain.SortAlbum:
		return a.TrackNumber < b.TrackNumber
	default:
		return false
	}
}

// primaryCompare compares the sort field's primary key, returning -1/0/1.
func primaryCompare(a, b domain.Track, field domain.SortField) int {
	switch field {
	case domain.SortNatural:
		// Stable sort preserves the input (playlist member) order.
		return 0
	case domain.SortArtist:
		return strings.Compare(artistKey(a), artistKey(b))
	case domain.SortAlbum:
		return strings.Compare(foldCase(a.Album), foldCase(b.Album))
	case domain.SortGenre:
		return strings.Compare(foldCase(a.Genre), foldCase(b.Genre))
	case domain.SortDuration:
		return compareInt64(int64(a.Duration), int64(b.Duration))
	case domain.SortPlayCount:
		return compareInt64(int64(a.PlayCount), int64(b.PlayCount))
	case domain.SortDateAdded:
		return a.DateAdded.Compare(b.DateAdded)
	default:
		return strings.Compare(foldCase(a.Title), foldCase(b.Title))
	}
}

// artistKey builds the artist sort key: album artist when present, otherwise
// artist, case-folded, with a leading "the " stripped so "The Beatles" files
// under B.
func artistKey(t domain.Track) string {
	name := t.AlbumArtist
	if name == "" {
		name = t.Artist
	}
	return strings.TrimPrefix(foldCase(name), "the ")
}

func foldCase(s string) string {
	return strings.ToLower(s)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
