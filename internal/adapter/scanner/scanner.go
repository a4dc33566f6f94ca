// Package scanner walks library roots, extracts track metadata, and publishes
// the results into the catalog. It also watches the roots for file changes
// and triggers rescans.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

// rescanDebounce coalesces bursts of filesystem events into one rescan.
const rescanDebounce = 2 * time.Second

// supportedExts lists the formats the playback engine can decode.
var supportedExts = []string{".mp3", ".flac", ".ogg", ".wav"}

// Scanner builds the library from the configured roots.
// All operations are thread-safe via sync.RWMutex.
type Scanner struct {
	// Dependencies (injected)
	logger  *slog.Logger
	catalog ports.LibraryWriter
	prober  ports.MetadataProber
	bus     ports.EventBus

	// State
	roots      []string
	scanning   bool
	cancelScan context.CancelFunc

	// Concurrency control
	mu sync.RWMutex

	// now is injected for deterministic tests
	now func() time.Time
}

// New creates a scanner over the given library roots.
func New(
	logger *slog.Logger,
	catalog ports.LibraryWriter,
	prober ports.MetadataProber,
	bus ports.EventBus,
	roots []string,
) *Scanner {
	return &Scanner{
		logger:  logger,
		catalog: catalog,
		prober:  prober,
		bus:     bus,
		roots:   roots,
		now:     time.Now,
	}
}

// Scan walks every root, extracts metadata, and replaces the catalog's track
// set with the result. Progress events are published along the way.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Track, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, errors.New("scan already in progress")
	}
	s.scanning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	s.bus.Publish(domain.NewScanStartedEvent(strings.Join(s.roots, ", ")))

	files, err := s.collectAudioFiles(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.bus.Publish(domain.NewScanCancelledEvent("cancelled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(files))
	total := len(files)

	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.bus.Publish(domain.NewScanCancelledEvent("cancelled"))
			return tracks, domain.ErrScanCancelled
		default:
		}

		track, err := s.extract(filePath)
		if err != nil {
			// Skip unreadable files but keep scanning
			s.logger.Debug("skipping unreadable file",
				slog.String("path", filePath),
				slog.Any("error", err))
			continue
		}
		tracks = append(tracks, track)

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  filePath,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(tracks),
		}))
	}

	s.catalog.ReplaceTracks(tracks)
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))
	s.bus.Publish(domain.NewLibraryUpdatedEvent(len(tracks)))

	s.logger.Info("library scan completed",
		slog.Int("files", total),
		slog.Int("tracks", len(tracks)))

	return tracks, nil
}

// CancelScan cancels the currently running scan operation.
func (s *Scanner) CancelScan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelScan != nil {
		s.cancelScan()
	}
}

// IsScanning returns true if a scan is currently in progress.
func (s *Scanner) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// Watch observes the library roots for filesystem changes and rescans after
// a quiet period. Blocks until the context is cancelled.
func (s *Scanner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range s.roots {
		if err := watcher.Add(root); err != nil {
			s.logger.Warn("cannot watch library root",
				slog.String("root", root),
				slog.Any("error", err))
		}
	}

	var timer *time.Timer
	rescan := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: restart the quiet-period timer on every event.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rescanDebounce, func() {
				select {
				case rescan <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("library watcher error", slog.Any("error", err))

		case <-rescan:
			if _, err := s.Scan(ctx); err != nil && !errors.Is(err, domain.ErrScanCancelled) {
				s.logger.Warn("rescan failed", slog.Any("error", err))
			}
		}
	}
}

// IsFormatSupported checks if a file format is supported.
func IsFormatSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supported := range supportedExts {
		if ext == supported {
			return true
		}
	}
	return false
}

// collectAudioFiles recursively collects all audio files under the roots.
func (s *Scanner) collectAudioFiles(ctx context.Context) ([]string, error) {
	files := make([]string, 0)

	for _, root := range s.roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			select {
			case <-ctx.Done():
				return context.Canceled
			default:
			}

			if err != nil {
				// Skip files/folders we can't access
				return nil
			}
			if info.IsDir() {
				return nil
			}
			if IsFormatSupported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return files, err
		}
	}

	return files, nil
}

// trackID derives a deterministic identifier from the file path. Rescans and
// restarts produce the same ID for the same file, keeping persisted play
// counts attached to their tracks.
func trackID(filePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filePath)).String()
}

// extract reads tag metadata and probes the duration for a single file.
func (s *Scanner) extract(filePath string) (domain.Track, error) {
	track := domain.Track{
		ID:        trackID(filePath),
		FilePath:  filePath,
		Title:     titleFromPath(filePath),
		DateAdded: s.now(),
	}

	f, err := os.Open(filePath)
	if err != nil {
		return domain.Track{}, err
	}
	defer func() { _ = f.Close() }()

	if m, err := tag.ReadFrom(f); err == nil {
		if m.Title() != "" {
			track.Title = m.Title()
		}
		track.Artist = m.Artist()
		track.AlbumArtist = m.AlbumArtist()
		track.Album = m.Album()
		track.Genre = m.Genre()
		track.TrackNumber, _ = m.Track()
	}

	if s.prober != nil {
		if d, err := s.prober.Probe(filePath); err == nil {
			track.Duration = d
		} else {
			s.logger.Debug("cannot probe duration",
				slog.String("path", filePath),
				slog.Any("error", err))
		}
	}

	return track, nil
}

// titleFromPath derives a fallback title from the file name.
func titleFromPath(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
