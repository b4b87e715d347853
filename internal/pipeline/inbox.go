package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/chargesense/internal/source"
	"github.com/theirongolddev/chargesense/internal/store"
)

// FileTracker remembers which inbox files were already processed.
type FileTracker interface {
	GetTrackedFiles() (map[string]store.FileInfo, error)
	TrackFile(path string, mtimeNs, sizeBytes int64, kind string) error
}

// InboxScan is one look at the inbox, diffed against the tracker.
type InboxScan struct {
	Files   []source.DiscoveredFile
	Changed []source.DiscoveredFile
}

// ChangedOf reports the newest changed file of a kind.
func (s *InboxScan) ChangedOf(kind source.FileKind) (source.DiscoveredFile, bool) {
	return source.Latest(s.Changed, kind)
}

// Request picks the files for a run: the newest bookings export, plus the
// newest marketing export only when it changed since the last run.
// ok is false when nothing relevant changed or no bookings export exists.
func (s *InboxScan) Request() (Request, bool) {
	bookings, hasBookings := source.Latest(s.Files, source.KindBookings)
	if !hasBookings || len(s.Changed) == 0 {
		return Request{}, false
	}
	req := Request{BookingsPath: bookings.Path}
	if m, ok := s.ChangedOf(source.KindMarketing); ok {
		req.MarketingPath = m.Path
	}
	return req, true
}

// LatestRequest picks the newest bookings and marketing exports whether or
// not they changed.
func (s *InboxScan) LatestRequest() (Request, bool) {
	bookings, ok := source.Latest(s.Files, source.KindBookings)
	if !ok {
		return Request{}, false
	}
	req := Request{BookingsPath: bookings.Path}
	if m, ok := source.Latest(s.Files, source.KindMarketing); ok {
		req.MarketingPath = m.Path
	}
	return req, true
}

// ScanInbox lists exports in dir and diffs them against the tracker by
// modification time and size.
func ScanInbox(dir string, tracker FileTracker) (*InboxScan, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	tracked, err := tracker.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading tracker: %w", err)
	}

	scan := &InboxScan{Files: files}
	for _, f := range files {
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == f.ModTime.UnixNano() && cached.SizeBytes == f.Size {
			continue
		}
		scan.Changed = append(scan.Changed, f)
	}
	return scan, nil
}

// MarkProcessed records every changed file so the next scan skips them.
func MarkProcessed(tracker FileTracker, files []source.DiscoveredFile) error {
	for _, f := range files {
		if err := tracker.TrackFile(f.Path, f.ModTime.UnixNano(), f.Size, string(f.Kind)); err != nil {
			return fmt.Errorf("tracking %s: %w", f.Path, err)
		}
	}
	return nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "chargesense")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "chargesense")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "chargesense.db")
}
