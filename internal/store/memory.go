package store

import "sync"

// MemTracker is an in-process file tracker used when the cache is disabled.
type MemTracker struct {
	mu    sync.Mutex
	files map[string]FileInfo
}

// NewMemTracker returns an empty tracker.
func NewMemTracker() *MemTracker {
	return &MemTracker{files: make(map[string]FileInfo)}
}

// GetTrackedFiles returns a copy of the tracked set.
func (m *MemTracker) GetTrackedFiles() (map[string]FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]FileInfo, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out, nil
}

// TrackFile records a file.
func (m *MemTracker) TrackFile(path string, mtimeNs, sizeBytes int64, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = FileInfo{MtimeNs: mtimeNs, SizeBytes: sizeBytes, Kind: kind}
	return nil
}
