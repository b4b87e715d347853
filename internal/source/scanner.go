package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var exportExts = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// ScanDir lists spreadsheet exports in an inbox directory (not recursive).
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Office lock files
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !exportExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Kind:    Classify(name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Classify decides whether a file name looks like a marketing export.
func Classify(name string) FileKind {
	if strings.Contains(strings.ToLower(name), "marketing") {
		return KindMarketing
	}
	return KindBookings
}

// Latest returns the most recently modified file of the given kind.
func Latest(files []DiscoveredFile, kind FileKind) (DiscoveredFile, bool) {
	var best DiscoveredFile
	found := false
	for _, f := range files {
		if f.Kind != kind {
			continue
		}
		if !found || f.ModTime.After(best.ModTime) {
			best = f
			found = true
		}
	}
	return best, found
}
