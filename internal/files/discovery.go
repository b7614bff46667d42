// Package files discovers raw and cleaned dataset files under the data
// directories and maps filenames to country names.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes a discovered dataset file.
type FileInfo struct {
	Path    string
	Name    string
	Country string
	Size    int64
	ModTime time.Time
}

// Discovery provides dataset file discovery rooted at a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery instance rooted at basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// cleanedSuffixes mark files produced by the cleaning pipeline.
var cleanedSuffixes = []string{"_clean.csv", "_clean.csv.gz"}

// rawExtensions are accepted raw station export formats.
var rawExtensions = []string{".csv", ".csv.gz", ".xlsx", ".xls"}

// FindRawFiles lists raw station exports in dir, oldest first, skipping
// cleaned outputs.
func (d *Discovery) FindRawFiles(dir string) ([]FileInfo, error) {
	return d.find(dir, func(name string) bool {
		lower := strings.ToLower(name)
		for _, suffix := range cleanedSuffixes {
			if strings.HasSuffix(lower, suffix) {
				return false
			}
		}
		for _, ext := range rawExtensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
		return false
	})
}

// FindCleanedFiles lists cleaning pipeline outputs in dir, oldest first.
func (d *Discovery) FindCleanedFiles(dir string) ([]FileInfo, error) {
	return d.find(dir, func(name string) bool {
		lower := strings.ToLower(name)
		for _, suffix := range cleanedSuffixes {
			if strings.HasSuffix(lower, suffix) {
				return true
			}
		}
		return false
	})
}

func (d *Discovery) find(dir string, match func(string) bool) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Country: CountryFromFilename(entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// CountryFromFilename infers the country name from a dataset filename.
// "benin-malanville.csv" and "benin_clean.csv.gz" both map to "benin".
func CountryFromFilename(name string) string {
	base := strings.ToLower(name)
	for _, suffix := range cleanedSuffixes {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_clean")
	if i := strings.IndexAny(base, "-"); i > 0 {
		base = base[:i]
	}
	return base
}

// CleanedName returns the canonical cleaned filename for a country.
func CleanedName(country string) string {
	return country + "_clean.csv"
}

// IsCleanedName reports whether name looks like a cleaning pipeline
// output.
func IsCleanedName(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range cleanedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// ResolveUnder joins name to dir and rejects paths escaping it. Guards
// the download endpoints against traversal.
func ResolveUnder(dir, name string) (string, error) {
	joined := filepath.Join(dir, filepath.Clean("/"+name))
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if abs != absDir && !strings.HasPrefix(abs, absDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes %s", name, dir)
	}
	return abs, nil
}
