package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved directory layout. All directories are
// absolute after resolution.
type Paths struct {
	BaseDir    string
	DataDir    string
	RawDir     string
	CleanDir   string
	ReportsDir string
	LogsDir    string
}

// resolvePaths turns the configured relative paths into an absolute
// layout rooted at BaseDir (default: working directory).
func (c *Config) resolvePaths() error {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}
	c.Paths.BaseDir = abs
	return nil
}

// GetPaths returns the resolved directory layout for the configuration.
func (c *Config) GetPaths() *Paths {
	dataDir := c.Paths.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(c.Paths.BaseDir, dataDir)
	}
	logsDir := c.Paths.LogsDir
	if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(c.Paths.BaseDir, logsDir)
	}
	return &Paths{
		BaseDir:    c.Paths.BaseDir,
		DataDir:    dataDir,
		RawDir:     filepath.Join(dataDir, "raw"),
		CleanDir:   filepath.Join(dataDir, "clean"),
		ReportsDir: filepath.Join(dataDir, "reports"),
		LogsDir:    logsDir,
	}
}

// EnsureDirectories creates the directory layout when missing.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.RawDir, p.CleanDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
