package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves every file location used by the pipeline. All relative
// paths are anchored at the executable directory, never the current working
// directory, so a scheduled run behaves the same regardless of where it is
// launched from.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds a Paths rooted at the given directory. Tests use this to
// anchor paths at a temp dir instead of the executable.
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ReportsDir:    filepath.Join(dataDir, "reports"),
		LogsDir:       filepath.Join(baseDir, "logs"),
	}
}

// EnsureDirectories creates every directory the pipeline writes into.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve anchors a possibly-relative path at the executable directory.
// Absolute paths pass through unchanged.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}

// GetLogPath returns the full path for a log file name.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetReportPath returns the full path for a report file name.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}
