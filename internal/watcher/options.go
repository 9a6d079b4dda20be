package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the file watcher behavior.
type Options struct {
	// IgnorePatterns are matched against the base name of every path.
	IgnorePatterns []string
	// ExcludeDirs are absolute directories whose contents never produce events,
	// such as an output directory nested inside the source tree.
	ExcludeDirs []string
	SettleDelay time.Duration
	// IgnoreHidden skips dot files and everything below dot directories.
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 2 * time.Second
	}

	// Explicit patterns (even an empty slice) keep the caller's IgnoreHidden.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
			"*.tmp",
			"*.temp",
			"*.part",
			"*.crdownload",
		}
		o.IgnoreHidden = true
	}

	dirs := make([]string, 0, len(o.ExcludeDirs))
	for _, dir := range o.ExcludeDirs {
		dirs = append(dirs, filepath.Clean(dir))
	}
	o.ExcludeDirs = dirs
}

// shouldIgnore checks if a path matches ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	path = filepath.Clean(path)

	for _, dir := range o.ExcludeDirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	if o.IgnoreHidden {
		for _, part := range strings.Split(path, string(filepath.Separator)) {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}

	return false
}
