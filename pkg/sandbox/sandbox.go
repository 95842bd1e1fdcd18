// Package sandbox restricts which files kawk may read.
// When enabled, scripts and input files can only be opened below one of the
// allowed roots. kawk never writes files, so every rule is read-only.
package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Common sandbox errors.
var (
	ErrAccessDenied = errors.New("access denied: path not in sandbox")
	ErrNoRoots      = errors.New("sandbox has no allowed paths")
)

// Sandbox holds the allowed roots.
type Sandbox struct {
	mu      sync.RWMutex
	roots   []string
	enabled bool
}

// Config holds sandbox configuration.
type Config struct {
	// Directories (or single files) that may be read
	AllowedPaths []string
	// Allow reading below the current working directory
	AllowCwd bool
}

// Global sandbox instance (disabled by default).
var globalSandbox = &Sandbox{}

// Init enables the global sandbox with the given configuration. Relative
// paths are resolved against the current directory and symlinks in the
// roots are followed, so a root and the files below it compare equal.
func Init(cfg *Config) error {
	var roots []string
	if cfg.AllowCwd {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		roots = append(roots, resolve(cwd))
	}
	for _, path := range cfg.AllowedPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		roots = append(roots, resolve(absPath))
	}
	if len(roots) == 0 {
		return ErrNoRoots
	}

	globalSandbox.mu.Lock()
	defer globalSandbox.mu.Unlock()
	globalSandbox.roots = roots
	globalSandbox.enabled = true
	return nil
}

// Disable disables the sandbox (allows all reads).
func Disable() {
	globalSandbox.mu.Lock()
	defer globalSandbox.mu.Unlock()
	globalSandbox.enabled = false
	globalSandbox.roots = nil
}

// IsEnabled returns whether the sandbox is enabled.
func IsEnabled() bool {
	globalSandbox.mu.RLock()
	defer globalSandbox.mu.RUnlock()
	return globalSandbox.enabled
}

// Roots returns the allowed roots of the enabled sandbox.
func Roots() []string {
	globalSandbox.mu.RLock()
	defer globalSandbox.mu.RUnlock()
	return append([]string(nil), globalSandbox.roots...)
}

// checkAccess verifies that path lies below an allowed root.
func checkAccess(path string) error {
	globalSandbox.mu.RLock()
	defer globalSandbox.mu.RUnlock()

	if !globalSandbox.enabled {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ErrAccessDenied
	}
	// Clean the path to prevent traversal attacks
	absPath = resolve(filepath.Clean(absPath))

	for _, root := range globalSandbox.roots {
		if within(absPath, root) {
			return nil
		}
	}
	return ErrAccessDenied
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}

// resolve follows symlinks when the path exists.
func resolve(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// Open opens a file for reading within the sandbox.
func Open(path string) (*os.File, error) {
	if err := checkAccess(path); err != nil {
		return nil, err
	}
	return os.Open(path) // #nosec G304 -- sandbox checkAccess enforces allowed paths
}

// ReadFile reads a file within the sandbox.
func ReadFile(path string) ([]byte, error) {
	if err := checkAccess(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path) // #nosec G304 -- sandbox checkAccess enforces allowed paths
}

// Stat returns file info within the sandbox.
func Stat(path string) (os.FileInfo, error) {
	if err := checkAccess(path); err != nil {
		return nil, err
	}
	return os.Stat(path)
}
